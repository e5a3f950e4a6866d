package game

import "time"

const (
	defaultStrokeColor = "#000000"
	defaultStrokeSize  = 4
	maxStrokeColorLen  = 20
	minStrokeSize      = 1
	maxStrokeSize      = 50
)

// AddStroke buffers a drawing event and relays it to everyone but the
// drawer. Only the current drawer may draw, and only while a round is live.
func (e *Engine) AddStroke(roomCode, playerID string, stroke Stroke) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.Status != StatusDrawing || playerID != room.Round.DrawerID {
		room.mu.Unlock()
		return
	}
	stroke = sanitizeStroke(stroke)
	if len(room.Round.Strokes) < MaxStrokesPerRound {
		room.Round.Strokes = append(room.Round.Strokes, stroke)
	}
	room.mu.Unlock()

	e.notify.ToRoomExcept(roomCode, playerID, EventDrawStroke, stroke)
}

// ClearCanvas wipes the stroke buffer and tells guessers to clear.
func (e *Engine) ClearCanvas(roomCode, playerID string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.Status != StatusDrawing || playerID != room.Round.DrawerID {
		room.mu.Unlock()
		return
	}
	room.Round.Strokes = nil
	room.mu.Unlock()

	e.notify.ToRoomExcept(roomCode, playerID, EventDrawClear, struct{}{})
}

// sanitizeStroke clamps client-supplied fields to sane values before the
// stroke is buffered or relayed.
func sanitizeStroke(s Stroke) Stroke {
	if s.Type == "" {
		s.Type = "move"
	}
	if s.Color == "" {
		s.Color = defaultStrokeColor
	} else if len(s.Color) > maxStrokeColorLen {
		s.Color = s.Color[:maxStrokeColorLen]
	}
	if s.Size == 0 {
		s.Size = defaultStrokeSize
	}
	if s.Size < minStrokeSize {
		s.Size = minStrokeSize
	}
	if s.Size > maxStrokeSize {
		s.Size = maxStrokeSize
	}
	s.Timestamp = time.Now().UnixMilli()
	return s
}
