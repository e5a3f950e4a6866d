package game

import (
	"fmt"
	"strings"
	"time"
)

// CreateRoom makes a new room with the caller as host and returns its code.
func (e *Engine) CreateRoom(playerID, name, difficulty string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidName
	}

	room, err := e.reg.CreateRoom(playerID, name, ParseDifficulty(difficulty), e.cfg)
	if err != nil {
		return "", err
	}

	e.log.Info().Str("room", room.Code).Str("host", name).Msg("room created")
	e.notify.ToPlayer(playerID, EventRoomCreated, RoomCreatedData{RoomCode: room.Code, PlayerID: playerID})
	if snap, ok := e.reg.Snapshot(room.Code, playerID); ok {
		e.notify.ToPlayer(playerID, EventRoomJoined, RoomJoinedData{Room: snap})
	}
	return room.Code, nil
}

// JoinRoom adds a player to a waiting room.
func (e *Engine) JoinRoom(playerID, roomCode, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidName
	}
	roomCode = strings.ToUpper(strings.TrimSpace(roomCode))

	room := e.reg.Get(roomCode)
	if room == nil {
		return "", ErrRoomNotFound
	}

	room.mu.Lock()
	if room.Status != StatusWaiting {
		room.mu.Unlock()
		return "", ErrGameInProgress
	}
	if len(room.Players) >= e.cfg.MaxPlayers {
		room.mu.Unlock()
		return "", ErrRoomFull
	}
	p := room.addPlayer(playerID, name, e.cfg.GuessInterval)
	snap := room.snapshot(playerID)
	joined := p.snapshot()
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Str("player", name).Msg("player joined")
	e.notify.ToPlayer(playerID, EventRoomJoined, RoomJoinedData{Room: snap})
	e.notify.ToRoomExcept(roomCode, playerID, EventPlayerJoined, PlayerJoinedData{Player: joined})
	return roomCode, nil
}

// Leave is a voluntary exit: the player is removed immediately, with no
// reconnect window.
func (e *Engine) Leave(roomCode, playerID string) {
	e.departPlayer(roomCode, playerID, false)
}

// HandleDisconnect is an involuntary drop: the seat is held for the
// disconnect grace window so the player can reconnect with score intact.
func (e *Engine) HandleDisconnect(roomCode, playerID string) {
	e.departPlayer(roomCode, playerID, true)
}

func (e *Engine) departPlayer(roomCode, playerID string, disconnect bool) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	p := room.Players[playerID]
	if p == nil {
		room.mu.Unlock()
		return
	}
	p.IsConnected = false
	name := p.Name
	wasDrawer := room.Status == StatusDrawing && playerID == room.Round.DrawerID
	word := room.Round.Word

	if disconnect {
		room.stopReconnectTimer(playerID)
		room.reconnectTimers[playerID] = time.AfterFunc(e.cfg.DisconnectGrace, func() {
			e.expireReconnectGrace(roomCode, playerID)
		})
	} else {
		room.removePlayer(playerID)
	}
	empty := room.connectedCount() == 0
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Str("player", name).Bool("disconnect", disconnect).Msg("player left")
	e.notify.ToRoom(roomCode, EventPlayerLeft, PlayerLeftData{PlayerID: playerID, Name: name})

	if wasDrawer {
		if disconnect {
			e.drawerLost(roomCode, playerID)
		} else {
			if word == "" {
				word = "???"
			}
			e.notify.ToRoom(roomCode, EventChatMessage,
				systemChat(fmt.Sprintf("The drawer left. Skipping round. The word was %q", word)))
			e.endRound(roomCode)
		}
	}
	if empty && !disconnect {
		e.teardownRoom(roomCode)
	}
}

// drawerLost holds the round open briefly in case the drawer's socket comes
// back.
func (e *Engine) drawerLost(roomCode, drawerID string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.Status != StatusDrawing || room.Round.DrawerID != drawerID {
		room.mu.Unlock()
		return
	}
	room.Round.drawerGraceTimer = stopTimer(room.Round.drawerGraceTimer)
	room.Round.drawerGraceTimer = time.AfterFunc(e.cfg.DrawerGraceWindow, func() {
		e.drawerGraceExpired(roomCode, drawerID)
	})
	grace := int(e.cfg.DrawerGraceWindow / time.Second)
	room.mu.Unlock()

	e.notify.ToRoom(roomCode, EventChatMessage,
		systemChat(fmt.Sprintf("The drawer disconnected. Waiting %d seconds for them to return...", grace)))
}

func (e *Engine) drawerGraceExpired(roomCode, drawerID string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.Status != StatusDrawing || room.Round.DrawerID != drawerID {
		room.mu.Unlock()
		return
	}
	if p := room.Players[drawerID]; p != nil && p.IsConnected {
		room.mu.Unlock()
		return
	}
	word := room.Round.Word
	if word == "" {
		word = "???"
	}
	room.mu.Unlock()

	e.notify.ToRoom(roomCode, EventChatMessage,
		systemChat(fmt.Sprintf("The drawer did not return. Skipping round. The word was %q", word)))
	e.endRound(roomCode)
}

// expireReconnectGrace removes a player whose disconnect window lapsed.
func (e *Engine) expireReconnectGrace(roomCode, playerID string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	p := room.Players[playerID]
	if p == nil || p.IsConnected {
		room.mu.Unlock()
		return
	}
	room.removePlayer(playerID)
	empty := room.connectedCount() == 0
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Str("player", p.Name).Msg("reconnect window expired")
	if empty {
		e.teardownRoom(roomCode)
	}
}

// Reconnect restores a disconnected player's session: flags them connected,
// cancels pending grace timers, and replays current room state plus the
// canvas.
func (e *Engine) Reconnect(roomCode, playerID string) (string, error) {
	roomCode = strings.ToUpper(strings.TrimSpace(roomCode))
	room := e.reg.Get(roomCode)
	if room == nil {
		return "", ErrRoomNotFound
	}

	room.mu.Lock()
	p := room.Players[playerID]
	if p == nil {
		room.mu.Unlock()
		return "", ErrReconnectFailed
	}
	p.IsConnected = true
	room.stopReconnectTimer(playerID)
	if playerID == room.Round.DrawerID {
		room.Round.drawerGraceTimer = stopTimer(room.Round.drawerGraceTimer)
	}
	snap := room.snapshot(playerID)
	strokes := make([]Stroke, len(room.Round.Strokes))
	copy(strokes, room.Round.Strokes)
	rejoined := p.snapshot()
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Str("player", rejoined.Name).Msg("player reconnected")
	e.notify.ToPlayer(playerID, EventRoomJoined, RoomJoinedData{Room: snap})
	if len(strokes) > 0 {
		e.notify.ToPlayer(playerID, EventDrawReplay, DrawReplayData{Strokes: strokes})
	}
	e.notify.ToRoomExcept(roomCode, playerID, EventPlayerJoined, PlayerJoinedData{Player: rejoined})
	return roomCode, nil
}
