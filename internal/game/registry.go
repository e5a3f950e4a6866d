package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Room codes avoid 0/O and 1/I ambiguity.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 6
	roomCodeAttempts = 100
)

// Registry owns every in-memory Room aggregate. It is constructed once and
// handed to the engine; there is no ambient global. Lookups and lifecycle go
// through the registry's own lock, per-room mutations happen under the
// room's lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CreateRoom allocates a code and a room containing just the host player.
func (reg *Registry) CreateRoom(hostID, hostName string, difficulty Difficulty, cfg Config) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.newCode()
	if err != nil {
		return nil, err
	}
	room := &Room{
		Code:        code,
		HostID:      hostID,
		Difficulty:  difficulty,
		Status:      StatusWaiting,
		TotalRounds: cfg.TotalRounds,
		Players: map[string]*Player{
			hostID: newPlayer(hostID, hostName, cfg.GuessInterval),
		},
		reconnectTimers: make(map[string]*time.Timer),
		CreatedAt:       time.Now(),
	}
	reg.rooms[code] = room
	return room, nil
}

func (reg *Registry) Get(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[code]
}

func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// caller holds reg.mu
func (reg *Registry) newCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		for i := range buf {
			buf[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		code := string(buf)
		if _, taken := reg.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// PlayerSnapshot is the client-safe projection of a Player.
type PlayerSnapshot struct {
	ID                  string `json:"playerId"`
	Name                string `json:"name"`
	Score               int    `json:"score"`
	IsConnected         bool   `json:"isConnected"`
	HasGuessedCorrectly bool   `json:"hasGuessedCorrectly"`
}

// RoundSnapshot is the client-safe projection of the current round. Word is
// populated only when the viewer is the drawer.
type RoundSnapshot struct {
	Current           int    `json:"current"`
	Total             int    `json:"total"`
	DrawerID          string `json:"drawerId"`
	HintMask          string `json:"hintMask"`
	Word              string `json:"word,omitempty"`
	CorrectGuessCount int    `json:"correctGuessCount"`
	TimeLeft          int    `json:"timeLeft"`
}

// RoomSnapshot is what a joining or reconnecting client receives.
type RoomSnapshot struct {
	RoomCode   string           `json:"roomCode"`
	HostID     string           `json:"hostId"`
	Difficulty Difficulty       `json:"difficulty"`
	Status     Status           `json:"status"`
	Players    []PlayerSnapshot `json:"players"`
	Round      RoundSnapshot    `json:"round"`
}

// Snapshot projects a room for one viewer. The secret word is included only
// for the current drawer.
func (reg *Registry) Snapshot(code, viewerID string) (RoomSnapshot, bool) {
	room := reg.Get(code)
	if room == nil {
		return RoomSnapshot{}, false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.snapshot(viewerID), true
}

func (p *Player) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:                  p.ID,
		Name:                p.Name,
		Score:               p.Score,
		IsConnected:         p.IsConnected,
		HasGuessedCorrectly: p.HasGuessedCorrectly,
	}
}

// caller holds r.mu
func (r *Room) snapshot(viewerID string) RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.snapshot())
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})

	round := RoundSnapshot{
		Current:           r.Round.Number,
		Total:             r.TotalRounds,
		DrawerID:          r.Round.DrawerID,
		HintMask:          r.Round.HintMask,
		CorrectGuessCount: r.Round.CorrectGuessCount,
	}
	if r.Status == StatusDrawing {
		round.TimeLeft = r.timeLeft()
	}
	if viewerID == r.Round.DrawerID {
		round.Word = r.Round.Word
	}

	return RoomSnapshot{
		RoomCode:   r.Code,
		HostID:     r.HostID,
		Difficulty: r.Difficulty,
		Status:     r.Status,
		Players:    players,
		Round:      round,
	}
}
