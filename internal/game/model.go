package game

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Status is the room lifecycle state machine.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarting Status = "starting"
	StatusDrawing  Status = "drawing"
	StatusRoundEnd Status = "roundEnd"
	StatusGameOver Status = "gameOver"
)

const (
	MaxPlayersPerRoom  = 6
	MinPlayersToStart  = 2
	MaxStrokesPerRound = 5000
	MaxChatLength      = 100
	MaxNameLength      = 24
)

// Player is one participant, keyed by a server-issued session id that
// survives socket reconnects. Owned exclusively by its Room.
type Player struct {
	ID                  string
	Name                string
	Score               int
	IsConnected         bool
	HasGuessedCorrectly bool
	GuessOrder          int // 1-indexed rank among correct guessers, 0 until then
	JoinedAt            time.Time

	guessLimiter *rate.Limiter
}

func newPlayer(id, name string, guessInterval time.Duration) *Player {
	return &Player{
		ID:           id,
		Name:         name,
		IsConnected:  true,
		JoinedAt:     time.Now(),
		guessLimiter: rate.NewLimiter(rate.Every(guessInterval), 1),
	}
}

func (p *Player) resetRound() {
	p.HasGuessedCorrectly = false
	p.GuessOrder = 0
}

// Stroke is one sanitized drawing event, buffered for reconnect replay.
type Stroke struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
}

// RoundSummary is one append-only history entry, kept for the end screen.
type RoundSummary struct {
	Round       int                `json:"round"`
	Word        string             `json:"word"`
	DrawerName  string             `json:"drawerName"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// RoundState is the per-round mutable sub-aggregate of a Room. The timer
// handles are owned here and nowhere else: arming a new one always cancels
// its predecessor.
type RoundState struct {
	Number            int
	DrawerID          string
	DrawerOrder       []string // fixed at game start, walked cyclically
	Word              string   // secret, empty until locked
	HintMask          string
	WordChoices       []string
	CorrectGuessCount int // doubles as the next guessOrder value
	StartTime         time.Time
	EndTime           time.Time
	Strokes           []Stroke

	timer            *RoundTimer
	wordPickTimer    *time.Timer
	drawerGraceTimer *time.Timer
}

// Room is the aggregate for one game. All fields are guarded by mu; helper
// methods below assume the caller holds it.
type Room struct {
	Code         string
	HostID       string
	Difficulty   Difficulty
	Status       Status
	TotalRounds  int
	Players      map[string]*Player
	RoundHistory []RoundSummary
	Round        RoundState
	CreatedAt    time.Time

	startTimer      *time.Timer
	advanceTimer    *time.Timer
	deleteTimer     *time.Timer
	reconnectTimers map[string]*time.Timer

	mu sync.Mutex
}

func (r *Room) addPlayer(id, name string, guessInterval time.Duration) *Player {
	p := newPlayer(id, name, guessInterval)
	r.Players[id] = p
	return p
}

func (r *Room) removePlayer(id string) {
	delete(r.Players, id)
	if t := r.reconnectTimers[id]; t != nil {
		t.Stop()
		delete(r.reconnectTimers, id)
	}
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// resetRoundState clears per-round player flags and round fields while
// preserving scores, history, round number and drawer order.
func (r *Room) resetRoundState() {
	for _, p := range r.Players {
		p.resetRound()
	}
	rs := &r.Round
	rs.DrawerID = ""
	rs.Word = ""
	rs.HintMask = ""
	rs.WordChoices = nil
	rs.CorrectGuessCount = 0
	rs.StartTime = time.Time{}
	rs.EndTime = time.Time{}
	rs.Strokes = nil
	rs.timer.Cancel()
	rs.timer = nil
	rs.wordPickTimer = stopTimer(rs.wordPickTimer)
	rs.drawerGraceTimer = stopTimer(rs.drawerGraceTimer)
}

// setRoundTimer installs the round countdown, superseding any live one.
func (r *Room) setRoundTimer(t *RoundTimer) {
	r.Round.timer.Cancel()
	r.Round.timer = t
}

// allGuessersDone reports whether every connected non-drawer has guessed
// correctly. False when there are no connected non-drawers at all.
func (r *Room) allGuessersDone() bool {
	guessers := 0
	for _, p := range r.Players {
		if !p.IsConnected || p.ID == r.Round.DrawerID {
			continue
		}
		guessers++
		if !p.HasGuessedCorrectly {
			return false
		}
	}
	return guessers > 0
}

func (r *Room) timeLeft() int {
	if r.Round.EndTime.IsZero() {
		return 0
	}
	left := int(math.Round(time.Until(r.Round.EndTime).Seconds()))
	if left < 0 {
		left = 0
	}
	return left
}

func (r *Room) stopReconnectTimer(id string) {
	if t := r.reconnectTimers[id]; t != nil {
		t.Stop()
		delete(r.reconnectTimers, id)
	}
}

// stopAllTimers releases every scheduled callback the room owns. Must be
// called before the room leaves the registry.
func (r *Room) stopAllTimers() {
	r.Round.timer.Cancel()
	r.Round.timer = nil
	r.Round.wordPickTimer = stopTimer(r.Round.wordPickTimer)
	r.Round.drawerGraceTimer = stopTimer(r.Round.drawerGraceTimer)
	r.startTimer = stopTimer(r.startTimer)
	r.advanceTimer = stopTimer(r.advanceTimer)
	r.deleteTimer = stopTimer(r.deleteTimer)
	for id, t := range r.reconnectTimers {
		t.Stop()
		delete(r.reconnectTimers, id)
	}
}

func stopTimer(t *time.Timer) *time.Timer {
	if t != nil {
		t.Stop()
	}
	return nil
}
