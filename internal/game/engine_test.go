package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier records every event so tests can assert on the outbound
// stream without a websocket.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Scope    string // "room", "except" or "player"
	RoomCode string
	PlayerID string
	Event    string
	Data     any
}

func (f *fakeNotifier) ToRoom(roomCode, event string, data any) {
	f.record(recordedEvent{Scope: "room", RoomCode: roomCode, Event: event, Data: data})
}

func (f *fakeNotifier) ToRoomExcept(roomCode, exceptID, event string, data any) {
	f.record(recordedEvent{Scope: "except", RoomCode: roomCode, PlayerID: exceptID, Event: event, Data: data})
}

func (f *fakeNotifier) ToPlayer(playerID, event string, data any) {
	f.record(recordedEvent{Scope: "player", PlayerID: playerID, Event: event, Data: data})
}

func (f *fakeNotifier) record(ev recordedEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeNotifier) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) last(event string) (recordedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Event == event {
			return f.events[i], true
		}
	}
	return recordedEvent{}, false
}

func testConfig() Config {
	return Config{
		TotalRounds:        10,
		RoundDuration:      60 * time.Second,
		TickInterval:       10 * time.Millisecond,
		WordPickTimeout:    60 * time.Millisecond,
		RoundEndPause:      20 * time.Millisecond,
		GameStartCountdown: 10 * time.Millisecond,
		DrawerGraceWindow:  30 * time.Millisecond,
		DisconnectGrace:    40 * time.Millisecond,
		RoomRetention:      time.Minute,
		GuessInterval:      time.Millisecond,
		MaxPlayers:         MaxPlayersPerRoom,
	}
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeNotifier) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	notify := &fakeNotifier{}
	e := NewEngine(cfg, NewRegistry(), NewWordBank(), notify, zerolog.Nop())
	return e, notify
}

// setupRoom creates a room with a host and n-1 extra players, returning the
// room code.
func setupRoom(t *testing.T, e *Engine, n int) string {
	t.Helper()
	code, err := e.CreateRoom("p1", "host", "easy")
	require.NoError(t, err)
	for i := 2; i <= n; i++ {
		id := "p" + string(rune('0'+i))
		_, err := e.JoinRoom(id, code, "player"+string(rune('0'+i)))
		require.NoError(t, err)
	}
	return code
}

func waitForStatus(t *testing.T, e *Engine, code string, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		room := e.reg.Get(code)
		if room == nil {
			return false
		}
		room.mu.Lock()
		defer room.mu.Unlock()
		return room.Status == want
	}, 2*time.Second, 5*time.Millisecond, "room never reached %s", want)
}

func currentDrawer(e *Engine, code string) string {
	room := e.reg.Get(code)
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.Round.DrawerID
}

func TestFullGameFlow(t *testing.T) {
	e, notify := newTestEngine(t, nil)
	code := setupRoom(t, e, 3)

	// Only the host can start.
	err := e.StartGame(code, "p2")
	require.ErrorIs(t, err, ErrNotHost)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)

	ev, ok := notify.last(EventRoundNew)
	require.True(t, ok)
	round := ev.Data.(RoundNewData)
	assert.Equal(t, 1, round.Round)
	assert.Equal(t, 10, round.Total)

	drawer := round.DrawerID
	choicesEv, ok := notify.last(EventWordChoices)
	require.True(t, ok)
	assert.Equal(t, drawer, choicesEv.PlayerID)
	choices := choicesEv.Data.(WordChoicesData).Words
	require.Len(t, choices, 3)

	// Guessers cannot pick the word, and the drawer cannot pick an
	// arbitrary one.
	guesser := "p2"
	if drawer == "p2" {
		guesser = "p1"
	}
	require.ErrorIs(t, e.SelectWord(code, guesser, choices[0]), ErrNotYourTurn)
	require.ErrorIs(t, e.SelectWord(code, drawer, "notoffered"), ErrInvalidWord)

	require.NoError(t, e.SelectWord(code, drawer, choices[0]))
	// Selecting again is a harmless no-op.
	require.NoError(t, e.SelectWord(code, drawer, choices[0]))

	locked, ok := notify.last(EventWordLocked)
	require.True(t, ok)
	assert.Equal(t, BuildMask(choices[0]), locked.Data.(WordLockedData).HintMask)
	revealed, ok := notify.last(EventWordRevealed)
	require.True(t, ok)
	assert.Equal(t, drawer, revealed.PlayerID)
	assert.Equal(t, choices[0], revealed.Data.(WordRevealedData).Word)

	// Both guessers find the word; the round ends early.
	word := choices[0]
	others := []string{}
	for _, id := range []string{"p1", "p2", "p3"} {
		if id != drawer {
			others = append(others, id)
		}
	}
	e.SubmitGuess(code, others[0], word)

	correct, ok := notify.last(EventCorrectGuess)
	require.True(t, ok)
	first := correct.Data.(CorrectGuessData)
	assert.Equal(t, others[0], first.PlayerID)
	assert.Equal(t, 1, first.GuessOrder)
	assert.Equal(t, 1500, first.ScoreEarned)

	e.SubmitGuess(code, others[1], word)
	correct, ok = notify.last(EventCorrectGuess)
	require.True(t, ok)
	second := correct.Data.(CorrectGuessData)
	assert.Equal(t, 2, second.GuessOrder)
	assert.Equal(t, 1400, second.ScoreEarned)

	endEv, ok := notify.last(EventRoundEnd)
	require.True(t, ok)
	end := endEv.Data.(RoundEndData)
	assert.Equal(t, word, end.Word)
	assert.Equal(t, DrawerBonus(2), end.DrawerBonus)

	// After the pause the next round starts with a different drawer.
	require.Eventually(t, func() bool {
		ev, ok := notify.last(EventRoundNew)
		return ok && ev.Data.(RoundNewData).Round == 2
	}, 2*time.Second, 5*time.Millisecond)

	room := e.reg.Get(code)
	room.mu.Lock()
	assert.Len(t, room.RoundHistory, 1)
	assert.Equal(t, word, room.RoundHistory[0].Word)
	room.mu.Unlock()
}

func TestRoundEndsOnlyOnce(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.RoundEndPause = time.Hour // keep the room parked in roundEnd
	})
	code := setupRoom(t, e, 2)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	choices, _ := notify.last(EventWordChoices)
	require.NoError(t, e.SelectWord(code, drawer, choices.Data.(WordChoicesData).Words[0]))

	e.endRound(code)
	e.endRound(code)

	assert.Equal(t, 1, notify.count(EventRoundEnd))
	room := e.reg.Get(code)
	room.mu.Lock()
	assert.Len(t, room.RoundHistory, 1)
	room.mu.Unlock()
}

func TestWordAutoPickedAfterTimeout(t *testing.T) {
	e, notify := newTestEngine(t, nil)
	code := setupRoom(t, e, 2)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)

	// The drawer never chooses; the first offer is locked automatically.
	require.Eventually(t, func() bool {
		_, ok := notify.last(EventWordLocked)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	choices, _ := notify.last(EventWordChoices)
	revealed, _ := notify.last(EventWordRevealed)
	assert.Equal(t, choices.Data.(WordChoicesData).Words[0], revealed.Data.(WordRevealedData).Word)
}

func TestGuessRateLimit(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.GuessInterval = time.Hour // one guess only
	})
	code := setupRoom(t, e, 2)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	guesser := "p2"
	if drawer == "p2" {
		guesser = "p1"
	}
	choices, _ := notify.last(EventWordChoices)
	word := choices.Data.(WordChoicesData).Words[0]
	require.NoError(t, e.SelectWord(code, drawer, word))

	e.SubmitGuess(code, guesser, "wrong answer")
	e.SubmitGuess(code, guesser, word) // dropped by the limiter

	assert.Equal(t, 0, notify.count(EventCorrectGuess))
	assert.Equal(t, 1, notify.count(EventChatMessage))
}

func TestDrawerDisconnectSkipsRound(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.RoundEndPause = time.Hour
	})
	code := setupRoom(t, e, 3)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	choices, _ := notify.last(EventWordChoices)
	require.NoError(t, e.SelectWord(code, drawer, choices.Data.(WordChoicesData).Words[0]))

	e.HandleDisconnect(code, drawer)

	// Grace window lapses without a reconnect; the round is skipped.
	waitForStatus(t, e, code, StatusRoundEnd)
	assert.Equal(t, 1, notify.count(EventRoundEnd))
}

func TestDrawerReconnectWithinGraceContinuesRound(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.DrawerGraceWindow = time.Hour
	})
	code := setupRoom(t, e, 3)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	choices, _ := notify.last(EventWordChoices)
	require.NoError(t, e.SelectWord(code, drawer, choices.Data.(WordChoicesData).Words[0]))

	e.HandleDisconnect(code, drawer)
	_, err := e.Reconnect(code, drawer)
	require.NoError(t, err)

	room := e.reg.Get(code)
	room.mu.Lock()
	assert.Equal(t, StatusDrawing, room.Status)
	assert.True(t, room.Players[drawer].IsConnected)
	room.mu.Unlock()
	assert.Equal(t, 0, notify.count(EventRoundEnd))
}

func TestJoinValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	code := setupRoom(t, e, 2)

	t.Run("bad name", func(t *testing.T) {
		_, err := e.JoinRoom("px", code, "   ")
		require.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := e.JoinRoom("px", "NOPE42", "pat")
		require.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("full room", func(t *testing.T) {
		for i := 3; i <= MaxPlayersPerRoom; i++ {
			_, err := e.JoinRoom("p"+string(rune('0'+i)), code, "pat")
			require.NoError(t, err)
		}
		_, err := e.JoinRoom("p9", code, "pat")
		require.ErrorIs(t, err, ErrRoomFull)
	})

	t.Run("game in progress", func(t *testing.T) {
		e2, _ := newTestEngine(t, nil)
		code2 := setupRoom(t, e2, 2)
		require.NoError(t, e2.StartGame(code2, "p1"))
		waitForStatus(t, e2, code2, StatusDrawing)
		_, err := e2.JoinRoom("late", code2, "pat")
		require.ErrorIs(t, err, ErrGameInProgress)
	})
}

func TestStartGameValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	code, err := e.CreateRoom("p1", "host", "medium")
	require.NoError(t, err)

	require.ErrorIs(t, e.StartGame(code, "p1"), ErrNotEnoughPlayers)
	require.ErrorIs(t, e.StartGame("NOPE42", "p1"), ErrRoomNotFound)
}

func TestStrokeBufferAndPermissions(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.WordPickTimeout = time.Hour
	})
	code := setupRoom(t, e, 2)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	guesser := "p2"
	if drawer == "p2" {
		guesser = "p1"
	}
	choices, _ := notify.last(EventWordChoices)
	require.NoError(t, e.SelectWord(code, drawer, choices.Data.(WordChoicesData).Words[0]))

	// Guessers cannot draw.
	e.AddStroke(code, guesser, Stroke{Type: "start", X: 1, Y: 2})
	room := e.reg.Get(code)
	room.mu.Lock()
	assert.Empty(t, room.Round.Strokes)
	room.mu.Unlock()

	e.AddStroke(code, drawer, Stroke{Type: "start", X: 1, Y: 2, Size: 999})
	room.mu.Lock()
	require.Len(t, room.Round.Strokes, 1)
	assert.Equal(t, float64(maxStrokeSize), room.Round.Strokes[0].Size)
	assert.Equal(t, defaultStrokeColor, room.Round.Strokes[0].Color)
	room.mu.Unlock()

	relay, ok := notify.last(EventDrawStroke)
	require.True(t, ok)
	assert.Equal(t, "except", relay.Scope)
	assert.Equal(t, drawer, relay.PlayerID)

	e.ClearCanvas(code, drawer)
	room.mu.Lock()
	assert.Empty(t, room.Round.Strokes)
	room.mu.Unlock()
	assert.Equal(t, 1, notify.count(EventDrawClear))
}

func TestDisconnectedPlayerCannotGuess(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.DisconnectGrace = time.Hour
	})
	code := setupRoom(t, e, 3)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	choices, _ := notify.last(EventWordChoices)
	word := choices.Data.(WordChoicesData).Words[0]
	require.NoError(t, e.SelectWord(code, drawer, word))

	guesser := "p2"
	if drawer == "p2" {
		guesser = "p3"
	}
	e.HandleDisconnect(code, guesser)

	// The seat is held for the grace window, but the guess is ignored.
	e.SubmitGuess(code, guesser, word)

	assert.Equal(t, 0, notify.count(EventCorrectGuess))
	room := e.reg.Get(code)
	room.mu.Lock()
	assert.Zero(t, room.Players[guesser].Score)
	assert.False(t, room.Players[guesser].HasGuessedCorrectly)
	room.mu.Unlock()
}

func TestRoundEndScoresAreRunningTotals(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.RoundEndPause = time.Hour
	})
	code := setupRoom(t, e, 2)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)
	guesser := "p2"
	if drawer == "p2" {
		guesser = "p1"
	}
	choices, _ := notify.last(EventWordChoices)
	word := choices.Data.(WordChoicesData).Words[0]
	require.NoError(t, e.SelectWord(code, drawer, word))

	e.SubmitGuess(code, guesser, word)

	endEv, ok := notify.last(EventRoundEnd)
	require.True(t, ok)
	end := endEv.Data.(RoundEndData)

	// Every player appears with their running total, bonus included.
	require.Len(t, end.Scores, 2)
	totals := map[string]int{}
	for _, s := range end.Scores {
		totals[s.PlayerID] = s.TotalScore
	}
	assert.Equal(t, 1500, totals[guesser])
	assert.Equal(t, DrawerBonus(1), totals[drawer])
}

func TestDrawerLeaveBeforeWordLockSkipsRound(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.WordPickTimeout = time.Hour
		c.RoundEndPause = time.Hour
	})
	code := setupRoom(t, e, 3)

	require.NoError(t, e.StartGame(code, "p1"))
	waitForStatus(t, e, code, StatusDrawing)
	drawer := currentDrawer(e, code)

	// The drawer walks out before choosing a word.
	e.Leave(code, drawer)

	waitForStatus(t, e, code, StatusRoundEnd)
	msg, ok := notify.last(EventChatMessage)
	require.True(t, ok)
	chat := msg.Data.(ChatMessageData)
	assert.True(t, chat.IsSystem)
	assert.Contains(t, chat.Message, `"???"`)
}

func TestVoluntaryLeaveRemovesPlayer(t *testing.T) {
	e, notify := newTestEngine(t, nil)
	code := setupRoom(t, e, 3)

	e.Leave(code, "p3")

	room := e.reg.Get(code)
	room.mu.Lock()
	assert.NotContains(t, room.Players, "p3")
	room.mu.Unlock()
	assert.Equal(t, 1, notify.count(EventPlayerLeft))

	// Last player leaving tears the room down.
	e.Leave(code, "p2")
	e.Leave(code, "p1")
	assert.Nil(t, e.reg.Get(code))
}

func TestDisconnectGraceExpiryRemovesPlayer(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	code := setupRoom(t, e, 3)

	e.HandleDisconnect(code, "p3")

	room := e.reg.Get(code)
	room.mu.Lock()
	require.Contains(t, room.Players, "p3")
	assert.False(t, room.Players["p3"].IsConnected)
	room.mu.Unlock()

	require.Eventually(t, func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		_, present := room.Players["p3"]
		return !present
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconnectRestoresState(t *testing.T) {
	e, notify := newTestEngine(t, func(c *Config) {
		c.DisconnectGrace = time.Hour
	})
	code := setupRoom(t, e, 2)

	e.HandleDisconnect(code, "p2")
	got, err := e.Reconnect(code, "p2")
	require.NoError(t, err)
	assert.Equal(t, code, got)

	joined, ok := notify.last(EventRoomJoined)
	require.True(t, ok)
	assert.Equal(t, "p2", joined.PlayerID)

	_, err = e.Reconnect(code, "ghost")
	require.ErrorIs(t, err, ErrReconnectFailed)
}
