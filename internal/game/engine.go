package game

import (
	"math/rand"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Config carries every tunable duration so tests can run the full game loop
// in milliseconds.
type Config struct {
	TotalRounds        int
	RoundDuration      time.Duration
	TickInterval       time.Duration
	WordPickTimeout    time.Duration
	RoundEndPause      time.Duration
	GameStartCountdown time.Duration
	DrawerGraceWindow  time.Duration
	DisconnectGrace    time.Duration
	RoomRetention      time.Duration
	GuessInterval      time.Duration
	MaxPlayers         int
}

func DefaultConfig() Config {
	return Config{
		TotalRounds:        10,
		RoundDuration:      60 * time.Second,
		TickInterval:       time.Second,
		WordPickTimeout:    15 * time.Second,
		RoundEndPause:      5 * time.Second,
		GameStartCountdown: 3 * time.Second,
		DrawerGraceWindow:  10 * time.Second,
		DisconnectGrace:    30 * time.Second,
		RoomRetention:      10 * time.Minute,
		GuessInterval:      300 * time.Millisecond,
		MaxPlayers:         MaxPlayersPerRoom,
	}
}

const wordChoiceCount = 3

// Engine runs every room's state machine. All scheduled callbacks re-fetch
// the room from the registry and no-op when it is gone, so a torn-down room
// never resurrects.
type Engine struct {
	cfg    Config
	reg    *Registry
	words  *WordBank
	notify Notifier
	log    zerolog.Logger
}

func NewEngine(cfg Config, reg *Registry, words *WordBank, notify Notifier, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, reg: reg, words: words, notify: notify, log: log}
}

// StartGame begins (or restarts after gameOver) a game. Host only, needs at
// least two connected players.
func (e *Engine) StartGame(roomCode, playerID string) error {
	room := e.reg.Get(roomCode)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if playerID != room.HostID {
		room.mu.Unlock()
		return ErrNotHost
	}
	if room.Status != StatusWaiting && room.Status != StatusGameOver {
		room.mu.Unlock()
		return ErrGameInProgress
	}
	if room.connectedCount() < MinPlayersToStart {
		room.mu.Unlock()
		return ErrNotEnoughPlayers
	}

	// A rematch cancels the pending room deletion.
	room.deleteTimer = stopTimer(room.deleteTimer)
	room.Status = StatusStarting
	room.RoundHistory = nil
	room.resetRoundState()
	room.Round.Number = 0
	for _, p := range room.Players {
		p.Score = 0
	}

	order := make([]string, 0, len(room.Players))
	for id, p := range room.Players {
		if p.IsConnected {
			order = append(order, id)
		}
	}
	slices.Sort(order)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	room.Round.DrawerOrder = order

	countdown := int(e.cfg.GameStartCountdown / time.Second)
	room.startTimer = stopTimer(room.startTimer)
	room.startTimer = time.AfterFunc(e.cfg.GameStartCountdown, func() { e.advanceRound(roomCode) })
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Int("players", len(order)).Msg("game starting")
	e.notify.ToRoom(roomCode, EventGameStarting, GameStartingData{Countdown: countdown})
	return nil
}

// advanceRound moves the room into the next round, or ends the game when all
// rounds are played or no connected drawer remains.
func (e *Engine) advanceRound(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.Status != StatusStarting && room.Status != StatusRoundEnd {
		room.mu.Unlock()
		return
	}

	room.Round.Number++
	if room.Round.Number > room.TotalRounds {
		data := e.endGameLocked(room)
		room.mu.Unlock()
		e.notify.ToRoom(roomCode, EventGameOver, data)
		return
	}

	room.resetRoundState()

	drawer := e.pickDrawerLocked(room)
	if drawer == nil {
		data := e.endGameLocked(room)
		room.mu.Unlock()
		e.notify.ToRoom(roomCode, EventGameOver, data)
		return
	}

	room.Status = StatusDrawing
	room.Round.DrawerID = drawer.ID
	room.Round.WordChoices = e.words.NextChoices(room.Difficulty, wordChoiceCount)
	choices := slices.Clone(room.Round.WordChoices)

	room.Round.wordPickTimer = time.AfterFunc(e.cfg.WordPickTimeout, func() { e.autoPickWord(roomCode) })

	data := RoundNewData{
		Round:      room.Round.Number,
		Total:      room.TotalRounds,
		DrawerID:   drawer.ID,
		DrawerName: drawer.Name,
	}
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Int("round", data.Round).Str("drawer", data.DrawerName).Msg("round starting")
	e.notify.ToRoom(roomCode, EventRoundNew, data)
	e.notify.ToPlayer(drawer.ID, EventWordChoices, WordChoicesData{Words: choices})
}

// pickDrawerLocked walks the fixed drawer order cyclically from this round's
// slot, skipping players who left or disconnected. Caller holds room.mu.
func (e *Engine) pickDrawerLocked(room *Room) *Player {
	order := room.Round.DrawerOrder
	if len(order) == 0 {
		return nil
	}
	start := (room.Round.Number - 1) % len(order)
	for i := 0; i < len(order); i++ {
		id := order[(start+i)%len(order)]
		if p := room.Players[id]; p != nil && p.IsConnected {
			return p
		}
	}
	return nil
}

// autoPickWord locks the first offered word when the drawer dawdles past the
// selection window.
func (e *Engine) autoPickWord(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.Status != StatusDrawing || room.Round.Word != "" || len(room.Round.WordChoices) == 0 {
		room.mu.Unlock()
		return
	}
	word := room.Round.WordChoices[0]
	room.mu.Unlock()
	e.lockWord(roomCode, word)
}

// SelectWord is the drawer's explicit choice from the offered words.
func (e *Engine) SelectWord(roomCode, playerID, word string) error {
	room := e.reg.Get(roomCode)
	if room == nil {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	if room.Status != StatusDrawing || playerID != room.Round.DrawerID {
		room.mu.Unlock()
		return ErrNotYourTurn
	}
	if room.Round.Word != "" {
		// Duplicate selection after the auto-pick already fired.
		room.mu.Unlock()
		return nil
	}
	if !slices.Contains(room.Round.WordChoices, word) {
		room.mu.Unlock()
		return ErrInvalidWord
	}
	room.mu.Unlock()
	e.lockWord(roomCode, word)
	return nil
}

// lockWord commits the secret word and starts the drawing countdown.
func (e *Engine) lockWord(roomCode, word string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.Status != StatusDrawing || room.Round.Word != "" {
		room.mu.Unlock()
		return
	}
	room.Round.wordPickTimer = stopTimer(room.Round.wordPickTimer)
	room.Round.Word = word
	room.Round.HintMask = BuildMask(word)
	room.Round.WordChoices = nil
	room.Round.StartTime = time.Now()
	room.Round.EndTime = room.Round.StartTime.Add(e.cfg.RoundDuration)

	checkpoints := room.Difficulty.Config().HintCheckpoints
	room.setRoundTimer(NewRoundTimer(
		e.cfg.RoundDuration,
		e.cfg.TickInterval,
		checkpoints,
		func(left int) { e.handleTick(roomCode, left) },
		func(int) { e.revealHint(roomCode) },
		func() { e.endRound(roomCode) },
	))

	drawerID := room.Round.DrawerID
	data := WordLockedData{
		HintMask: room.Round.HintMask,
		TimeLeft: int(e.cfg.RoundDuration / time.Second),
	}
	room.mu.Unlock()

	e.log.Debug().Str("room", roomCode).Msg("word locked")
	e.notify.ToRoom(roomCode, EventWordLocked, data)
	e.notify.ToPlayer(drawerID, EventWordRevealed, WordRevealedData{Word: word})
}

func (e *Engine) handleTick(roomCode string, timeLeft int) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	drawing := room.Status == StatusDrawing
	room.mu.Unlock()
	if drawing {
		e.notify.ToRoom(roomCode, EventTick, TickData{TimeLeft: timeLeft})
	}
}

func (e *Engine) revealHint(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.Status != StatusDrawing || room.Round.Word == "" {
		room.mu.Unlock()
		return
	}
	room.Round.HintMask = e.words.RevealOne(room.Round.Word, room.Round.HintMask)
	mask := room.Round.HintMask
	room.mu.Unlock()
	e.notify.ToRoom(roomCode, EventHintReveal, HintRevealData{HintMask: mask})
}

// endRound closes the drawing phase: drawer bonus, per-round scores, history
// entry, and the pause before the next round. Idempotent once the room has
// left StatusDrawing.
func (e *Engine) endRound(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.Status != StatusDrawing {
		room.mu.Unlock()
		return
	}
	room.Status = StatusRoundEnd
	room.Round.timer.Cancel()
	room.Round.timer = nil
	room.Round.wordPickTimer = stopTimer(room.Round.wordPickTimer)
	room.Round.drawerGraceTimer = stopTimer(room.Round.drawerGraceTimer)

	drawerName := "Unknown"
	bonus := DrawerBonus(room.Round.CorrectGuessCount)
	if drawer := room.Players[room.Round.DrawerID]; drawer != nil {
		drawerName = drawer.Name
		drawer.Score += bonus
	}
	scores := make([]PlayerScore, 0, len(room.Players))
	for _, p := range room.Players {
		scores = append(scores, PlayerScore{PlayerID: p.ID, Name: p.Name, TotalScore: p.Score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Name != scores[j].Name {
			return scores[i].Name < scores[j].Name
		}
		return scores[i].PlayerID < scores[j].PlayerID
	})

	board := Leaderboard(room.Players)
	room.RoundHistory = append(room.RoundHistory, RoundSummary{
		Round:       room.Round.Number,
		Word:        room.Round.Word,
		DrawerName:  drawerName,
		Leaderboard: board,
	})

	data := RoundEndData{
		Word:        room.Round.Word,
		DrawerBonus: bonus,
		Scores:      scores,
		Leaderboard: board,
	}
	room.advanceTimer = stopTimer(room.advanceTimer)
	room.advanceTimer = time.AfterFunc(e.cfg.RoundEndPause, func() { e.advanceRound(roomCode) })
	room.mu.Unlock()

	e.log.Info().Str("room", roomCode).Str("word", data.Word).Int("drawerBonus", bonus).Msg("round over")
	e.notify.ToRoom(roomCode, EventRoundEnd, data)
}

// endGameLocked finalises the game and schedules room deletion after the
// retention window. Caller holds room.mu.
func (e *Engine) endGameLocked(room *Room) GameOverData {
	room.Status = StatusGameOver
	room.Round.timer.Cancel()
	room.Round.timer = nil
	room.Round.wordPickTimer = stopTimer(room.Round.wordPickTimer)
	room.Round.drawerGraceTimer = stopTimer(room.Round.drawerGraceTimer)
	room.startTimer = stopTimer(room.startTimer)
	room.advanceTimer = stopTimer(room.advanceTimer)

	roomCode := room.Code
	room.deleteTimer = stopTimer(room.deleteTimer)
	room.deleteTimer = time.AfterFunc(e.cfg.RoomRetention, func() { e.expireRetention(roomCode) })

	e.log.Info().Str("room", roomCode).Msg("game over")
	return GameOverData{
		FinalLeaderboard: Leaderboard(room.Players),
		RoundHistory:     slices.Clone(room.RoundHistory),
	}
}

// expireRetention deletes a finished room that nobody restarted.
func (e *Engine) expireRetention(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	expired := room.Status == StatusGameOver
	room.mu.Unlock()
	if expired {
		e.teardownRoom(roomCode)
	}
}

// teardownRoom stops every scheduled callback and removes the room.
func (e *Engine) teardownRoom(roomCode string) {
	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}
	room.mu.Lock()
	room.stopAllTimers()
	room.mu.Unlock()
	e.reg.Delete(roomCode)
	e.log.Info().Str("room", roomCode).Msg("room deleted")
}
