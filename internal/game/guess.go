package game

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GuessResult classifies a guess against the secret word.
type GuessResult int

const (
	GuessWrong GuessResult = iota
	GuessClose
	GuessCorrect
)

const (
	closeSimilarityFloor = 0.6
	closeLengthDelta     = 2
)

// accentFolder strips combining marks so "café" and "cafe" compare equal.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalises a guess or word for comparison: lowercase, accents
// folded, everything but [a-z0-9] and spaces dropped, whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Classify compares a guess to the word. Correct means the normalized forms
// match exactly. Close means a near miss: edit distance within the
// difficulty's length-scaled tolerance, at least 60% similar, and no more
// than 2 runes longer or shorter than the word.
func Classify(guess, word string, cfg DifficultyConfig) GuessResult {
	g := Normalize(guess)
	w := Normalize(word)
	if w == "" || g == "" {
		return GuessWrong
	}
	if g == w {
		return GuessCorrect
	}

	gl := len([]rune(g))
	wl := len([]rune(w))
	delta := gl - wl
	if delta < 0 {
		delta = -delta
	}
	if delta > closeLengthDelta {
		return GuessWrong
	}

	tolerance := int(float64(wl) * cfg.FuzzyFactor)
	if tolerance < 1 {
		tolerance = 1
	}
	d := levenshtein.ComputeDistance(g, w)
	if d > tolerance {
		return GuessWrong
	}

	maxLen := gl
	if wl > maxLen {
		maxLen = wl
	}
	if 1-float64(d)/float64(maxLen) < closeSimilarityFloor {
		return GuessWrong
	}
	return GuessClose
}

// SubmitGuess routes one chat message: drawers and already-correct guessers
// chat in restricted channels, everyone else's text is classified against the
// word. A correct guess scores, broadcasts, and may end the round early.
func (e *Engine) SubmitGuess(roomCode, playerID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > MaxChatLength {
		text = string(runes[:MaxChatLength])
	}

	room := e.reg.Get(roomCode)
	if room == nil {
		return
	}

	room.mu.Lock()
	p := room.Players[playerID]
	if p == nil || !p.IsConnected {
		room.mu.Unlock()
		return
	}

	// Drawer chat is flagged so clients can hide it from active guessers.
	if room.Status == StatusDrawing && playerID == room.Round.DrawerID {
		msg := ChatMessageData{Name: p.Name, Message: text, IsDrawer: true}
		room.mu.Unlock()
		e.notify.ToRoom(roomCode, EventChatMessage, msg)
		return
	}

	if room.Status != StatusDrawing || room.Round.Word == "" {
		msg := ChatMessageData{Name: p.Name, Message: text}
		room.mu.Unlock()
		e.notify.ToRoom(roomCode, EventChatMessage, msg)
		return
	}

	// Players who already guessed can only talk to each other and the
	// drawer, so the word stays secret.
	if p.HasGuessedCorrectly {
		drawerID := room.Round.DrawerID
		msg := ChatMessageData{Name: p.Name, Message: text}
		room.mu.Unlock()
		e.notify.ToPlayer(playerID, EventChatMessage, msg)
		if drawerID != "" && drawerID != playerID {
			e.notify.ToPlayer(drawerID, EventChatMessage, msg)
		}
		return
	}

	if !p.guessLimiter.Allow() {
		room.mu.Unlock()
		return
	}

	switch Classify(text, room.Round.Word, room.Difficulty.Config()) {
	case GuessCorrect:
		room.Round.CorrectGuessCount++
		p.HasGuessedCorrectly = true
		p.GuessOrder = room.Round.CorrectGuessCount
		earned := GuesserScore(room.timeLeft(), p.GuessOrder)
		p.Score += earned

		data := CorrectGuessData{
			PlayerID:    p.ID,
			PlayerName:  p.Name,
			GuessOrder:  p.GuessOrder,
			ScoreEarned: earned,
			Leaderboard: Leaderboard(room.Players),
		}
		done := room.allGuessersDone()
		if done {
			room.Round.timer.Cancel()
		}
		room.mu.Unlock()

		e.notify.ToRoom(roomCode, EventCorrectGuess, data)
		e.notify.ToRoom(roomCode, EventChatMessage, systemChat(p.Name+" guessed the word!"))
		e.log.Info().Str("room", roomCode).Str("player", p.Name).Int("order", data.GuessOrder).Msg("correct guess")
		if done {
			e.endRound(roomCode)
		}
	case GuessClose:
		room.mu.Unlock()
		e.notify.ToPlayer(playerID, EventGuessClose, GuessCloseData{Guess: text})
	default:
		msg := ChatMessageData{Name: p.Name, Message: text}
		room.mu.Unlock()
		e.notify.ToRoom(roomCode, EventChatMessage, msg)
	}
}
