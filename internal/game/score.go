package game

import "sort"

const (
	// RoundDurationSeconds is the nominal round length the time bonus is
	// scaled against.
	RoundDurationSeconds = 60

	baseScore           = 1000
	timeBonusMax        = 500
	orderPenaltyStep    = 100
	scoreFloor          = 100
	drawerBonusPerGuess = 75
)

// GuesserScore awards points for a correct guess: a base, a bonus linear in
// remaining time, and a penalty per earlier correct guesser, floored at 100.
func GuesserScore(timeLeft, guessOrder int) int {
	score := baseScore + timeLeft*timeBonusMax/RoundDurationSeconds - (guessOrder-1)*orderPenaltyStep
	if score < scoreFloor {
		return scoreFloor
	}
	return score
}

// DrawerBonus is the drawer's reward, proportional to how many players
// guessed the word.
func DrawerBonus(correctGuesses int) int {
	return correctGuesses * drawerBonusPerGuess
}

// LeaderboardEntry is one row of the standings.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Leaderboard ranks players by score descending, ties broken by name
// ascending. The sort is stable so repeated calls agree.
func Leaderboard(players map[string]*Player) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries
}
