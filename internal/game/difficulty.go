package game

import "strings"

// Difficulty selects the word pool, the hint cadence and the fuzzy-guess
// tolerance for a room. Fixed at room creation.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyConfig holds the per-difficulty tuning knobs.
type DifficultyConfig struct {
	// HintCheckpoints are seconds-remaining thresholds at which one more
	// letter is revealed, each fired at most once per round.
	HintCheckpoints []int
	// FuzzyFactor scales the accepted edit distance by word length when
	// deciding whether a wrong guess still counts as "close".
	FuzzyFactor float64
}

var difficultyConfigs = map[Difficulty]DifficultyConfig{
	DifficultyEasy:   {HintCheckpoints: []int{40, 20}, FuzzyFactor: 0.35},
	DifficultyMedium: {HintCheckpoints: []int{40}, FuzzyFactor: 0.25},
	DifficultyHard:   {HintCheckpoints: nil, FuzzyFactor: 0.15},
}

// ParseDifficulty maps client input onto a known difficulty, defaulting to
// medium for anything unrecognised.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func (d Difficulty) Config() DifficultyConfig {
	if cfg, ok := difficultyConfigs[d]; ok {
		return cfg
	}
	return difficultyConfigs[DifficultyMedium]
}
