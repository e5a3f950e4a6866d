package game

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"
)

//go:embed words.csv
var defaultWordData []byte

const maskBlank = "_"

// WordBank hands out word choices per difficulty without short-term
// repetition: words are drawn without replacement until the remaining unused
// pool is too small, at which point the used record is cleared and the full
// pool is reshuffled. Safe for concurrent use.
type WordBank struct {
	mu    sync.Mutex
	rng   *rand.Rand
	pools map[Difficulty][]string
	used  map[Difficulty]map[string]bool
}

// NewWordBank loads the embedded default word list.
func NewWordBank() *WordBank {
	wb, err := NewWordBankFromCSV(bytes.NewReader(defaultWordData))
	if err != nil {
		panic("game: embedded word list is invalid: " + err.Error())
	}
	return wb
}

// NewWordBankFromCSV reads `word,difficulty` records, so deployments can
// swap in their own list. Duplicate words within a difficulty are dropped.
func NewWordBankFromCSV(r io.Reader) (*WordBank, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse word list: %w", err)
	}

	pools := make(map[Difficulty][]string)
	seen := make(map[Difficulty]map[string]bool)
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		word := strings.ToLower(strings.TrimSpace(rec[0]))
		if word == "" {
			continue
		}
		d := ParseDifficulty(rec[1])
		if seen[d] == nil {
			seen[d] = make(map[string]bool)
		}
		if seen[d][word] {
			continue
		}
		seen[d][word] = true
		pools[d] = append(pools[d], word)
	}

	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if len(pools[d]) == 0 {
			return nil, fmt.Errorf("word list has no %s words", d)
		}
	}

	return &WordBank{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		pools: pools,
		used: map[Difficulty]map[string]bool{
			DifficultyEasy:   {},
			DifficultyMedium: {},
			DifficultyHard:   {},
		},
	}, nil
}

// NextChoices returns n distinct words for the difficulty. When fewer than n
// unused words remain the used record is cleared first, so the bank never
// runs dry.
func (wb *WordBank) NextChoices(difficulty Difficulty, n int) []string {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	pool, ok := wb.pools[difficulty]
	if !ok {
		difficulty = DifficultyMedium
		pool = wb.pools[difficulty]
	}
	used := wb.used[difficulty]

	available := make([]string, 0, len(pool))
	for _, w := range pool {
		if !used[w] {
			available = append(available, w)
		}
	}
	if len(available) < n {
		wb.used[difficulty] = make(map[string]bool)
		used = wb.used[difficulty]
		available = append(available[:0], pool...)
	}

	wb.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	if n > len(available) {
		n = len(available)
	}
	choices := make([]string, n)
	copy(choices, available[:n])
	for _, w := range choices {
		used[w] = true
	}
	return choices
}

// BuildMask renders a word as space-joined tokens, one per character: "_"
// for letters, a literal space for spaces. "ok go" becomes "_ _   _ _".
func BuildMask(word string) string {
	runes := []rune(word)
	tokens := make([]string, len(runes))
	for i, r := range runes {
		if r == ' ' {
			tokens[i] = " "
		} else {
			tokens[i] = maskBlank
		}
	}
	return strings.Join(tokens, " ")
}

// RevealOne uncovers one uniformly-random still-hidden letter of the mask.
// Spaces are never revealed; a fully revealed mask is returned unchanged.
func (wb *WordBank) RevealOne(word, mask string) string {
	runes := []rune(word)
	tokens := maskTokens(runes, mask)

	hidden := make([]int, 0, len(runes))
	for i, r := range runes {
		if r != ' ' && tokens[i] == maskBlank {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return mask
	}

	wb.mu.Lock()
	idx := hidden[wb.rng.Intn(len(hidden))]
	wb.mu.Unlock()

	tokens[idx] = string(runes[idx])
	return strings.Join(tokens, " ")
}

// maskTokens splits a display mask back into per-position tokens. Tokens are
// single runes joined by single spaces, so position i lives at mask rune 2*i;
// splitting on spaces would misalign for words that contain spaces.
func maskTokens(word []rune, mask string) []string {
	maskRunes := []rune(mask)
	tokens := make([]string, len(word))
	for i := range word {
		if j := 2 * i; j < len(maskRunes) {
			tokens[i] = string(maskRunes[j])
		} else {
			tokens[i] = maskBlank
		}
	}
	return tokens
}
