// Package words provides the word list for auto-generated games.
// Words come from an optional JSON file (an uppercase string array, same
// shape the bot has always shipped) with a built-in fallback list.
package words

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/schlajo/Grouple-Bot/internal/game"
)

// ErrEmptyList is returned when no usable words survive validation.
var ErrEmptyList = errors.New("word list is empty")

// defaultWords backs the picker when no word file is configured or the file
// cannot be read.
var defaultWords = []string{
	"APPLE", "BRAIN", "CRANE", "DREAM", "FLAME",
	"GRAPE", "HOUSE", "LASER", "MUSIC", "PIANO",
	"QUILT", "RIVER", "STONE", "TIGER", "UNION",
	"VIVID", "WHALE", "YEAST", "ZESTY", "OCEAN",
	"LEMON", "MANGO", "NURSE", "OLIVE", "PEARL",
	"QUEEN", "ROBIN", "SALSA", "TORCH", "ULTRA",
	"VAULT", "WAGON", "AMBER", "BLAZE", "CIDER",
	"DAISY", "EAGLE", "FROST", "GLOBE", "HONEY",
}

// List is an immutable, validated word list with a thread-safe picker.
type List struct {
	words []string

	mu  sync.Mutex
	rng *rand.Rand
}

// Load builds a List from the JSON file at path, or from the built-in list
// when path is empty or unreadable. Entries failing word validation are
// dropped with a warning rather than rejecting the whole file.
func Load(path string, seed int64) (*List, error) {
	raw := defaultWords
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot read word file, using built-in list")
		} else {
			var fromFile []string
			if err := json.Unmarshal(data, &fromFile); err != nil {
				return nil, fmt.Errorf("failed to parse word file %s: %w", path, err)
			}
			raw = fromFile
		}
	}

	valid := make([]string, 0, len(raw))
	for _, w := range raw {
		normalized := game.Normalize(w)
		if err := game.ValidateWord(normalized); err != nil {
			log.Warn().Str("word", w).Err(err).Msg("Dropping invalid word list entry")
			continue
		}
		valid = append(valid, normalized)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyList
	}

	log.Info().Int("count", len(valid)).Msg("Word list loaded")
	return &List{
		words: valid,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

// Pick returns a random word from the list.
func (l *List) Pick() (string, error) {
	if len(l.words) == 0 {
		return "", ErrEmptyList
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.words[l.rng.Intn(len(l.words))], nil
}

// Len reports the number of words available.
func (l *List) Len() int {
	return len(l.words)
}
