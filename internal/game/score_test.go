package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		guess   string
		target  string
		verdict string
	}{
		{"exact match all hits", "APPLE", "APPLE", "HHHHH"},
		{"no letters shared", "CRANE", "MIDST", "MMMMM"},
		{"single present", "CRANE", "BLOCK", "PMMMM"},
		{"hit and present mix", "ALARM", "LLAMA", "PHHMP"},
		{"duplicate guess letter target has once", "LLAMA", "ALARM", "MHHPP"},
		{"duplicate letters in both", "ABBEY", "EBBAA", "PHHPM"},
		{"extra duplicates marked miss", "GEESE", "THOSE", "MMMHH"},
		{"hit consumes target occurrence", "EERIE", "QUEUE", "PMMMH"},
		{"three letter word", "CAT", "CAT", "HHH"},
		{"ten letter word", "BLACKSMITH", "BLACKSMITH", "HHHHHHHHHH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.guess, tt.target)
			assert.Equal(t, tt.verdict, got.String())
		})
	}
}

// A letter guessed twice when the target has it once must yield exactly one
// non-miss mark, never two.
func TestScore_DuplicateBudget(t *testing.T) {
	v := Score("LLAMA", "ALARM")

	nonMissL := 0
	for i, m := range v {
		if "LLAMA"[i] == 'L' && m != MarkMiss {
			nonMissL++
		}
	}
	assert.Equal(t, 1, nonMissL, "target ALARM has one L")

	// Both A positions in LLAMA score: ALARM has two As, one consumed by the
	// hit at index 2.
	nonMissA := 0
	for i, m := range v {
		if "LLAMA"[i] == 'A' && m != MarkMiss {
			nonMissA++
		}
	}
	assert.Equal(t, 2, nonMissA)
}

func TestScore_Deterministic(t *testing.T) {
	first := Score("ABBEY", "EBBAA")
	second := Score("ABBEY", "EBBAA")
	assert.Equal(t, first, second)
}

func TestVerdict_AllHit(t *testing.T) {
	assert.True(t, Score("HOUSE", "HOUSE").AllHit())
	assert.False(t, Score("HORSE", "HOUSE").AllHit())
	assert.False(t, Verdict{}.AllHit(), "empty verdict is not a win")
}

func TestParseVerdict_RoundTrip(t *testing.T) {
	v := Score("LLAMA", "ALARM")
	parsed := ParseVerdict(v.String())
	require.Equal(t, v, parsed)
}

func TestParseVerdict_UnknownRunes(t *testing.T) {
	v := ParseVerdict("HXP?")
	assert.Equal(t, Verdict{MarkHit, MarkMiss, MarkPresent, MarkMiss}, v)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "CRANE", Normalize("  crane "))
	assert.Equal(t, "PIZZA", Normalize("Pizza"))
}

func TestValidateWord(t *testing.T) {
	tests := []struct {
		name string
		word string
		err  error
	}{
		{"valid short", "CAT", nil},
		{"valid long", "ELEPHANTSS", nil},
		{"too short", "AT", ErrWordLength},
		{"too long", "ABCDEFGHIJK", ErrWordLength},
		{"digits", "PIZZ4", ErrWordCharset},
		{"space inside", "PI ZA", ErrWordCharset},
		{"empty", "", ErrWordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWord(tt.word)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestIsAlpha(t *testing.T) {
	assert.True(t, IsAlpha("WORD"))
	assert.False(t, IsAlpha("word"), "lowercase is not normalized input")
	assert.False(t, IsAlpha("WOR1"))
	assert.False(t, IsAlpha(""))
}
