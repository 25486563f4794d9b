package game

import "errors"

// Bounds for hosted words. Auto-generated daily games use the word list's
// fixed length; hosts may pick anything within these bounds.
const (
	MinWordLength = 3
	MaxWordLength = 10
)

// Validation errors for words and guesses.
var (
	// ErrWordLength is returned when a hosted word is outside the 3-10 letter range.
	ErrWordLength = errors.New("word must be 3-10 letters long")
	// ErrWordCharset is returned when a word contains anything but letters A-Z.
	ErrWordCharset = errors.New("word must contain only letters")
)

// IsAlpha reports whether s consists solely of uppercase A-Z letters.
func IsAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

// ValidateWord checks a hosted word candidate. The input must already be
// normalized (see Normalize).
func ValidateWord(word string) error {
	if len(word) < MinWordLength || len(word) > MaxWordLength {
		return ErrWordLength
	}
	if !IsAlpha(word) {
		return ErrWordCharset
	}
	return nil
}
