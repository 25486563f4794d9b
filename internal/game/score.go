// Package game implements the pure rules of the shared Wordle game:
// guess scoring, word validation and the per-player guess cooldown.
// It holds no state and performs no I/O; the session package orchestrates it.
package game

import "strings"

// Mark is the evaluation result for a single letter of a guess.
type Mark byte

const (
	// MarkHit means the letter is correct and in the correct position.
	MarkHit Mark = 'H'
	// MarkPresent means the letter exists in the word at another position.
	MarkPresent Mark = 'P'
	// MarkMiss means the letter is not in the word at its residual count.
	MarkMiss Mark = 'M'
)

// Verdict is the per-letter outcome of one guess, same length as the word.
type Verdict []Mark

// String renders the verdict as a compact string of H/P/M runes.
// This is the form stored in the database; ParseVerdict reverses it.
func (v Verdict) String() string {
	b := make([]byte, len(v))
	for i, m := range v {
		b[i] = byte(m)
	}
	return string(b)
}

// AllHit reports whether every position was scored as a hit.
func (v Verdict) AllHit() bool {
	for _, m := range v {
		if m != MarkHit {
			return false
		}
	}
	return len(v) > 0
}

// ParseVerdict decodes a verdict persisted by Verdict.String.
// Unknown runes decode as MarkMiss so a corrupted row never panics a reload.
func ParseVerdict(s string) Verdict {
	v := make(Verdict, len(s))
	for i := 0; i < len(s); i++ {
		switch Mark(s[i]) {
		case MarkHit, MarkPresent, MarkMiss:
			v[i] = Mark(s[i])
		default:
			v[i] = MarkMiss
		}
	}
	return v
}

// Score evaluates a guess against the target word using the classic
// two-pass Wordle algorithm.
//
// Pass 1 marks exact matches as hits and counts the remaining (non-hit)
// target letters. Pass 2 consumes those counts left to right: a letter with
// remaining count becomes present, otherwise a miss. This keeps repeated
// letters honest: a letter is never marked hit/present more times than it
// occurs in the target.
//
// Both strings must be uppercase A-Z of equal length; the session validates
// input before calling, so Score itself does not re-check.
func Score(guess, target string) Verdict {
	n := len(target)
	verdict := make(Verdict, n)

	var remaining [26]int
	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			verdict[i] = MarkHit
		} else {
			remaining[target[i]-'A']++
		}
	}

	for i := 0; i < n; i++ {
		if verdict[i] == MarkHit {
			continue
		}
		if remaining[guess[i]-'A'] > 0 {
			verdict[i] = MarkPresent
			remaining[guess[i]-'A']--
		} else {
			verdict[i] = MarkMiss
		}
	}

	return verdict
}

// Normalize uppercases and trims a raw guess or hosted word before
// validation. It does not validate; see ValidateWord and IsAlpha.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
