// Package handler provides chat command handlers for the shared Wordle game.
package handler

import (
	"fmt"
	"strings"

	"github.com/schlajo/Grouple-Bot/internal/game"
	"github.com/schlajo/Grouple-Bot/internal/model"
	"github.com/schlajo/Grouple-Bot/internal/session"
)

// NameResolver turns a user ID into a display name for a chat. Implemented by
// the bot layer; handlers never talk to the platform API directly.
type NameResolver interface {
	DisplayName(chatID, userID int64) string
}

// renderVerdict renders one verdict as a row of colored squares.
func renderVerdict(v game.Verdict) string {
	var b strings.Builder
	for _, m := range v {
		switch m {
		case game.MarkHit:
			b.WriteString("🟩")
		case game.MarkPresent:
			b.WriteString("🟨")
		default:
			b.WriteString("⬜")
		}
	}
	return b.String()
}

// renderGuess spaces out the guessed letters so they line up under the squares.
func renderGuess(guess string) string {
	letters := make([]string, len(guess))
	for i := 0; i < len(guess); i++ {
		letters[i] = string(guess[i])
	}
	return strings.Join(letters, " ")
}

// formatGuessResult renders a single accepted guess for the reply.
func formatGuessResult(name, guess string, verdict game.Verdict) string {
	return fmt.Sprintf("%s guessed:\n%s\n%s", name, renderVerdict(verdict), renderGuess(guess))
}

// formatBoard renders every player's guess history in first-guess order.
func formatBoard(chatID int64, entries []session.PlayerGuesses, names NameResolver) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s (%d):\n", names.DisplayName(chatID, entry.UserID), len(entry.Records)))
		for _, rec := range entry.Records {
			b.WriteString(renderVerdict(rec.Verdict))
			b.WriteString("  ")
			b.WriteString(renderGuess(rec.Guess))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatStatus renders the /status reply.
func formatStatus(chatID int64, snap session.Snapshot, names NameResolver) string {
	header := fmt.Sprintf(
		"🎮 Game in progress!\nWord length: %d letters\nPlayers: %d · Guesses: %d\n",
		snap.WordLength, snap.Players, snap.TotalGuesses,
	)
	if len(snap.Entries) == 0 {
		return header + "\nNo guesses yet. Be the first with /guess <word>!"
	}
	return header + "\n" + formatBoard(chatID, snap.Entries, names)
}

// FormatSummary renders the end-of-game announcement. Exported because the
// bot layer renders the same summary for the deferred auto-end.
func FormatSummary(summary session.Summary, names NameResolver) string {
	var b strings.Builder

	switch len(summary.Winners) {
	case 0:
		b.WriteString(fmt.Sprintf("🏁 Game over! The word was %s.\n", summary.Word))
	case 1:
		b.WriteString(fmt.Sprintf("🎉 %s solved it! The word was %s.\n",
			names.DisplayName(summary.ChatID, summary.Winners[0]), summary.Word))
	default:
		winnerNames := make([]string, len(summary.Winners))
		for i, id := range summary.Winners {
			winnerNames[i] = names.DisplayName(summary.ChatID, id)
		}
		b.WriteString(fmt.Sprintf("🎉 %s solved it! The word was %s.\n",
			strings.Join(winnerNames, ", "), summary.Word))
	}

	if summary.IsCustomWord && summary.HostID != nil {
		b.WriteString(fmt.Sprintf("Hosted by %s.\n", names.DisplayName(summary.ChatID, *summary.HostID)))
	}
	b.WriteString(fmt.Sprintf("Total guesses: %d\n", summary.TotalGuesses))

	if len(summary.Entries) > 0 {
		b.WriteString("\n")
		b.WriteString(formatBoard(summary.ChatID, summary.Entries, names))
	}
	return b.String()
}

// formatLeaderboard renders the /stats reply.
func formatLeaderboard(chatID int64, stats []model.PlayerStats, names NameResolver) string {
	if len(stats) == 0 {
		return "📊 No stats yet. Play a game with /wordle!"
	}

	var b strings.Builder
	b.WriteString("📊 Leaderboard\n\n")
	for i, p := range stats {
		medal := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		b.WriteString(fmt.Sprintf("%s %s — %d wins, %d games, %d guesses\n",
			medal, names.DisplayName(chatID, p.UserID), p.Wins, p.TotalGames, p.TotalGuesses))
	}
	return b.String()
}

// formatGlobalStats renders the /globalstats reply.
func formatGlobalStats(stats *model.GlobalStats) string {
	if stats.GamesSolved == 0 {
		return "🌍 No solved games yet."
	}

	var b strings.Builder
	b.WriteString("🌍 Global stats\n\n")
	b.WriteString(fmt.Sprintf("Games solved: %d\n", stats.GamesSolved))
	b.WriteString(fmt.Sprintf("Average guesses: %.1f\n", float64(stats.TotalGuesses)/float64(stats.GamesSolved)))
	if stats.GeneratedGamesSolved > 0 {
		b.WriteString(fmt.Sprintf("Daily words: %d solved, %.1f avg guesses\n",
			stats.GeneratedGamesSolved, float64(stats.GeneratedGuesses)/float64(stats.GeneratedGamesSolved)))
	}
	if stats.CustomGamesSolved > 0 {
		b.WriteString(fmt.Sprintf("Hosted words: %d solved, %.1f avg guesses\n",
			stats.CustomGamesSolved, float64(stats.CustomGuesses)/float64(stats.CustomGamesSolved)))
	}
	if len(stats.ByLength) > 0 {
		b.WriteString("\nBy word length:\n")
		for length := game.MinWordLength; length <= game.MaxWordLength; length++ {
			ls, ok := stats.ByLength[length]
			if !ok || ls.Solved == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %d letters: %d solved, %.1f avg guesses\n",
				length, ls.Solved, float64(ls.Guesses)/float64(ls.Solved)))
		}
	}
	return b.String()
}

// formatRetry renders the cooldown wait as a friendly duration.
func formatRetry(minutes int) string {
	if minutes >= 60 {
		h := minutes / 60
		m := minutes % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", minutes)
}
