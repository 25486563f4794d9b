package bot

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/schlajo/Grouple-Bot/internal/config"
)

// TestWhitelistEnforcementProperty checks that a chat is allowed if and only
// if its ID appears in the whitelist.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(1, 10).Draw(t, "numChats")
		chatIDs := make([]int64, numChats)
		for i := 0; i < numChats; i++ {
			// Group chat IDs are typically negative
			chatIDs[i] = -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")
		}

		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{Chats: chatIDs},
		}

		testChatID := -rapid.Int64Range(1, 1000000000).Draw(t, "testChatID")

		expected := false
		for _, id := range chatIDs {
			if id == testChatID {
				expected = true
				break
			}
		}

		if got := cfg.IsChatAllowed(testChatID); got != expected {
			t.Fatalf("Whitelist check mismatch: chatID=%d, whitelist=%v, expected=%v, got=%v",
				testChatID, chatIDs, expected, got)
		}
	})
}

// TestEmptyWhitelistAllowsAllChatsProperty checks the empty-whitelist special
// case: every chat is allowed.
func TestEmptyWhitelistAllowsAllChatsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{
			Whitelist: config.WhitelistConfig{Chats: []int64{}},
		}

		chatID := -rapid.Int64Range(1, 1000000000).Draw(t, "chatID")

		if !cfg.IsChatAllowed(chatID) {
			t.Fatalf("With empty whitelist, chat ID %d should be allowed", chatID)
		}
	})
}

// TestPrivateUserCacheProperty checks the add-then-check round trip of the
// private user cache that gates hosted-word submissions.
func TestPrivateUserCacheProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")

		AllowPrivateUser(userID)

		if !IsPrivateUserAllowed(userID) {
			t.Fatalf("User %d should be allowed after being added to private user cache", userID)
		}
	})
}
