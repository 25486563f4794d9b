// Package lock provides per-chat locking so that commands for one chat
// apply one at a time, in order, while different chats proceed concurrently.
package lock

import "sync"

// ChatLock serializes command handling per chat. Handlers take the chat's
// lock around a session mutation so a burst of guesses from one group is
// processed in arrival order without stalling any other group.
type ChatLock struct {
	locks sync.Map // map[int64]*sync.Mutex
}

// NewChatLock creates a new ChatLock instance.
func NewChatLock() *ChatLock {
	return &ChatLock{}
}

func (cl *ChatLock) getLock(chatID int64) *sync.Mutex {
	if v, ok := cl.locks.Load(chatID); ok {
		return v.(*sync.Mutex)
	}
	actual, _ := cl.locks.LoadOrStore(chatID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Lock acquires the lock for a chat.
func (cl *ChatLock) Lock(chatID int64) {
	cl.getLock(chatID).Lock()
}

// Unlock releases the lock for a chat.
func (cl *ChatLock) Unlock(chatID int64) {
	if v, ok := cl.locks.Load(chatID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (cl *ChatLock) TryLock(chatID int64) bool {
	return cl.getLock(chatID).TryLock()
}

// WithLock executes fn while holding the chat's lock.
func (cl *ChatLock) WithLock(chatID int64, fn func() error) error {
	cl.Lock(chatID)
	defer cl.Unlock(chatID)
	return fn()
}
