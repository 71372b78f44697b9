package dispatch

import "sync"

// chatLocks serializes handlers per chat. Entries are dropped once no handler
// holds or waits for them.
type chatLocks struct {
	mu sync.Mutex
	m  map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{m: make(map[int64]*chatLock)}
}

func (c *chatLocks) lock(chatID int64) (unlock func()) {
	c.mu.Lock()
	l, ok := c.m[chatID]
	if !ok {
		l = &chatLock{}
		c.m[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.m, chatID)
		}
		c.mu.Unlock()
	}
}

func (c *chatLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
