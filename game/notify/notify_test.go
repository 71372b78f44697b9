package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/profile"
)

type syncQueue struct {
	actions []string
	full    bool
}

func (q *syncQueue) Enqueue(_ context.Context, action, _ string, run func() error) error {
	if q.full {
		return errors.New("queue full")
	}
	q.actions = append(q.actions, action)
	return run()
}

func TestRegisteredGoesToEveryAdmin(t *testing.T) {
	q := &syncQueue{}
	sent := map[int64]string{}
	n := NewTelegram(q, func(chatID int64, text string) error {
		sent[chatID] = text
		return nil
	}, 1, 2, 2, 0)

	assert.Equal(t, []int64{1, 2}, n.Admins())
	n.Registered(context.Background(), profile.Identity{ID: 42, FirstName: "Abebe"},
		profile.Profile{ID: 42, Username: "user_42"}, false)

	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], "Username: user_42")
	assert.Contains(t, sent[1], "Phone: Not shared")
	assert.Contains(t, sent[1], "Saved locally only")
	assert.Equal(t, []string{"notify.registered", "notify.registered"}, q.actions)
}

func TestContactTextEscapes(t *testing.T) {
	text := ContactText(profile.Identity{ID: 9, Username: "<b>x"}, "+251911000000", true)
	assert.Contains(t, text, "&lt;b&gt;x")
	assert.Contains(t, text, "<code>+251911000000</code>")
	assert.NotContains(t, text, "Saved locally")
}

func TestBroadcastCountsQueued(t *testing.T) {
	n := NewTelegram(&syncQueue{full: true}, func(int64, string) error { return nil }, 5)
	assert.Zero(t, n.Test(context.Background(), profile.Identity{ID: 5}))

	n = NewTelegram(&syncQueue{}, func(int64, string) error { return nil })
	assert.Zero(t, n.Test(context.Background(), profile.Identity{ID: 5}))
}
