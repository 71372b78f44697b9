package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/profile"
)

func TestStateFollowsProfile(t *testing.T) {
	s := New(42, 42)
	assert.Equal(t, StateNew, s.State())
	assert.False(t, s.Unlocked())

	require.NoError(t, s.SetProfile(profile.Default(profile.Identity{ID: 42}), true))
	assert.Equal(t, StateAwaitingContact, s.State())
	assert.False(t, s.Unlocked())

	p := *s.Profile
	p.Phone = "+251911000000"
	require.NoError(t, s.SetProfile(p, false))
	assert.Equal(t, StateUnlocked, s.State())
	assert.True(t, s.Unlocked())
	assert.False(t, s.Confirmed)
}

func TestSetProfileRejectsForeignIdentity(t *testing.T) {
	s := New(42, 42)
	err := s.SetProfile(profile.Default(profile.Identity{ID: 7}), true)
	assert.ErrorIs(t, err, ErrForeignProfile)
	assert.Nil(t, s.Profile)
}

func TestMemoryStoreRoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(2)
	require.NoError(t, err)

	s := New(1, 1)
	require.NoError(t, s.SetProfile(profile.Default(profile.Identity{ID: 1}), true))
	require.NoError(t, store.Save(ctx, s))

	s.Profile.Score = 999
	got, found, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Zero(t, got.Profile.Score)
	assert.False(t, got.UpdatedAt.IsZero())

	got.Profile.FlagsStars["x"] = 3
	again, _, _ := store.Load(ctx, 1)
	assert.Empty(t, again.Profile.FlagsStars)
}

func TestMemoryStoreClearAndEviction(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(2)
	require.NoError(t, err)

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, store.Save(ctx, New(id, id)))
	}
	assert.Equal(t, 2, store.Len())
	_, found, _ := store.Load(ctx, 1)
	assert.False(t, found, "oldest chat should be evicted")

	require.NoError(t, store.Clear(ctx, 3))
	_, found, _ = store.Load(ctx, 3)
	assert.False(t, found)
}

func TestMemoryStorePrune(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(10)
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.Save(ctx, New(1, 1)))
	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, store.Save(ctx, New(2, 2)))

	n, err := store.Prune(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, found, _ := store.Load(ctx, 2)
	assert.True(t, found)
}

type countingPruner struct {
	cutoff time.Time
	n      int64
}

func (c *countingPruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	c.cutoff = cutoff
	return c.n, nil
}

func TestJanitorRunOnceUsesTTL(t *testing.T) {
	p := &countingPruner{n: 3}
	j, err := NewJanitor(p, 24*time.Hour, time.Minute)
	require.NoError(t, err)
	defer func() { _ = j.Stop() }()

	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	n, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.Add(-24*time.Hour), p.cutoff)
}

func TestNewJanitorRequiresTTL(t *testing.T) {
	_, err := NewJanitor(&countingPruner{}, 0, time.Minute)
	assert.Error(t, err)
}
