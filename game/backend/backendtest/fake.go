// Package backendtest provides an in-memory backend for tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/gomida/gamebot/game/backend"
	"github.com/gomida/gamebot/game/profile"
)

// Fake stores profiles in memory. Set the *Err fields to simulate failures.
type Fake struct {
	mu sync.Mutex

	Profiles    map[int64]profile.Profile
	Leaderboard []profile.Entry

	CreateErr      error
	UpdateErr      error
	FetchErr       error
	LeaderboardErr error

	Creates      int
	Updates      int
	Fetches      int
	Leaderboards int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{Profiles: map[int64]profile.Profile{}}
}

// Unavailable is a ready-made transport failure.
func Unavailable(op string) error {
	return &backend.Error{Op: op, Kind: backend.KindUnavailable}
}

func (f *Fake) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates++
	if f.CreateErr != nil {
		return profile.Profile{}, f.CreateErr
	}
	f.Profiles[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (f *Fake) UpdateProfile(_ context.Context, id int64, p profile.Profile) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates++
	if f.UpdateErr != nil {
		return profile.Profile{}, f.UpdateErr
	}
	f.Profiles[id] = p.Clone()
	return p.Clone(), nil
}

func (f *Fake) FetchProfile(_ context.Context, id int64) (profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches++
	if f.FetchErr != nil {
		return profile.Profile{}, f.FetchErr
	}
	p, ok := f.Profiles[id]
	if !ok {
		return profile.Profile{}, backend.ErrNotFound
	}
	return profile.Normalize(p.Clone()), nil
}

func (f *Fake) FetchLeaderboard(_ context.Context) ([]profile.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Leaderboards++
	if f.LeaderboardErr != nil {
		return nil, f.LeaderboardErr
	}
	return append([]profile.Entry(nil), f.Leaderboard...), nil
}
