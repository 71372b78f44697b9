// Package session keeps the per-chat conversational state of the bot.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gomida/gamebot/game/profile"
)

// State is the position of a chat in the onboarding state machine.
type State string

const (
	StateNew             State = "NEW"
	StateAwaitingContact State = "AWAITING_CONTACT"
	StateUnlocked        State = "UNLOCKED"
)

// ErrForeignProfile is returned when a profile of another identity is offered to a session.
var ErrForeignProfile = errors.New("session: profile does not belong to chat identity")

// Session is the local cache of one chat. A nil Profile means the chat is NEW.
type Session struct {
	ChatID     int64
	IdentityID int64
	Profile    *profile.Profile
	// Confirmed is false while Profile is a local fallback the backend never acknowledged.
	Confirmed       bool
	LeaderboardPage int
	UpdatedAt       time.Time
}

// New returns an empty session for the chat.
func New(chatID, identityID int64) *Session {
	return &Session{ChatID: chatID, IdentityID: identityID}
}

// Unlocked is derived from the cached profile and never stored separately.
func (s *Session) Unlocked() bool {
	return s != nil && s.Profile != nil && s.Profile.HasPhone()
}

// State reports the current state machine position.
func (s *Session) State() State {
	switch {
	case s == nil || s.Profile == nil:
		return StateNew
	case s.Profile.HasPhone():
		return StateUnlocked
	default:
		return StateAwaitingContact
	}
}

// SetProfile replaces the cached snapshot. Profiles of other identities are refused.
func (s *Session) SetProfile(p profile.Profile, confirmed bool) error {
	if s.IdentityID != 0 && p.ID != s.IdentityID {
		return ErrForeignProfile
	}
	cp := p.Clone()
	s.Profile = &cp
	s.Confirmed = confirmed
	return nil
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Profile != nil {
		cp := s.Profile.Clone()
		out.Profile = &cp
	}
	return &out
}

// Store persists sessions keyed by chat id.
type Store interface {
	// Load returns the session for chatID; found is false when none exists.
	Load(ctx context.Context, chatID int64) (sess *Session, found bool, err error)
	Save(ctx context.Context, sess *Session) error
	// Clear removes the session entirely.
	Clear(ctx context.Context, chatID int64) error
}

// Pruner removes sessions idle since before cutoff and reports how many were dropped.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
