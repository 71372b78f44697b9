// Package profile holds the records exchanged between the bot and the game backend.
package profile

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is used when the platform does not report a language.
const DefaultLocale = "en"

// Identity is the platform-reported user of a chat. It never changes during a session.
type Identity struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Locale    string
}

// Handle returns the platform handle or a synthesized placeholder.
func (i Identity) Handle() string {
	if h := strings.TrimSpace(i.Username); h != "" {
		return h
	}
	return "user_" + strconv.FormatInt(i.ID, 10)
}

// DisplayName joins first and last name.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Language returns the canonical base language of the identity locale, e.g. "pt" for "pt-BR".
func (i Identity) Language() string {
	raw := strings.TrimSpace(i.Locale)
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	base, _ := tag.Base()
	return base.String()
}

// Stars maps an achievement key to its star rating.
type Stars map[string]int

// Profile is the backend's authoritative per-identity game record.
type Profile struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Phone        string `json:"phone"`
	Score        int64  `json:"score"`
	FlagsLevel   int    `json:"flags_level"`
	MapsLevel    int    `json:"maps_level"`
	AttiresLevel int    `json:"attires_level"`
	FlagsStars   Stars  `json:"flags_stars"`
	MapsStars    Stars  `json:"maps_stars"`
	AttiresStars Stars  `json:"attires_stars"`
}

// Default builds the record created on first contact with an identity.
func Default(id Identity) Profile {
	return Profile{
		ID:           id.ID,
		Username:     id.Handle(),
		FlagsLevel:   1,
		MapsLevel:    1,
		AttiresLevel: 1,
		FlagsStars:   Stars{},
		MapsStars:    Stars{},
		AttiresStars: Stars{},
	}
}

// Normalize fills fields absent from a backend payload with their defaults.
func Normalize(p Profile) Profile {
	if p.FlagsLevel < 1 {
		p.FlagsLevel = 1
	}
	if p.MapsLevel < 1 {
		p.MapsLevel = 1
	}
	if p.AttiresLevel < 1 {
		p.AttiresLevel = 1
	}
	if p.FlagsStars == nil {
		p.FlagsStars = Stars{}
	}
	if p.MapsStars == nil {
		p.MapsStars = Stars{}
	}
	if p.AttiresStars == nil {
		p.AttiresStars = Stars{}
	}
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}

// HasPhone reports whether the contact was shared.
func (p Profile) HasPhone() bool {
	return p.Phone != ""
}

// Clone returns a deep copy so cached snapshots never share star maps.
func (p Profile) Clone() Profile {
	p.FlagsStars = cloneStars(p.FlagsStars)
	p.MapsStars = cloneStars(p.MapsStars)
	p.AttiresStars = cloneStars(p.AttiresStars)
	return p
}

func cloneStars(s Stars) Stars {
	if s == nil {
		return nil
	}
	out := make(Stars, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Entry is one row of a leaderboard snapshot. Snapshots arrive in rank order.
type Entry struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// Rank returns the 1-based position of id in the snapshot, or 0 when absent.
func Rank(entries []Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}
