// Package play builds the deep links that launch the external mini-games.
package play

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gomida/gamebot/game/profile"
)

const (
	issuer = "gamebot"
	// DefaultTokenTTL bounds how long a launch token is accepted.
	DefaultTokenTTL = 24 * time.Hour
)

// ErrUnknownGame is returned for a short name that is not configured.
var ErrUnknownGame = errors.New("play: unknown game")

// Game is one external mini-game.
type Game struct {
	ShortName string `yaml:"short_name"`
	Title     string `yaml:"title"`
	URL       string `yaml:"url"`
}

// Link is a ready to open launch URL.
type Link struct {
	Game Game
	URL  string
}

// Claims is the payload of the launch token.
type Claims struct {
	UserID       int64  `json:"uid"`
	Game         string `json:"game"`
	Score        int64  `json:"score"`
	FlagsLevel   int    `json:"flags_level"`
	MapsLevel    int    `json:"maps_level"`
	AttiresLevel int    `json:"attires_level"`
	jwt.RegisteredClaims
}

// Options configures a Linker.
type Options struct {
	Games []Game
	// SigningSecret enables the signed token param when non-empty.
	SigningSecret string
	TokenTTL      time.Duration
}

// Linker renders launch URLs for the configured games.
type Linker struct {
	games  []Game
	bases  map[string]*url.URL
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinker validates the games and builds a Linker.
func NewLinker(opts Options) (*Linker, error) {
	l := &Linker{
		bases:  make(map[string]*url.URL, len(opts.Games)),
		secret: []byte(strings.TrimSpace(opts.SigningSecret)),
		ttl:    opts.TokenTTL,
		now:    time.Now,
	}
	if l.ttl <= 0 {
		l.ttl = DefaultTokenTTL
	}
	for _, g := range opts.Games {
		g.ShortName = strings.TrimSpace(g.ShortName)
		if g.ShortName == "" {
			return nil, fmt.Errorf("play: game without short_name")
		}
		if _, dup := l.bases[g.ShortName]; dup {
			return nil, fmt.Errorf("play: duplicate game %q", g.ShortName)
		}
		u, err := url.Parse(strings.TrimSpace(g.URL))
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return nil, fmt.Errorf("play: game %q has invalid url %q", g.ShortName, g.URL)
		}
		if g.Title == "" {
			g.Title = g.ShortName
		}
		l.bases[g.ShortName] = u
		l.games = append(l.games, g)
	}
	return l, nil
}

// Games returns the configured games in order.
func (l *Linker) Games() []Game {
	return append([]Game(nil), l.games...)
}

// Find looks a game up by short name.
func (l *Linker) Find(shortName string) (Game, bool) {
	for _, g := range l.games {
		if g.ShortName == shortName {
			return g, true
		}
	}
	return Game{}, false
}

// Links returns one launch URL per configured game.
func (l *Linker) Links(id profile.Identity, p profile.Profile) ([]Link, error) {
	out := make([]Link, 0, len(l.games))
	for _, g := range l.games {
		u, err := l.URL(g.ShortName, id, p)
		if err != nil {
			return nil, err
		}
		out = append(out, Link{Game: g, URL: u})
	}
	return out, nil
}

// URL builds the launch URL of one game. Identity and profile fields travel
// as query params; empty values are skipped.
func (l *Linker) URL(shortName string, id profile.Identity, p profile.Profile) (string, error) {
	base, ok := l.bases[shortName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGame, shortName)
	}
	u := *base
	q := u.Query()
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	userID := p.ID
	if userID == 0 {
		userID = id.ID
	}
	set("tg_user_id", strconv.FormatInt(id.ID, 10))
	set("tg_first_name", id.FirstName)
	set("tg_last_name", id.LastName)
	set("tg_username", id.Username)
	set("tg_language", id.Language())
	set("user_score", strconv.FormatInt(p.Score, 10))
	set("user_id", strconv.FormatInt(userID, 10))
	set("flags_level", strconv.Itoa(p.FlagsLevel))
	set("maps_level", strconv.Itoa(p.MapsLevel))
	set("attires_level", strconv.Itoa(p.AttiresLevel))
	set("phone", p.Phone)
	set("game", shortName)

	if len(l.secret) > 0 {
		tok, err := l.sign(shortName, userID, p)
		if err != nil {
			return "", err
		}
		set("token", tok)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (l *Linker) sign(game string, userID int64, p profile.Profile) (string, error) {
	now := l.now()
	claims := Claims{
		UserID:       userID,
		Game:         game,
		Score:        p.Score,
		FlagsLevel:   p.FlagsLevel,
		MapsLevel:    p.MapsLevel,
		AttiresLevel: p.AttiresLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{game},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("play: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a launch token and checks signature, expiry and issuer.
func (l *Linker) Verify(token string) (*Claims, error) {
	if len(l.secret) == 0 {
		return nil, errors.New("play: token signing disabled")
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("play: missing token")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return nil, fmt.Errorf("play: invalid token: %w", err)
	}
	return claims, nil
}
