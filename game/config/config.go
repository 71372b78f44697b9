// Package config loads the bot configuration: the shared core section plus the
// game-specific sections.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	coreconfig "github.com/gomida/gamebot/core/config"
	coredatabase "github.com/gomida/gamebot/core/database"
	"github.com/gomida/gamebot/game/backend"
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/play"
	"github.com/gomida/gamebot/game/session"
)

// Session drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

const (
	defaultAppName       = "Gomida Games"
	defaultSessionTTL    = 30 * 24 * time.Hour
	defaultPruneInterval = time.Hour
)

// AppConfig holds presentation settings.
type AppConfig struct {
	Name      string `yaml:"name" envconfig:"APP_NAME"`
	InviteURL string `yaml:"invite_url" envconfig:"APP_INVITE_URL"`
}

// BackendConfig points at the remote profile service.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BACKEND_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"BACKEND_TIMEOUT"`
	Token   string        `yaml:"token" envconfig:"BACKEND_TOKEN"`
}

// PlayConfig controls game launch links.
type PlayConfig struct {
	RequiresUnlock bool          `yaml:"requires_unlock" envconfig:"PLAY_REQUIRES_UNLOCK"`
	SigningSecret  string        `yaml:"signing_secret" envconfig:"PLAY_SIGNING_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" envconfig:"PLAY_TOKEN_TTL"`
	// NativeGames sends Telegram game messages instead of URL buttons.
	NativeGames bool `yaml:"native_games" envconfig:"PLAY_NATIVE_GAMES"`
}

// LeaderboardConfig controls leaderboard paging.
type LeaderboardConfig struct {
	PageSize int `yaml:"page_size" envconfig:"LEADERBOARD_PAGE_SIZE"`
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Driver        string        `yaml:"driver" envconfig:"SESSION_DRIVER"`
	Capacity      int           `yaml:"capacity" envconfig:"SESSION_CAPACITY"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	PruneInterval time.Duration `yaml:"prune_interval" envconfig:"SESSION_PRUNE_INTERVAL"`
}

// NotifyConfig lists the chats that receive admin notifications.
type NotifyConfig struct {
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"NOTIFY_ADMIN_IDS"`
}

// OpsConfig configures the ops HTTP listener. An empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	App         AppConfig           `yaml:"app"`
	Backend     BackendConfig       `yaml:"backend"`
	Games       []play.Game         `yaml:"games" ignored:"true"`
	Play        PlayConfig          `yaml:"play"`
	Leaderboard LeaderboardConfig   `yaml:"leaderboard"`
	Session     SessionConfig       `yaml:"session"`
	Database    coredatabase.Config `yaml:"database"`
	Notify      NotifyConfig        `yaml:"notify"`
	Ops         OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the shared core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// AdminIDs merges telegram.admin_id with notify.admin_ids, without duplicates.
func (c *Config) AdminIDs() []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(c.Telegram.AdminID)
	for _, id := range c.Notify.AdminIDs {
		add(id)
	}
	return out
}

// UsesDatabase reports whether a database connection is required.
func (c *Config) UsesDatabase() bool {
	return c.Session.Driver == DriverPostgres
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.App.Name = strings.TrimSpace(cfg.App.Name)
	if cfg.App.Name == "" {
		cfg.App.Name = defaultAppName
	}
	if u := strings.TrimSpace(cfg.App.InviteURL); u != "" {
		if err := validateHTTPURL(u); err != nil {
			return fmt.Errorf("app.invite_url: %w", err)
		}
		cfg.App.InviteURL = u
	}

	cfg.Backend.BaseURL = strings.TrimSpace(cfg.Backend.BaseURL)
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if err := validateHTTPURL(cfg.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if cfg.Backend.Timeout <= 0 || cfg.Backend.Timeout > backend.MaxTimeout {
		cfg.Backend.Timeout = backend.MaxTimeout
	}

	if len(cfg.Games) == 0 {
		return fmt.Errorf("at least one entry in games is required")
	}
	seen := make(map[string]struct{}, len(cfg.Games))
	for i, g := range cfg.Games {
		g.ShortName = strings.TrimSpace(g.ShortName)
		g.URL = strings.TrimSpace(g.URL)
		if g.ShortName == "" {
			return fmt.Errorf("games[%d].short_name is required", i)
		}
		if _, dup := seen[g.ShortName]; dup {
			return fmt.Errorf("games[%d]: duplicate short_name %q", i, g.ShortName)
		}
		seen[g.ShortName] = struct{}{}
		if err := validateHTTPURL(g.URL); err != nil {
			return fmt.Errorf("games[%d].url: %w", i, err)
		}
		if strings.TrimSpace(g.Title) == "" {
			g.Title = g.ShortName
		}
		cfg.Games[i] = g
	}

	if cfg.Play.TokenTTL <= 0 {
		cfg.Play.TokenTTL = play.DefaultTokenTTL
	}
	if cfg.Leaderboard.PageSize <= 0 {
		cfg.Leaderboard.PageSize = leaderboard.DefaultPageSize
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Session.Driver))
	if driver == "" {
		driver = DriverMemory
	}
	switch driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("invalid session.driver %q; allowed: memory, postgres", cfg.Session.Driver)
	}
	cfg.Session.Driver = driver
	if cfg.Session.Capacity <= 0 {
		cfg.Session.Capacity = session.DefaultCapacity
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = defaultSessionTTL
	}
	if cfg.Session.PruneInterval <= 0 {
		cfg.Session.PruneInterval = defaultPruneInterval
	}
	if driver == DriverPostgres && strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required when session.driver is 'postgres'")
	}

	cfg.Ops.Listen = strings.TrimSpace(cfg.Ops.Listen)
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return nil
}
