// Package app wires the game bot: configuration, storage, backend client,
// dispatcher, Telegram adapter and ops endpoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gomida/gamebot/core/bootstrap"
	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/core/opsserver"
	coretelegram "github.com/gomida/gamebot/core/telegram"
	tgsender "github.com/gomida/gamebot/core/telegram/sender"
	"github.com/gomida/gamebot/game/backend"
	"github.com/gomida/gamebot/game/bot"
	"github.com/gomida/gamebot/game/config"
	"github.com/gomida/gamebot/game/dispatch"
	"github.com/gomida/gamebot/game/notify"
	"github.com/gomida/gamebot/game/play"
	"github.com/gomida/gamebot/game/session"

	tele "gopkg.in/telebot.v4"
)

const (
	component       = "app"
	serviceName     = "gamebot"
	shutdownTimeout = 5 * time.Second
)

// errBotNotReady is returned by notification sends before the bot started.
var errBotNotReady = errors.New("app: telegram bot not started")

// App holds the wired components for the lifetime of the process.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	store   session.Store
	janitor *session.Janitor

	dispatcher *dispatch.Dispatcher
	sender     *tgsender.Dispatcher
	notifier   *notify.Telegram
	bot        *bot.Bot
	ops        *opsserver.Server

	tele atomic.Pointer[tele.Bot]
}

// Bootstrap builds every component. Nothing is started until the Telegram
// runtime calls the lifecycle hooks.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	bopts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.UsesDatabase() {
		bopts.Database = &cfg.Database
		bopts.Migrations = []bootstrap.Migrations{{FS: session.Migrations, Dir: session.MigrationsDir}}
	}
	res, err := bootstrap.Run(ctx, bopts)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: res.DB}
	if err := a.wire(ctx); err != nil {
		if a.db != nil {
			_ = a.db.Close()
		}
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.cfg

	var pruner session.Pruner
	if a.db != nil {
		pg := session.NewPostgresStore(a.db)
		a.store, pruner = pg, pg
	} else {
		mem, err := session.NewMemoryStore(cfg.Session.Capacity)
		if err != nil {
			return fmt.Errorf("app: session store: %w", err)
		}
		a.store, pruner = mem, mem
	}
	janitor, err := session.NewJanitor(pruner, cfg.Session.TTL, cfg.Session.PruneInterval)
	if err != nil {
		return fmt.Errorf("app: session janitor: %w", err)
	}
	a.janitor = janitor

	client, err := backend.New(backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Token:   cfg.Backend.Token,
	})
	if err != nil {
		return fmt.Errorf("app: backend client: %w", err)
	}

	linker, err := play.NewLinker(play.Options{
		Games:         cfg.Games,
		SigningSecret: cfg.Play.SigningSecret,
		TokenTTL:      cfg.Play.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("app: games: %w", err)
	}

	a.sender = tgsender.NewDispatcher(tgsender.Options{})
	admins := cfg.AdminIDs()
	a.notifier = notify.NewTelegram(a.sender, a.sendHTML, admins...)

	a.dispatcher = dispatch.New(a.store, client, dispatch.Config{
		Linker:             linker,
		Notifier:           a.notifier,
		PageSize:           cfg.Leaderboard.PageSize,
		PlayRequiresUnlock: cfg.Play.RequiresUnlock,
		NativeGames:        cfg.Play.NativeGames,
		AppName:            cfg.App.Name,
		InviteURL:          cfg.App.InviteURL,
	})
	a.bot = bot.New(a.dispatcher, bot.Options{AdminIDs: admins, Notifier: a.notifier})

	if cfg.Ops.Listen != "" {
		a.ops = opsserver.New(opsserver.Options{Listen: cfg.Ops.Listen, Service: serviceName})
		if a.db != nil {
			a.ops.AddCheck("database", a.db.PingContext)
		}
		mountPlayRoutes(a.ops.Router(), linker)
	}

	logger.Info(ctx, component, "app.wired",
		slog.String("status", "ok"),
		slog.String("store", cfg.Session.Driver),
		slog.Int("games", len(cfg.Games)),
		slog.Int("admins", len(admins)),
		slog.Bool("ops", a.ops != nil),
	)
	return nil
}

// TelegramRunOptions implements the core command runner contract.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: register bot: %w", err)
	}
	core := a.cfg.CoreConfig()
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Dispatcher:  a.sender,
		Middlewares: coretelegram.DefaultMiddlewares(core, coretelegram.ChainOptions{OnLimited: a.bot.OnRateLimited}),
		Routes:      a.bot.Routes(reg),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.tele.Store(rt.Bot)
	if a.ops != nil {
		if err := a.ops.Start(ctx); err != nil {
			return fmt.Errorf("app: ops server: %w", err)
		}
	}
	a.janitor.Start()
	return nil
}

func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.janitor.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("janitor: %w", err))
	}
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops server: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) sendHTML(chatID int64, html string) error {
	b := a.tele.Load()
	if b == nil {
		return errBotNotReady
	}
	_, err := b.Send(tele.ChatID(chatID), html, tele.ModeHTML)
	return err
}
