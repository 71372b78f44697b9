package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gomida/gamebot/game/profile"
)

// Migrations holds the schema of the postgres store.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

const (
	qLoad = `SELECT chat_id, identity_id, profile, confirmed, leaderboard_page, updated_at
FROM chat_sessions WHERE chat_id = $1`
	qSave = `INSERT INTO chat_sessions (chat_id, identity_id, profile, confirmed, leaderboard_page, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chat_id) DO UPDATE SET
    identity_id = EXCLUDED.identity_id,
    profile = EXCLUDED.profile,
    confirmed = EXCLUDED.confirmed,
    leaderboard_page = EXCLUDED.leaderboard_page,
    updated_at = EXCLUDED.updated_at`
	qClear = `DELETE FROM chat_sessions WHERE chat_id = $1`
	qPrune = `DELETE FROM chat_sessions WHERE updated_at < $1`
)

type row struct {
	ChatID          int64     `db:"chat_id"`
	IdentityID      int64     `db:"identity_id"`
	Profile         []byte    `db:"profile"`
	Confirmed       bool      `db:"confirmed"`
	LeaderboardPage int       `db:"leaderboard_page"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// PostgresStore keeps sessions in the chat_sessions table so they survive restarts.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore wraps an open connection. Run Migrations before first use.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context, chatID int64) (*Session, bool, error) {
	var r row
	if err := p.db.GetContext(ctx, &r, qLoad, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("session: load %d: %w", chatID, err)
	}

	sess := &Session{
		ChatID:          r.ChatID,
		IdentityID:      r.IdentityID,
		Confirmed:       r.Confirmed,
		LeaderboardPage: r.LeaderboardPage,
		UpdatedAt:       r.UpdatedAt,
	}
	if len(r.Profile) > 0 {
		var prof profile.Profile
		if err := json.Unmarshal(r.Profile, &prof); err != nil {
			return nil, false, fmt.Errorf("session: decode profile of %d: %w", chatID, err)
		}
		prof = profile.Normalize(prof)
		sess.Profile = &prof
	}
	return sess, true, nil
}

// Save implements Store.
func (p *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session: nil session")
	}
	var payload []byte
	if sess.Profile != nil {
		var err error
		if payload, err = json.Marshal(sess.Profile); err != nil {
			return fmt.Errorf("session: encode profile of %d: %w", sess.ChatID, err)
		}
	}
	if _, err := p.db.ExecContext(ctx, qSave,
		sess.ChatID, sess.IdentityID, payload, sess.Confirmed, sess.LeaderboardPage, p.now().UTC(),
	); err != nil {
		return fmt.Errorf("session: save %d: %w", sess.ChatID, err)
	}
	return nil
}

// Clear implements Store.
func (p *PostgresStore) Clear(ctx context.Context, chatID int64) error {
	if _, err := p.db.ExecContext(ctx, qClear, chatID); err != nil {
		return fmt.Errorf("session: clear %d: %w", chatID, err)
	}
	return nil
}

// Prune implements Pruner.
func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, qPrune, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: prune rows: %w", err)
	}
	return n, nil
}
