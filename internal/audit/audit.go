// Package audit keeps a SQLite log of dispatched interactions.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Entry is one dispatched interaction.
type Entry struct {
	ID        string
	Trace     string
	GuildID   string
	ChannelID string
	UserID    string
	Command   string
	AliasOf   string
	Outcome   string
	Reason    string
	CreatedAt time.Time
}

// Store is the SQLite backed audit log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS command_executions (
		id         TEXT PRIMARY KEY,
		trace      TEXT NOT NULL,
		guild_id   TEXT,
		channel_id TEXT,
		user_id    TEXT,
		command    TEXT NOT NULL,
		alias_of   TEXT,
		outcome    TEXT NOT NULL,
		reason     TEXT,
		created_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_exec_guild ON command_executions(guild_id, created_at)`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_exec_created ON command_executions(created_at)`)

	return &Store{db: db}, nil
}

// Record persists e, filling in its id and timestamp when missing.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO command_executions
		(id, trace, guild_id, channel_id, user_id, command, alias_of, outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Trace, e.GuildID, e.ChannelID, e.UserID, e.Command, e.AliasOf, e.Outcome, e.Reason,
		e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Command, err)
	}
	return nil
}

// Recent returns the newest entries, optionally limited to one guild.
func (s *Store) Recent(ctx context.Context, guildID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, trace, guild_id, channel_id, user_id, command, alias_of, outcome, reason, created_at
		FROM command_executions`
	args := []any{}
	if guildID != "" {
		query += ` WHERE guild_id = ?`
		args = append(args, guildID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Trace, &e.GuildID, &e.ChannelID, &e.UserID,
			&e.Command, &e.AliasOf, &e.Outcome, &e.Reason, &ms); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries created before cutoff and reports how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM command_executions WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info().Int64("rows", n).Time("cutoff", cutoff).Msg("Pruned audit log")
	}
	return n, nil
}

// Count is the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM command_executions`).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
