package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Transcript is one saved dictation result.
type Transcript struct {
	ID         string
	Text       string
	Model      string
	StartedAt  time.Time
	DurationMs int64
}

// Store keeps dictation history in a local SQLite database.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store at path, creating the schema and the
// parent directory as needed.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcripts (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    model TEXT,
    started_at TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transcripts_started ON transcripts(started_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Save writes one finished dictation. Blank transcripts are not recorded.
func (s *Store) Save(ctx context.Context, tr Transcript) error {
	if tr.Text == "" {
		return nil
	}
	if tr.StartedAt.IsZero() {
		tr.StartedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts(id, text, model, started_at, duration_ms) VALUES(?, ?, ?, ?, ?)`,
		tr.ID, tr.Text, tr.Model, tr.StartedAt.UTC().Format(time.RFC3339Nano), tr.DurationMs)
	return err
}

// ErrNotFound is returned by Get for an unknown transcript ID.
var ErrNotFound = errors.New("transcript not found")

// Get returns one saved transcript by ID.
func (s *Store) Get(ctx context.Context, id string) (Transcript, error) {
	var tr Transcript
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, model, started_at, duration_ms FROM transcripts WHERE id = ?`, id).
		Scan(&tr.ID, &tr.Text, &tr.Model, &started, &tr.DurationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Transcript{}, ErrNotFound
	}
	if err != nil {
		return Transcript{}, err
	}
	if ts, perr := time.Parse(time.RFC3339Nano, started); perr == nil {
		tr.StartedAt = ts
	}
	return tr, nil
}

// Recent returns up to limit transcripts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, model, started_at, duration_ms
		 FROM transcripts ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		var tr Transcript
		var started string
		if err := rows.Scan(&tr.ID, &tr.Text, &tr.Model, &started, &tr.DurationMs); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			tr.StartedAt = ts
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Prune deletes transcripts older than keepDays. 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keepDays int) error {
	if keepDays <= 0 {
		return nil
	}
	cutoff := s.clock().UTC().AddDate(0, 0, -keepDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE started_at < ?`, cutoff.Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.log.Debug("pruned dictation history", "removed", n, "keep_days", keepDays)
	}
	return nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
