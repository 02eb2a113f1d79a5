// Package sqlite persists match journals in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/platform/storage/sqlitemigrate"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements storage.EventStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database at path, applies
// pending migrations, and returns a ready Store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendEvent validates and appends one event inside a transaction. The
// seq must be exactly one past the latest stored seq for the match.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	evt, err := event.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest uint64
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM match_events WHERE match_id = ?",
		evt.MatchID,
	)
	if err := row.Scan(&latest); err != nil {
		return event.Event{}, fmt.Errorf("read latest seq: %w", err)
	}
	if evt.Seq != latest+1 {
		return event.Event{}, fmt.Errorf("%w: got seq %d, want %d", storage.ErrSeqConflict, evt.Seq, latest+1)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO match_events (id, match_id, seq, created_at, event_type, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.MatchID, evt.Seq, toMillis(evt.CreatedAt), string(evt.Type), evt.PayloadJSON,
	); err != nil {
		if isConstraintError(err) {
			return event.Event{}, fmt.Errorf("%w: seq %d already stored", storage.ErrSeqConflict, evt.Seq)
		}
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit append: %w", err)
	}
	return evt, nil
}

// ListEvents returns up to limit events with seq greater than afterSeq,
// ordered by seq ascending.
func (s *Store) ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, seq, created_at, event_type, payload
		 FROM match_events
		 WHERE match_id = ? AND seq > ?
		 ORDER BY seq ASC
		 LIMIT ?`,
		matchID, afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			createdAt int64
			eventType string
		)
		if err := rows.Scan(&evt.ID, &evt.MatchID, &evt.Seq, &createdAt, &eventType, &evt.PayloadJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.CreatedAt = fromMillis(createdAt)
		evt.Type = event.Type(eventType)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetLatestEventSeq returns the latest seq for a match, zero when the
// match has no events.
func (s *Store) GetLatestEventSeq(ctx context.Context, matchID string) (uint64, error) {
	var latest uint64
	row := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM match_events WHERE match_id = ?",
		matchID,
	)
	if err := row.Scan(&latest); err != nil {
		return 0, fmt.Errorf("read latest seq: %w", err)
	}
	return latest, nil
}

// ListMatchIDs returns the ids of every match with at least one event.
func (s *Store) ListMatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT match_id FROM match_events ORDER BY match_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("query match ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match ids: %w", err)
	}
	return ids, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
