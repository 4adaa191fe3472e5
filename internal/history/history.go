// Package history is a diagnostic, non-authoritative ledger of acquisition
// attempts. C3's cache-existence and eviction decisions never consult it;
// it exists so the tray UI can show a recent-downloads list and so a failed
// write here is never a request-path error.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"kingo/internal/constants"
)

// Attempt is one row of the ledger: one acquisition of one video id (which
// may span several extractor invocations on the credential retry chain),
// recorded after it finishes (successfully or not).
type Attempt struct {
	ID          string
	VideoID     string
	RequestedAt time.Time
	FinishedAt  time.Time
	Outcome     string // "completed", "already-exists", or an apperror.Code
	Bytes       int64
	ErrorText   string
}

// Ledger is a best-effort SQLite-backed attempt log. A nil *Ledger is valid
// and every method on it is a no-op; callers that fail to open the database
// keep running with history disabled rather than treating it as fatal.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if absent) the history database at path. On any
// failure it logs a warning and returns a disabled (nil-db) Ledger rather
// than an error, per the ledger's non-authoritative contract.
func Open(path string, log zerolog.Logger) *Ledger {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warn().Err(err).Msg("history: cannot create directory, ledger disabled")
		return &Ledger{log: log}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Warn().Err(err).Msg("history: cannot open database, ledger disabled")
		return &Ledger{log: log}
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		log.Warn().Err(err).Msg("history: cannot set WAL mode, continuing anyway")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		requested_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		outcome TEXT NOT NULL,
		bytes INTEGER DEFAULT 0,
		error_text TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_finished_at ON attempts(finished_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		log.Warn().Err(err).Msg("history: migration failed, ledger disabled")
		db.Close()
		return &Ledger{log: log}
	}

	return &Ledger{db: db, log: log}
}

// Record writes one attempt. Failures are logged and swallowed.
func (l *Ledger) Record(a Attempt) {
	if l == nil || l.db == nil {
		return
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.HistoryWriteTimeout)
	defer cancel()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO attempts (id, video_id, requested_at, finished_at, outcome, bytes, error_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.VideoID, a.RequestedAt, a.FinishedAt, a.Outcome, a.Bytes, a.ErrorText,
	)
	if err != nil {
		l.log.Warn().Err(err).Str("video_id", a.VideoID).Msg("history: record write failed, dropped")
	}
}

// Recent returns the most recent n attempts, newest first. On any failure
// it returns an empty slice rather than an error.
func (l *Ledger) Recent(n int) []Attempt {
	if l == nil || l.db == nil {
		return nil
	}

	rows, err := l.db.Query(
		`SELECT id, video_id, requested_at, finished_at, outcome, bytes, COALESCE(error_text, '')
		 FROM attempts ORDER BY finished_at DESC LIMIT ?`, n)
	if err != nil {
		l.log.Warn().Err(err).Msg("history: query failed")
		return nil
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.VideoID, &a.RequestedAt, &a.FinishedAt, &a.Outcome, &a.Bytes, &a.ErrorText); err != nil {
			l.log.Warn().Err(err).Msg("history: scan failed")
			continue
		}
		out = append(out, a)
	}
	return out
}

// Close closes the underlying database, if one is open.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s [%s] %s", a.VideoID, a.Outcome, a.FinishedAt.Format(time.RFC3339))
}
