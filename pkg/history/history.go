// Package history keeps the most recent scans and their analyses in sqlite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sw33tLie/qrsafe/pkg/payload"
	"github.com/sw33tLie/qrsafe/pkg/reputation"
)

type DB struct {
	sql *sql.DB
	now func() time.Time
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create history directory: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS history_entries (
  id          TEXT PRIMARY KEY,
  seq         INTEGER NOT NULL,
  kind        TEXT NOT NULL,
  raw_value   TEXT NOT NULL,
  scanned_at  INTEGER NOT NULL,
  analysis    TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_seq ON history_entries(seq);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, now: time.Now}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Add records a scan at the front of the history. An existing entry with the
// same id keeps its analysis.
func (d *DB) Add(ctx context.Context, classified payload.Classified, scannedAt time.Time) (Entry, error) {
	c := classified.Classification
	id := EntryID(c)

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var next int64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM history_entries`).Scan(&next); err != nil {
		return Entry{}, err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO history_entries(id, seq, kind, raw_value, scanned_at, analysis) VALUES(?,?,?,?,?,NULL)
ON CONFLICT(id) DO UPDATE SET seq = excluded.seq, scanned_at = excluded.scanned_at`,
		id, next, string(c.Kind()), c.RawValue(), scannedAt.UnixMilli())
	if err != nil {
		return Entry{}, err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM history_entries WHERE id NOT IN (SELECT id FROM history_entries ORDER BY seq DESC LIMIT ?)`, MAX_ENTRIES)
	if err != nil {
		return Entry{}, err
	}

	var analysis sql.NullString
	if err = tx.QueryRowContext(ctx, `SELECT analysis FROM history_entries WHERE id = ?`, id).Scan(&analysis); err != nil {
		return Entry{}, err
	}

	if err = tx.Commit(); err != nil {
		return Entry{}, err
	}

	entry := Entry{ID: id, ScannedAt: time.UnixMilli(scannedAt.UnixMilli()), Payload: classified}
	if entry.Analysis, err = decodeAnalysis(analysis); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// AttachAnalysis stores the latest analysis for an entry. The last write wins.
func (d *DB) AttachAnalysis(ctx context.Context, entryID string, result *reputation.Result) (*Analysis, error) {
	if result == nil {
		return nil, errors.New("no analysis to attach")
	}
	analysis := &Analysis{
		SnapshotID:     uuid.NewString(),
		Status:         result.Status,
		Verdict:        result.Verdict,
		Provider:       result.Provider,
		DetailsURL:     result.DetailsURL,
		Stats:          result.Stats,
		EngineFindings: result.EngineFindings,
		InternalList:   result.InternalList,
		LastAnalyzedAt: time.UnixMilli(d.now().UnixMilli()),
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}

	res, err := d.sql.ExecContext(ctx, `UPDATE history_entries SET analysis = ? WHERE id = ?`, string(raw), entryID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}
	return analysis, nil
}

// List returns entries newest first.
func (d *DB) List(ctx context.Context) ([]Entry, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, raw_value, scanned_at, analysis FROM history_entries ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) Get(ctx context.Context, entryID string) (Entry, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id, raw_value, scanned_at, analysis FROM history_entries WHERE id = ?`, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}
	return e, err
}

// Clear removes every entry and returns how many were removed.
func (d *DB) Clear(ctx context.Context) (int64, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM history_entries`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry rebuilds the payload from its raw value; classification is
// deterministic so only the raw value is stored.
func scanEntry(row rowScanner) (Entry, error) {
	var (
		e         Entry
		raw       string
		scannedAt int64
		analysis  sql.NullString
	)
	if err := row.Scan(&e.ID, &raw, &scannedAt, &analysis); err != nil {
		return Entry{}, err
	}
	e.ScannedAt = time.UnixMilli(scannedAt)
	e.Payload = payload.Classify(raw)

	var err error
	if e.Analysis, err = decodeAnalysis(analysis); err != nil {
		return Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	return e, nil
}

func decodeAnalysis(s sql.NullString) (*Analysis, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var a Analysis
	if err := json.Unmarshal([]byte(s.String), &a); err != nil {
		return nil, fmt.Errorf("corrupt analysis snapshot: %w", err)
	}
	return &a, nil
}
