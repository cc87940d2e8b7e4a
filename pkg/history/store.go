// Package history records confirmed picks in a SQLite database so a later
// run can resume from the last one.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/cpick/pkg/model"
)

// ErrNoPicks is returned when no pick has been recorded for a source.
var ErrNoPicks = errors.New("no recorded picks")

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS picks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source     TEXT NOT NULL,
	path       TEXT NOT NULL,
	labels     TEXT NOT NULL,
	text       TEXT NOT NULL,
	picked_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_picks_source ON picks(source, id);
`

// Pick is one confirmed selection.
type Pick struct {
	ID       int64      `json:"id"`
	Source   string     `json:"source"`
	Path     model.Path `json:"path"`
	Labels   []string   `json:"labels"`
	Text     string     `json:"text"`
	PickedAt time.Time  `json:"picked_at"`
}

// Store is a pick history backed by SQLite.
type Store struct {
	db *sql.DB
}

// SourceKey identifies a set of data files independent of argument spelling.
func SourceKey(paths []string) string {
	keys := make([]string, len(paths))
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && p != "-" {
			p = abs
		}
		keys[i] = p
	}
	return strings.Join(keys, "|")
}

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaV1); err != nil {
		return err
	}
	var version int
	err := db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion)
		return err
	case err != nil:
		return err
	case version > schemaVersion:
		return fmt.Errorf("history schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores p. A zero PickedAt is set to now.
func (s *Store) Record(ctx context.Context, p Pick) (int64, error) {
	if p.PickedAt.IsZero() {
		p.PickedAt = time.Now()
	}
	if p.Path == nil {
		p.Path = model.Path{}
	}
	if p.Labels == nil {
		p.Labels = []string{}
	}
	path, err := json.Marshal(p.Path)
	if err != nil {
		return 0, fmt.Errorf("encode path: %w", err)
	}
	labels, err := json.Marshal(p.Labels)
	if err != nil {
		return 0, fmt.Errorf("encode labels: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO picks (source, path, labels, text, picked_at) VALUES (?, ?, ?, ?, ?)`,
		p.Source, string(path), string(labels), p.Text, p.PickedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record pick: %w", err)
	}
	return res.LastInsertId()
}

// Last returns the most recent pick for source.
func (s *Store) Last(ctx context.Context, source string) (Pick, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, path, labels, text, picked_at FROM picks
		 WHERE source = ? ORDER BY id DESC LIMIT 1`, source)
	p, err := scanPick(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Pick{}, fmt.Errorf("%s: %w", source, ErrNoPicks)
	}
	return p, err
}

// Recent returns up to limit picks across all sources, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Pick, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, path, labels, text, picked_at FROM picks
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	var picks []Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPick(sc scanner) (Pick, error) {
	var (
		p                      Pick
		path, labels, pickedAt string
	)
	if err := sc.Scan(&p.ID, &p.Source, &path, &labels, &p.Text, &pickedAt); err != nil {
		return Pick{}, err
	}
	if err := json.Unmarshal([]byte(path), &p.Path); err != nil {
		return Pick{}, fmt.Errorf("decode path of pick %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(labels), &p.Labels); err != nil {
		return Pick{}, fmt.Errorf("decode labels of pick %d: %w", p.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, pickedAt)
	if err != nil {
		return Pick{}, fmt.Errorf("decode time of pick %d: %w", p.ID, err)
	}
	p.PickedAt = t
	return p, nil
}
