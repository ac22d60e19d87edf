// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns persists operator-confirmed extractions keyed by vendor
// signature and field, so later documents with the same layout can be
// extracted from the remembered context.
package patterns

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "data/patterns.db"

// backoffBase is the first wait after a busy database. Tests override it.
var backoffBase = 50 * time.Millisecond

const maxBusyRetries = 4

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed pattern store. It is safe for concurrent use;
// each Record is a single upsert statement.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the pattern database and its schema.
func Open(cfg types.PatternsConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating pattern directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "opening pattern database")
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating pattern schema")
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patterns (
			signature TEXT NOT NULL,
			field TEXT NOT NULL,
			confirmed_value TEXT NOT NULL,
			header TEXT NOT NULL DEFAULT '',
			neighborhood TEXT NOT NULL DEFAULT '',
			vendor_key TEXT NOT NULL DEFAULT '',
			source_filename TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (signature, field)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_field ON patterns(field)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// upsertSQL only touches an existing row when its value or context differs,
// so recording the same confirmation twice leaves the row unchanged.
const upsertSQL = `INSERT INTO patterns
	(signature, field, confirmed_value, header, neighborhood, vendor_key, source_filename, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(signature, field) DO UPDATE SET
		confirmed_value = excluded.confirmed_value,
		header = excluded.header,
		neighborhood = excluded.neighborhood,
		vendor_key = excluded.vendor_key,
		source_filename = excluded.source_filename,
		updated_at = excluded.updated_at
	WHERE patterns.confirmed_value <> excluded.confirmed_value
		OR patterns.header <> excluded.header
		OR patterns.neighborhood <> excluded.neighborhood`

// Record inserts or replaces the pattern for (VendorSignature, Field).
// Concurrent writers to one key resolve last-write-wins.
func (s *Store) Record(ctx context.Context, p types.LearnedPattern) error {
	if p.VendorSignature == "" {
		return &types.StorageError{Op: "record", Err: errors.New("empty vendor signature")}
	}
	if !p.Field.Valid() {
		return &types.InvalidValueError{Field: p.Field, Value: p.ConfirmedValue, Reason: "unknown field"}
	}

	now := s.now().UTC().Format(timeLayout)
	err := withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, upsertSQL,
			p.VendorSignature, string(p.Field), p.ConfirmedValue,
			p.Context.Header, p.Context.Neighborhood,
			p.VendorKey, p.SourceFilename, now, now,
		)
		return err
	})
	if err != nil {
		return &types.StorageError{Op: "record", Err: err}
	}

	zap.L().Debug("pattern recorded",
		zap.String("signature", p.VendorSignature),
		zap.String("field", string(p.Field)),
		zap.String("header", p.Context.Header))
	return nil
}

const selectColumns = `signature, field, confirmed_value, header, neighborhood,
	vendor_key, source_filename, created_at, updated_at`

// Lookup returns the pattern for signature and field, or nil when none has
// been learned.
func (s *Store) Lookup(ctx context.Context, signature string, field types.Field) (*types.LearnedPattern, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM patterns WHERE signature = ? AND field = ?`,
		signature, string(field))

	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.StorageError{Op: "lookup", Err: err}
	}
	return p, nil
}

// List returns every pattern ordered by signature and field.
func (s *Store) List(ctx context.Context) ([]types.LearnedPattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM patterns ORDER BY signature, field`)
	if err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []types.LearnedPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, &types.StorageError{Op: "list", Err: err}
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	return out, nil
}

// Stats summarizes the store. It is read-only.
func (s *Store) Stats(ctx context.Context) (types.PatternStats, error) {
	stats := types.PatternStats{FieldsCovered: make(map[types.Field]int)}

	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT signature), MAX(updated_at) FROM patterns`,
	).Scan(&stats.PatternCount, &stats.VendorCount, &last)
	if err != nil {
		return stats, &types.StorageError{Op: "stats", Err: err}
	}
	if last.Valid && last.String != "" {
		if t, err := time.Parse(timeLayout, last.String); err == nil {
			stats.LastUpdated = &t
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT field, COUNT(*) FROM patterns GROUP BY field`)
	if err != nil {
		return stats, &types.StorageError{Op: "stats", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var (
			field string
			n     int
		)
		if err := rows.Scan(&field, &n); err != nil {
			return stats, &types.StorageError{Op: "stats", Err: err}
		}
		stats.FieldsCovered[types.Field(field)] = n
	}
	if err := rows.Err(); err != nil {
		return stats, &types.StorageError{Op: "stats", Err: err}
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(sc scanner) (*types.LearnedPattern, error) {
	var (
		p                types.LearnedPattern
		field            string
		created, updated string
	)
	err := sc.Scan(&p.VendorSignature, &field, &p.ConfirmedValue,
		&p.Context.Header, &p.Context.Neighborhood,
		&p.VendorKey, &p.SourceFilename, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Field = types.Field(field)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &p, nil
}

// withBusyRetry runs op, retrying with exponential backoff while SQLite
// reports the database busy or locked.
func withBusyRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= maxBusyRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err = op(); err == nil || !isBusy(err) {
			return err
		}
		zap.L().Debug("pattern store busy, retrying", zap.Int("attempt", attempt+1))
	}
	return eris.Wrapf(err, "after %d retries", maxBusyRetries)
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}
