// Package sqlitestore keeps histograms in a SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-fitty/histogram"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned by Load for an unknown histogram.
var ErrNotFound = errors.New("sqlitestore: histogram not found")

// Store persists histograms in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating when needed) a SQLite histogram store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// List returns the stored histogram names in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM histograms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list histograms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan histogram name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list histograms: %w", err)
	}
	return names, nil
}

// Load reads one histogram by name.
func (s *Store) Load(ctx context.Context, name string) (*histogram.H1, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var (
		axisMin, axisMax float64
		bins             int
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT axis_min, axis_max, bins FROM histograms WHERE name = ?`, name,
	).Scan(&axisMin, &axisMax, &bins)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load histogram %s: %w", name, err)
	}

	contents := make([]float64, bins+2)
	sumw2 := make([]float64, bins+2)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT idx, content, sumw2 FROM bins WHERE histogram = ? ORDER BY idx`, name)
	if err != nil {
		return nil, fmt.Errorf("load bins of %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			idx        int
			content, w float64
		)
		if err := rows.Scan(&idx, &content, &w); err != nil {
			return nil, fmt.Errorf("scan bin of %s: %w", name, err)
		}
		if idx < 0 || idx >= len(contents) {
			return nil, fmt.Errorf("load bins of %s: bin %d out of range", name, idx)
		}
		contents[idx], sumw2[idx] = content, w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bins of %s: %w", name, err)
	}
	return histogram.FromBins(name, axisMin, axisMax, contents, sumw2)
}

// Save writes h, replacing any histogram of the same name. Empty bins are
// not stored.
func (s *Store) Save(ctx context.Context, h *histogram.H1) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("histogram is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bins WHERE histogram = ?`, h.Name()); err != nil {
		return fmt.Errorf("clear bins of %s: %w", h.Name(), err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO histograms (name, axis_min, axis_max, bins, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   axis_min = excluded.axis_min,
		   axis_max = excluded.axis_max,
		   bins = excluded.bins,
		   updated_at = excluded.updated_at`,
		h.Name(), h.Min(), h.Max(), h.Bins(), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save histogram %s: %w", h.Name(), err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bins (histogram, idx, content, sumw2) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bins: %w", err)
	}
	defer stmt.Close()
	contents, sumw2 := h.Contents(), h.SumW2()
	for i := range contents {
		if contents[i] == 0 && sumw2[i] == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, h.Name(), i, contents[i], sumw2[i]); err != nil {
			return fmt.Errorf("save bin %d of %s: %w", i, h.Name(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}
