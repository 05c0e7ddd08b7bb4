package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

const schema = `
CREATE TABLE IF NOT EXISTS region_snapshots (
	region     TEXT PRIMARY KEY,
	data_time  TEXT NOT NULL,
	score      REAL NOT NULL,
	category   TEXT NOT NULL,
	pm10       REAL NOT NULL,
	pm25       REAL NOT NULL,
	written_at TIMESTAMP NOT NULL
);`

// SQLiteStore mirrors the latest snapshot set into a single table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func buildDSN(path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{"_busy_timeout=5000", "_journal_mode=WAL"}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// WriteSnapshots replaces the table contents in one transaction.
func (s *SQLiteStore) WriteSnapshots(ctx context.Context, snapshots []airquality.RegionSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM region_snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO region_snapshots (region, data_time, score, category, pm10, pm25, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	writtenAt := s.now().UTC()
	for _, snap := range snapshots {
		if _, err := stmt.ExecContext(ctx,
			snap.Region, snap.DataTime, snap.Score, string(snap.Category), snap.PM10, snap.PM25, writtenAt,
		); err != nil {
			return fmt.Errorf("insert %s: %w", snap.Region, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the stored snapshots ordered by region.
func (s *SQLiteStore) List(ctx context.Context) ([]airquality.RegionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, data_time, score, category, pm10, pm25
		FROM region_snapshots
		ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []airquality.RegionSnapshot
	for rows.Next() {
		var (
			snap     airquality.RegionSnapshot
			category string
		)
		if err := rows.Scan(&snap.Region, &snap.DataTime, &snap.Score, &category, &snap.PM10, &snap.PM25); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Category = airquality.Category(category)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
