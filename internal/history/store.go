// Package history keeps an SQLite log of conversion outcomes.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MimeLyc/comic-packer/internal/batch"
	"github.com/MimeLyc/comic-packer/internal/packerr"
)

const defaultListLimit = 20

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Record is one stored outcome.
type Record struct {
	ID        string
	BatchID   string
	Source    string
	Output    string
	Status    string
	ErrorKind string
	Error     string
	Pages     int
	Size      int64
	CreatedAt time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		version := migrationVersion(entry.Name())
		if entry.IsDir() || version <= 0 {
			continue
		}
		var applied int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, s.now().UnixMilli()); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion is the leading integer of a migration file name
// ("001_init.sql" -> 1), or 0 when there is none.
func migrationVersion(name string) int {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(name[:end])
	return n
}

// RecordOutcome stores a batch outcome; it satisfies batch.Recorder.
func (s *Store) RecordOutcome(ctx context.Context, batchID string, o batch.Outcome) error {
	rec := Record{
		BatchID: batchID,
		Source:  o.Path,
		Status:  o.Status.String(),
	}
	if o.Output != nil {
		rec.Output = o.Output.Path
		rec.Pages = o.Output.PageCount
		rec.Size = int64(o.Output.Size)
	}
	if o.Err != nil {
		rec.ErrorKind = packerr.KindOf(o.Err).String()
		rec.Error = o.Err.Error()
	}
	return s.Insert(ctx, rec)
}

// Insert stores rec, filling ID and CreatedAt when empty.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, batch_id, source, output, status, error_kind, error, pages, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.BatchID, rec.Source, rec.Output, rec.Status, rec.ErrorKind, rec.Error,
		rec.Pages, rec.Size, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert conversion %s: %w", rec.ID, err)
	}
	return nil
}

// List returns the newest records first. limit <= 0 uses a default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	return s.query(ctx,
		`SELECT id, batch_id, source, output, status, error_kind, error, pages, size, created_at
		 FROM conversions
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, normalizeLimit(limit))
}

// ListBatch returns the records of one run in insertion order.
func (s *Store) ListBatch(ctx context.Context, batchID string) ([]Record, error) {
	return s.query(ctx,
		`SELECT id, batch_id, source, output, status, error_kind, error, pages, size, created_at
		 FROM conversions
		 WHERE batch_id = ?
		 ORDER BY rowid ASC`, batchID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(
			&rec.ID,
			&rec.BatchID,
			&rec.Source,
			&rec.Output,
			&rec.Status,
			&rec.ErrorKind,
			&rec.Error,
			&rec.Pages,
			&rec.Size,
			&createdAt,
		); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		ret = append(ret, rec)
	}
	return ret, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
