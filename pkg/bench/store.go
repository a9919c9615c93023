package bench

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jpfielding/blockdct/pkg/util"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrUnknownRun is returned when a run id is not in the history.
var ErrUnknownRun = errors.New("unknown benchmark run")

// Store keeps benchmark history in a sqlite database.
type Store struct {
	db *sql.DB
}

// Run is one stored benchmark run.
type Run struct {
	ID         string
	ConfigID   string
	StartedAt  time.Time
	Iterations int
}

// OpenStore opens or creates the history database at path and applies
// pending migrations.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	db.SetMaxOpenConns(1)
	if err := migrate(ctx, db, migrationFS); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		filename   TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM _migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO _migrations (filename) VALUES (?)", name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
		slog.DebugContext(ctx, "applied migration", "file", name)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ConfigID identifies a harness configuration; runs with the same
// strategies, sizes and iterations share it.
func ConfigID(h *Harness) string {
	return util.HashUUID(struct {
		Strategies []string `json:"strategies"`
		Sizes      []int    `json:"sizes"`
		Iterations int      `json:"iterations"`
	}{h.Names(), h.Sizes, h.iterations()})
}

// Begin stores a new run for h and returns a sink recording into it.
func (s *Store) Begin(ctx context.Context, h *Harness, started time.Time) (*RunSink, error) {
	run := Run{
		ID:         uuid.NewString(),
		ConfigID:   ConfigID(h),
		StartedAt:  started.UTC(),
		Iterations: h.iterations(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, config_id, started_at, iterations) VALUES (?, ?, ?, ?)`,
		run.ID, run.ConfigID, run.StartedAt.Format(time.RFC3339Nano), run.Iterations)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &RunSink{Run: run, store: s, ctx: ctx, names: h.Names()}, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, config_id, started_at, iterations FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.ConfigID, &started, &r.Iterations); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Records returns the strategy names, in insertion order, and the records
// of one run ordered by size.
func (s *Store) Records(ctx context.Context, runID string) ([]string, []Record, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, nil, err
	}
	if exists == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT size, strategy, seconds FROM records WHERE run_id = ? ORDER BY size, rowid`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var names []string
	seen := map[string]bool{}
	var records []Record
	for rows.Next() {
		var size int
		var name string
		var secs float64
		if err := rows.Scan(&size, &name, &secs); err != nil {
			return nil, nil, err
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		if len(records) == 0 || records[len(records)-1].Size != size {
			records = append(records, Record{Size: size, Seconds: map[string]float64{}})
		}
		records[len(records)-1].Seconds[name] = secs
	}
	return names, records, rows.Err()
}

// RunSink writes the records of one run to the store.
type RunSink struct {
	Run
	store *Store
	ctx   context.Context
	names []string
}

func (r *RunSink) WriteRecord(rec Record) error {
	tx, err := r.store.db.BeginTx(r.ctx, nil)
	if err != nil {
		return err
	}
	for _, name := range r.names {
		secs, ok := rec.Seconds[name]
		if !ok {
			tx.Rollback()
			return fmt.Errorf("record N=%d has no time for %q", rec.Size, name)
		}
		_, err := tx.ExecContext(r.ctx,
			`INSERT INTO records (run_id, size, strategy, seconds) VALUES (?, ?, ?, ?)`,
			r.ID, rec.Size, name, secs)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record N=%d %s: %w", rec.Size, name, err)
		}
	}
	return tx.Commit()
}

// Close is a no-op; the Store owns the database handle.
func (r *RunSink) Close() error {
	return nil
}
