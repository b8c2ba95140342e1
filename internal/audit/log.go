// Copyright 2025 Certen Protocol
//
// Verification Run Audit Log
// Records one row per Verify call to Postgres: the DID checked, the
// outcome, and (on failure) the ErrorKind/detail, for after-the-fact
// compliance review independent of whatever ephemeral logs a given
// deployment keeps.

package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/gobengo/trustchain/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Log is a connection-pooled Postgres audit log for verification runs.
type Log struct {
	db     *sql.DB
	logger *log.Logger
}

// Option is a functional option for configuring a Log.
type Option func(*Log)

// WithLogger sets a custom logger for the audit log.
func WithLogger(logger *log.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// Open opens a connection-pooled Postgres audit log per cfg.Database.
func Open(cfg *config.DatabaseSettings, opts ...Option) (*Log, error) {
	if cfg == nil {
		return nil, fmt.Errorf("audit: database config cannot be nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("audit: database URL cannot be empty")
	}

	l := &Log{logger: log.New(log.Writer(), "[audit] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(l)
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MinConnections)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime.Duration())
	db.SetConnMaxLifetime(cfg.MaxLifetime.Duration())
	l.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping database: %w", err)
	}
	return l, nil
}

// Close closes the underlying connection pool.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Run is one recorded verification attempt.
type Run struct {
	RunID                 uuid.UUID
	DID                   string
	Outcome               string // "verified", "failed"
	ErrorKind             string
	ErrorDetail           string
	RootDID               string
	ChainLength           int
	ExpectedRootTimestamp int64
	StartedAt             time.Time
	FinishedAt            time.Time
	Duration              time.Duration
}

// Record inserts one verification run row. A zero RunID is filled in
// with a fresh random one before the insert.
func (l *Log) Record(ctx context.Context, r Run) error {
	if r.RunID == uuid.Nil {
		r.RunID = uuid.New()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO verification_runs
			(run_id, did, outcome, error_kind, error_detail, root_did, chain_length,
			 expected_root_timestamp, started_at, finished_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.RunID, r.DID, r.Outcome, nullableString(r.ErrorKind), nullableString(r.ErrorDetail),
		nullableString(r.RootDID), r.ChainLength, r.ExpectedRootTimestamp,
		r.StartedAt, r.FinishedAt, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("audit: record run: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// migration is one embedded schema file.
type migration struct {
	Version string
	SQL     string
}

// MigrateUp applies every not-yet-applied embedded migration in order.
func (l *Log) MigrateUp(ctx context.Context) error {
	migrations, err := l.readMigrations()
	if err != nil {
		return fmt.Errorf("audit: read migrations: %w", err)
	}

	applied, err := l.appliedMigrations(ctx)
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("audit: read applied migrations: %w", err)
		}
		applied = make(map[string]bool)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		l.logger.Printf("applying %s", m.Version)
		if err := l.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("audit: apply migration %s: %w", m.Version, err)
		}
	}
	return nil
}

func (l *Log) readMigrations() ([]migration, error) {
	var migrations []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return err
		}
		migrations = append(migrations, migration{
			Version: strings.TrimSuffix(d.Name(), ".sql"),
			SQL:     string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func (l *Log) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (l *Log) applyMigration(ctx context.Context, m migration) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	return tx.Commit()
}
