// Package migrations applies the embedded goose schema migrations for every
// supported SQL dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/go-sql-driver/mysql" // Register mysql driver for database/sql
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Register sqlite driver for database/sql
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var embedded embed.FS

// Dialect names accepted by this package.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// DriverFor returns the database/sql driver registered for a dialect.
func DriverFor(dialect string) (string, error) {
	switch dialect {
	case Postgres:
		return "pgx", nil
	case MySQL:
		return "mysql", nil
	case SQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported dialect %q", dialect)
}

func gooseDialect(dialect string) (goose.Dialect, error) {
	switch dialect {
	case Postgres:
		return goose.DialectPostgres, nil
	case MySQL:
		return goose.DialectMySQL, nil
	case SQLite:
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", dialect)
}

func newProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	d, err := gooseDialect(dialect)
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(embedded, dialect)
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", dialect, err)
	}
	p, err := goose.NewProvider(d, db, sub)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Up applies all pending migrations and returns how many were applied.
// Running it on an up-to-date schema is a no-op.
func Up(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("run migrations: %w", err)
	}
	return len(results), nil
}

// Version returns the current schema version, 0 when nothing is applied.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// Migration describes one embedded migration and whether it is applied.
type Migration struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Status lists every embedded migration with its state.
func Status(ctx context.Context, db *sql.DB, dialect string) ([]Migration, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Migration, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Migration{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// UpDSN opens a short-lived connection for dialect/dsn and applies pending
// migrations.
func UpDSN(ctx context.Context, dialect, dsn string) (int, error) {
	driver, err := DriverFor(dialect)
	if err != nil {
		return 0, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return 0, fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()
	return Up(ctx, db, dialect)
}
