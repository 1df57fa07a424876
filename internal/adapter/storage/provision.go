package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/windevexpert/windevexpert/internal/adapter/migrations"
	"github.com/windevexpert/windevexpert/internal/adapter/sqlstore"
	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/port/database"
)

// Provisioner prepares the database described by an installation
// configuration. Every method opens a short-lived connection.
type Provisioner struct {
	// DataDir hosts SQLite files with a relative name.
	DataDir string
}

func (p Provisioner) target(c install.Config) (sqlstore.Dialect, string) {
	return sqlstore.Dialect(c.DBType.Dialect()), c.DSN(p.DataDir)
}

// Check reports whether the database is reachable without creating
// anything. A SQLite file that does not exist yet passes when its directory
// could be created.
func (p Provisioner) Check(ctx context.Context, c install.Config) error {
	if c.DBType == install.DBSQLite {
		path := c.SQLitePath(p.DataDir)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return writableAncestor(filepath.Dir(path))
		}
	}
	dialect, dsn := p.target(c)
	db, err := sqlstore.OpenDB(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	return db.Close()
}

// Prepare opens the database, creating the SQLite file when needed.
func (p Provisioner) Prepare(ctx context.Context, c install.Config) error {
	dialect, dsn := p.target(c)
	db, err := sqlstore.OpenDB(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	return db.Close()
}

// Migrate applies pending migrations and returns how many ran.
func (p Provisioner) Migrate(ctx context.Context, c install.Config) (int, error) {
	dialect, dsn := p.target(c)
	db, err := sqlstore.OpenDB(ctx, dialect, dsn)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	return migrations.Up(ctx, db, string(dialect))
}

// Users opens the user repository of the configured database. The caller
// must invoke the returned close function.
func (p Provisioner) Users(ctx context.Context, c install.Config) (database.UserRepository, func(), error) {
	dialect, dsn := p.target(c)
	s, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// writableAncestor walks up from dir to the first existing directory and
// checks that a file can be created in it.
func writableAncestor(dir string) error {
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return CheckWritable(dir)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return fmt.Errorf("no existing parent for %s", dir)
		}
		dir = parent
	}
}

// CheckWritable reports whether a file can be created in the existing
// directory dir.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".wde-write-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
