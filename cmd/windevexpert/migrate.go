package main

import (
	"context"
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/windevexpert/windevexpert/internal/adapter/migrations"
	"github.com/windevexpert/windevexpert/internal/adapter/sqlstore"
	"github.com/windevexpert/windevexpert/internal/adapter/storage"
	"github.com/windevexpert/windevexpert/internal/config"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, dialect string) error {
				n, err := migrations.Up(ctx, db, dialect)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied (%s)\n", n, dialect)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrationDB(cmd.Context(), func(ctx context.Context, db *sql.DB, dialect string) error {
				list, err := migrations.Status(ctx, db, dialect)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, m := range list {
					state, at := "pending", "-"
					if m.Applied {
						state, at = "applied", m.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Version, state, at, m.Path)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

// migrationTarget resolves the database the server would use: PostgreSQL
// from DATABASE_URL, or the fallback target.
func migrationTarget(cfg *config.Config) (sqlstore.Dialect, string, error) {
	if storage.IsPostgresURL(cfg.Database.URL) {
		return sqlstore.Postgres, cfg.Database.URL, nil
	}
	return storage.FallbackTarget(cfg.Database, cfg.Installer.DataPath())
}

func withMigrationDB(ctx context.Context, fn func(ctx context.Context, db *sql.DB, dialect string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dialect, dsn, err := migrationTarget(cfg)
	if err != nil {
		return err
	}
	db, err := sqlstore.OpenDB(ctx, dialect, dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(ctx, db, string(dialect))
}
