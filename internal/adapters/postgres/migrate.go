package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Tables names the configurable collections. Empty fields fall back to the defaults.
type Tables struct {
	SavedTrips string
	Reviews    string
}

const migrationLockID int64 = 0x7472697073

const (
	DefaultSavedTripsTable = "saved_trips"
	DefaultReviewsTable    = "trip_reviews"
)

func (t Tables) withDefaults() Tables {
	if t.SavedTrips == "" {
		t.SavedTrips = DefaultSavedTripsTable
	}
	if t.Reviews == "" {
		t.Reviews = DefaultReviewsTable
	}
	return t
}

// Migrate applies every embedded migration in lexical order inside a single transaction.
// Migrations are written to be re-runnable.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables Tables) error {
	if pool == nil {
		return ErrNilPool
	}
	tables = tables.withDefaults()
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	repl := strings.NewReplacer(
		"{{saved_trips}}", pgx.Identifier{tables.SavedTrips}.Sanitize(),
		"{{reviews}}", pgx.Identifier{tables.Reviews}.Sanitize(),
	)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		// Serialize concurrent migrators (parallel test packages, rolling deploys).
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return err
		}
		for _, name := range names {
			b, err := migrationFiles.ReadFile(name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, repl.Replace(string(b))); err != nil {
				return fmt.Errorf("migration %s: %w", name, err)
			}
		}
		return nil
	})
}
