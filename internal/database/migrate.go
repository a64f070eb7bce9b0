package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/nestmap/nestmap/migrations"
)

// Migrate applies all pending schema migrations. goose works on
// database/sql, so the pool is wrapped for the duration of the run.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		log.Info().
			Str("migration", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("migration applied")
	}
	return nil
}
