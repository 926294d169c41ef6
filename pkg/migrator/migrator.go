package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ghuser/itemlocations/pkg/logger"
)

// RunMigrations applies all pending goose migrations from files against dbURL
// and logs each applied version.
func RunMigrations(ctx context.Context, dbURL string, files fs.FS, log logger.Logger) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	provider, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}
	for _, res := range results {
		log.InfoContext(ctx, "migration applied",
			"version", res.Source.Version,
			"path", res.Source.Path,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "no pending migrations")
	}
	return nil
}
