package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"

	"trivia-room-service/internal/infra/postgres"
	pgmigrations "trivia-room-service/internal/infra/postgres/migrations"
	"trivia-room-service/internal/logging"
)

var errNoPostgres = errors.New("postgres url not configured")

// newMigrateCmd applies database migrations.
func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return errNoPostgres
			}
			return migrateUp(cmd.Context(), cfg.Postgres.URL)
		},
	}
}

func migrateUp(ctx context.Context, dsn string) error {
	db := postgres.OpenDB(dsn)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Info().Msg("database schema up to date")
		return nil
	}
	log.Info().Str("group", group.String()).Msg("migrations applied")
	return nil
}
