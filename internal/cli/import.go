package cli

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/postgres"
	"trivia-room-service/internal/logging"
)

// newImportCmd loads a YAML question bank into Postgres.
func newImportCmd(opts *options) *cobra.Command {
	var file, bankID string
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a YAML question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return errNoPostgres
			}
			bank, err := memory.LoadBankFile(file, bankID)
			if err != nil {
				return err
			}
			if bankID != "" {
				bank.ID = bankID
			}
			if bank.ID == "" {
				return errors.New("bank id missing: set id in the file or pass --bank")
			}
			if err := migrateUp(cmd.Context(), cfg.Postgres.URL); err != nil {
				return err
			}

			db := postgres.OpenDB(cfg.Postgres.URL)
			defer db.Close()
			if err := postgres.NewBankWriter(db).Upsert(cmd.Context(), bank); err != nil {
				return err
			}
			log.Info().Str("bank", bank.ID).Int("questions", len(bank.Questions)).Msg("question bank imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a bank or a bare question list")
	cmd.Flags().StringVar(&bankID, "bank", "", "bank id, overrides the id in the file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
