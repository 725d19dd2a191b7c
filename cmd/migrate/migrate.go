// Package migrate implements the database migration command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkforge/linkwatch/internal/config"
	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/logger"
)

// Command returns the migrate cobra command. The serve command runs
// migrations on startup as well; this exists for deployments that apply
// schema changes as a separate step.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			if err := database.RunMigrations(cfg.Database); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			log.Info("migrations applied")
			return nil
		},
	}
}
