// Package sweep provides a one-shot maintenance sweep over stored memories,
// for cron-style operation without a running server.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/config"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/empathai/chat-service/internal/service"
	"github.com/urfave/cli/v3"

	_ "github.com/empathai/chat-service/internal/plugin/store/postgres"
	_ "github.com/empathai/chat-service/internal/plugin/store/sqlite"
)

// Command returns the sweep sub-command.
func Command() *cli.Command {
	maxAgeDays := 90
	return &cli.Command{
		Name:  "sweep",
		Usage: "Archive stale memories and delete expired ones, then exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Sources:  cli.EnvVars("CHAT_SERVICE_DB_URL"),
				Usage:    "Database connection URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "db-kind",
				Sources: cli.EnvVars("CHAT_SERVICE_DB_KIND"),
				Usage:   "Store backend (postgres|sqlite)",
				Value:   "postgres",
			},
			&cli.IntFlag{
				Name:        "max-age-days",
				Sources:     cli.EnvVars("CHAT_SERVICE_MEMORY_SWEEP_MAX_AGE_DAYS"),
				Destination: &maxAgeDays,
				Value:       maxAgeDays,
				Usage:       "Age after which stale low-confidence memories are archived",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.DefaultConfig()
			cfg.DBURL = cmd.String("db-url")
			cfg.DatastoreType = cmd.String("db-kind")
			cfg.DatastoreMigrateAtStart = false
			ctx = config.WithContext(ctx, &cfg)

			storeLoader, err := registrystore.Select(cfg.DatastoreType)
			if err != nil {
				return err
			}
			store, err := storeLoader(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}

			maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
			sweeper := service.NewMemorySweeper(store, 0, maxAge)
			result, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			log.Info("Sweep finished", "archived", result.Archived, "deleted", result.Deleted)
			return nil
		},
	}
}
