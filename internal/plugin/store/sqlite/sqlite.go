// Package sqlite is the single-node store backend. Useful for local
// development and tests; production deployments use postgres.
package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/config"
	"github.com/empathai/chat-service/internal/model"
	"github.com/empathai/chat-service/internal/plugin/store/gormstore"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	registrymigrate "github.com/empathai/chat-service/internal/registry/migrate"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "sqlite",
		Loader: func(ctx context.Context) (registrystore.ChatStore, error) {
			cfg := config.FromContext(ctx)
			db, err := gorm.Open(sqlite.Open(cfg.DBURL), &gorm.Config{})
			if err != nil {
				return nil, fmt.Errorf("failed to open sqlite database: %w", err)
			}
			return gormstore.New(db, registrycache.RecallCacheFromContext(ctx)), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &sqliteMigrator{}})
}

type sqliteMigrator struct{}

func (m *sqliteMigrator) Name() string { return "sqlite-schema" }
func (m *sqliteMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg != nil && !cfg.DatastoreMigrateAtStart {
		return nil
	}
	if cfg.DatastoreType != "sqlite" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := gorm.Open(sqlite.Open(cfg.DBURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("migration: failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.Memory{},
		&model.PersonaProfile{},
	); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	log.Info("SQLite schema migration complete")
	return nil
}
