// Package sqlite provides the durable local store backing the offline
// operation queue.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"nutrisync/config"
	"nutrisync/internal/domain/lifecycle"
	"nutrisync/internal/errors"
	"nutrisync/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the local SQLite database and migrates the key-value table.
func New(params Params) (*gorm.DB, error) {
	dbPath := params.Config.SQLite.Path
	if dbPath == "" {
		return nil, errors.New("sqlite path is not configured")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create sqlite directory")
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		// Single-writer local store. Queue mutations are whole-list swaps,
		// so per-statement implicit transactions add nothing.
		SkipDefaultTransaction: true,
		Logger:                 newGormSlogLogger(params.Logger, params.Config),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}

	if err := db.AutoMigrate(&model.KeyValueModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate local store")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sqlite sql.DB")
	}

	// Add lifecycle management
	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping sqlite")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return sqlDB.Close()
		},
	})

	return db, nil
}
