package database

import (
	"fmt"
	"io"
	"log"

	"product-catalog/internal/config"
	"product-catalog/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLite opens an embedded SQLite database through gorm and, when enabled,
// synchronises the product table from the model definition.
func NewSQLite(cfg config.DatabaseConfig, logger zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
	}

	logger.Info().Str("path", cfg.SQLitePath).Msg("opening sqlite database")

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&model.Product{}); err != nil {
			return nil, fmt.Errorf("failed to synchronise schema: %w", err)
		}
		logger.Info().Msg("sqlite schema synchronised")
	}

	return db, nil
}
