package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/infrastructure/database"
)

// NewLedger connects the ledger database and applies migrations, or falls
// back to NoopLedger when no database is configured.
func NewLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) (upload.SessionLedger, func(), error) {
	logger := log.With().Str("component", "session-ledger").Logger()
	if !cfg.HasDatabase() {
		logger.Warn().Msg("DB_POSTGRESQL_WRITE_DSN not set; multipart sessions are not tracked and the janitor is disabled")
		return NoopLedger{}, func() {}, nil
	}

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect ledger database: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if err := database.AutoMigrate(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate ledger database: %w", err)
	}
	return NewRepository(db), cleanup, nil
}
