//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/infrastructure/auth"
	"learnhub/upload-broker/internal/infrastructure/crontab"
	"learnhub/upload-broker/internal/infrastructure/ratelimit"
	"learnhub/upload-broker/internal/infrastructure/repository/session"
	"learnhub/upload-broker/internal/infrastructure/storage"
	"learnhub/upload-broker/internal/interfaces/httpserver"
	"learnhub/upload-broker/internal/interfaces/httpserver/handlers"
)

var storageSet = wire.NewSet(
	storage.NewBackend,
	storage.NewGuarded,
	wire.Bind(new(upload.Storage), new(*storage.Guarded)),
	wire.Bind(new(httpserver.HealthChecker), new(*storage.Guarded)),
)

var uploadSet = wire.NewSet(
	upload.NewPolicySet,
	upload.NewKeyGenerator,
	ratelimit.NewLimiter,
	session.NewLedger,
	upload.NewService,
	wire.Bind(new(crontab.Sweeper), new(*upload.Service)),
)

// BuildApplication assembles the upload broker with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		storageSet,
		uploadSet,
		auth.NewValidator,
		handlers.NewProvider,
		httpserver.New,
		crontab.NewCrontab,
		NewApplication,
	)
	return nil, nil, nil
}
