package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/infrastructure/metrics"
)

// Backend is a storage implementation that can also report its health.
type Backend interface {
	upload.Storage
	Health(ctx context.Context) error
}

// NewBackend builds the storage backend selected by configuration.
func NewBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Backend, error) {
	if cfg.IsMinioStorage() {
		return NewMinioStorage(cfg, log)
	}
	return NewS3Storage(ctx, cfg, log)
}

// Guarded bounds every backend round-trip with a timeout and a circuit
// breaker. Signing is local and passes straight through.
type Guarded struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker[string]
	timeout time.Duration
	log     zerolog.Logger
}

func NewGuarded(backend Backend, cfg *config.Config, log zerolog.Logger) *Guarded {
	logger := log.With().Str("component", "storage-guard").Logger()
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "storage",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(breakerStateValue(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("storage circuit breaker state changed")
		},
		IsSuccessful: isInfrastructureHealthy,
	}

	return &Guarded{
		backend: backend,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		timeout: cfg.BackendTimeout,
		log:     logger,
	}
}

// isInfrastructureHealthy keeps domain outcomes and caller cancellation from
// tripping the breaker.
func isInfrastructureHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, upload.ErrSessionNotFound) ||
		errors.Is(err, upload.ErrPartMismatch) ||
		errors.Is(err, upload.ErrBackendRejected) ||
		errors.Is(err, context.Canceled)
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (g *Guarded) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*upload.SignedURL, error) {
	start := time.Now()
	url, err := g.backend.PresignPut(ctx, key, contentType, size, ttl)
	metrics.RecordPresign("put_object", time.Since(start).Seconds())
	return url, err
}

func (g *Guarded) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (*upload.SignedURL, error) {
	start := time.Now()
	url, err := g.backend.PresignUploadPart(ctx, key, uploadID, partNumber, ttl)
	metrics.RecordPresign("upload_part", time.Since(start).Seconds())
	return url, err
}

func (g *Guarded) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	return g.call(ctx, "create_multipart_upload", func(ctx context.Context) (string, error) {
		return g.backend.CreateMultipartUpload(ctx, key, contentType)
	})
}

func (g *Guarded) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []upload.Part) (string, error) {
	return g.call(ctx, "complete_multipart_upload", func(ctx context.Context) (string, error) {
		return g.backend.CompleteMultipartUpload(ctx, key, uploadID, parts)
	})
}

func (g *Guarded) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := g.call(ctx, "abort_multipart_upload", func(ctx context.Context) (string, error) {
		return "", g.backend.AbortMultipartUpload(ctx, key, uploadID)
	})
	return err
}

func (g *Guarded) DeleteObject(ctx context.Context, key string) error {
	_, err := g.call(ctx, "delete_object", func(ctx context.Context) (string, error) {
		return "", g.backend.DeleteObject(ctx, key)
	})
	return err
}

// Health reports the backend health and fails fast while the breaker is open.
func (g *Guarded) Health(ctx context.Context) error {
	if g.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit breaker open", upload.ErrBackendUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.backend.Health(ctx)
}

func (g *Guarded) call(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	result, err := g.breaker.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(callCtx)
	})

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
		err = fmt.Errorf("%w: %w", upload.ErrBackendUnavailable, err)
	case isInfrastructureHealthy(err):
		status = "client_error"
	default:
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, upload.ErrBackendUnavailable) {
			err = fmt.Errorf("%w: %w", upload.ErrBackendUnavailable, err)
		}
	}
	metrics.RecordStorageOperation(operation, status, time.Since(start).Seconds())

	if status == "error" || status == "rejected" {
		g.log.Warn().Err(err).Str("operation", operation).Dur("elapsed", time.Since(start)).Msg("storage operation failed")
	}
	return result, err
}
