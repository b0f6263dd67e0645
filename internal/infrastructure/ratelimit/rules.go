package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
)

// Rules is the number of requests each rule admits per window. A rule with
// no entry, or a non-positive limit, is unlimited.
type Rules map[upload.Rule]int

// RulesFromConfig returns the per-rule ceilings from configuration.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		upload.RuleSimpleUpload:      cfg.RateLimitSimple,
		upload.RuleMultipartInitiate: cfg.RateLimitInitiate,
		upload.RuleMultipartSignPart: cfg.RateLimitSignPart,
		upload.RuleMultipartComplete: cfg.RateLimitComplete,
		upload.RuleMultipartAbort:    cfg.RateLimitAbort,
		upload.RuleDelete:            cfg.RateLimitDelete,
	}
}

// Unlimited admits every request.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, upload.Rule, string) (bool, error) {
	return true, nil
}

// NewLimiter builds the limiter selected by configuration. The returned
// cleanup releases backend connections.
func NewLimiter(cfg *config.Config, log zerolog.Logger) (upload.Limiter, func(), error) {
	rules := RulesFromConfig(cfg)
	logger := log.With().Str("component", "rate-limit").Logger()

	switch cfg.RateLimitBackend {
	case "off":
		logger.Warn().Msg("admission control disabled")
		return Unlimited{}, func() {}, nil
	case "redis":
		limiter, err := NewRedisLimiter(cfg.RateLimitRedisURL, rules, cfg.RateLimitWindow)
		if err != nil {
			return nil, nil, fmt.Errorf("redis rate limiter: %w", err)
		}
		logger.Info().Dur("window", cfg.RateLimitWindow).Msg("redis admission control enabled")
		return limiter, func() {
			if err := limiter.Close(); err != nil {
				logger.Warn().Err(err).Msg("close redis rate limiter")
			}
		}, nil
	default:
		limiter, err := NewMemoryLimiter(rules, cfg.RateLimitWindow, cfg.RateLimitMaxFingerprint)
		if err != nil {
			return nil, nil, fmt.Errorf("memory rate limiter: %w", err)
		}
		logger.Info().Dur("window", cfg.RateLimitWindow).Msg("in-memory admission control enabled")
		return limiter, func() {}, nil
	}
}

func normalizeWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return time.Minute
	}
	return window
}
