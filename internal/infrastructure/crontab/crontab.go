package crontab

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

// CronJobTimeout bounds a single janitor sweep.
const CronJobTimeout = 10 * time.Minute

// Sweeper aborts stale multipart sessions.
type Sweeper interface {
	SweepStaleSessions(ctx context.Context) (upload.SweepReport, error)
}

// Crontab schedules the session janitor.
type Crontab struct {
	ctab    *crontab.Crontab
	sweeper Sweeper
	cfg     *config.Config
	log     zerolog.Logger
	running atomic.Bool
}

func NewCrontab(cfg *config.Config, sweeper Sweeper, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:    crontab.New(),
		sweeper: sweeper,
		cfg:     cfg,
		log:     log.With().Str("component", "janitor").Logger(),
	}
}

// Run sweeps once, then on the configured schedule until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	defer c.ctab.Shutdown()

	if !c.cfg.JanitorEnabled || !c.cfg.HasDatabase() {
		c.log.Warn().Bool("enabled", c.cfg.JanitorEnabled).Bool("ledger", c.cfg.HasDatabase()).Msg("session janitor disabled")
		<-ctx.Done()
		return nil
	}

	if err := c.ctab.AddJob(c.cfg.JanitorSchedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, CronJobTimeout)
		defer cancel()
		c.sweep(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add janitor job")
	}
	c.log.Info().Str("schedule", c.cfg.JanitorSchedule).Dur("max_age", c.cfg.SessionMaxAge).Msg("session janitor scheduled")

	// execute once on start
	startCtx, cancel := context.WithTimeout(ctx, CronJobTimeout)
	c.sweep(startCtx)
	cancel()

	<-ctx.Done()
	return nil
}

func (c *Crontab) sweep(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		c.log.Debug().Msg("previous sweep still running, skipping")
		return
	}
	defer c.running.Store(false)

	if _, err := c.sweeper.SweepStaleSessions(ctx); err != nil {
		c.log.Error().Err(err).Msg("session sweep failed")
	}
}
