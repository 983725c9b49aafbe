package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"immersive-english/internal/domain/ports/repository"
	"immersive-english/internal/infra/metrics"
)

// PoolWorker periodically tidies the access code pool: abandoned reservations
// go back to unused, and codes past their expiry window are retired. Both
// sweeps are conditional bulk updates, so concurrent allocations stay safe.
type PoolWorker struct {
	interval       time.Duration
	reservationTTL time.Duration
	codes          repository.AccessCodeRepository
	log            *zerolog.Logger
}

func NewPoolWorker(interval, reservationTTL time.Duration, codes repository.AccessCodeRepository, logger *zerolog.Logger) *PoolWorker {
	wlog := logger.With().Str("component", "PoolWorker").Logger()
	return &PoolWorker{
		interval:       interval,
		reservationTTL: reservationTTL,
		codes:          codes,
		log:            &wlog,
	}
}

func (w *PoolWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting pool worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PoolWorker) sweep(ctx context.Context) {
	now := time.Now()

	released, err := w.codes.ReleaseStale(ctx, nil, now.Add(-w.reservationTTL))
	if err != nil {
		w.log.Error().Err(err).Msg("release stale reservations failed")
	} else if released > 0 {
		metrics.CodesReleased(released)
		w.log.Info().Int64("count", released).Msg("stale reservations released")
	}

	expired, err := w.codes.ExpireOverdue(ctx, nil, now)
	if err != nil {
		w.log.Error().Err(err).Msg("expire overdue codes failed")
	} else if expired > 0 {
		metrics.CodesExpired(expired)
		w.log.Info().Int64("count", expired).Msg("overdue codes expired")
	}
}
