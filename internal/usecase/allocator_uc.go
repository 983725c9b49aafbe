package usecase

import (
	"context"
	"errors"
	"math/rand"

	"github.com/rs/zerolog"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
	"immersive-english/internal/infra/metrics"
)

const (
	// allocCandidateLimit bounds the candidate fetch per attempt.
	allocCandidateLimit = 100
	// allocMaxAttempts bounds the claim loop. Correctness does not depend on
	// retries (the conditional update alone prevents double-claims); the loop
	// only improves the hit rate under short-lived contention.
	allocMaxAttempts = 3
)

// AllocatorUseCase hands out one unused access code per request, race-safe
// against concurrent requests claiming from the same pool.
type AllocatorUseCase struct {
	codes repository.AccessCodeRepository
	log   *zerolog.Logger
}

func NewAllocatorUseCase(codes repository.AccessCodeRepository, logger *zerolog.Logger) *AllocatorUseCase {
	return &AllocatorUseCase{codes: codes, log: logger}
}

// Allocate picks an unused code at random and claims it via a conditional
// status update. A zero-row update means another request won the race for that
// candidate; the loop then re-fetches and tries again.
//
// Returns domain.ErrNoCodeAvailable when the pool is empty or every attempt
// lost its race. That is a business outcome, not a server failure; callers must
// not map it to a 5xx.
func (uc *AllocatorUseCase) Allocate(ctx context.Context) (*model.AccessCode, error) {
	for attempt := 1; attempt <= allocMaxAttempts; attempt++ {
		candidates, err := uc.codes.ListAllocatable(ctx, nil, allocCandidateLimit)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			metrics.CodePoolExhausted()
			return nil, domain.ErrNoCodeAvailable
		}

		// Random pick spreads concurrent requests across the candidate set so
		// they rarely collide on the same row when the pool runs low.
		pick := candidates[rand.Intn(len(candidates))]

		claimed, err := uc.codes.Reserve(ctx, nil, pick.Code)
		if err != nil {
			return nil, err
		}
		if claimed {
			metrics.CodeClaimed(attempt)
			uc.log.Debug().Str("code", pick.Code).Int("attempt", attempt).Msg("access code reserved")
			pick.Status = model.CodeStatusReserved
			return pick, nil
		}

		metrics.CodeClaimConflict()
		uc.log.Debug().Str("code", pick.Code).Int("attempt", attempt).Msg("claim lost, retrying")
	}

	// Every attempt lost its race. Treat like an empty pool rather than an
	// internal error; the user can simply try again.
	uc.log.Info().Int("attempts", allocMaxAttempts).Msg("allocation retries exhausted")
	return nil, domain.ErrNoCodeAvailable
}

// IsNoCodeAvailable reports whether err is the soft empty-pool outcome.
func IsNoCodeAvailable(err error) bool {
	return errors.Is(err, domain.ErrNoCodeAvailable)
}
