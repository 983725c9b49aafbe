package usecase

import (
	"context"
	"errors"
	"time"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

// CodeVerdict is the redemption gate's read-only answer for one code.
type CodeVerdict struct {
	Code      string
	Valid     bool
	Reason    error // one of ErrCodeNotFound, ErrCodeExpired, ErrCodeAlreadyUsed; nil when Valid
	Kind      model.CodeKind
	ValidDays *int
}

// RedemptionUseCase re-validates a code when the visitor lands on the claim
// link. A code can arrive here from the allocator redirect or from a shared
// link typed by hand, so validity is derived from the stored row alone, never
// from the caller's claimed state. Read-only and idempotent.
type RedemptionUseCase struct {
	codes repository.AccessCodeRepository
	now   func() time.Time
}

func NewRedemptionUseCase(codes repository.AccessCodeRepository) *RedemptionUseCase {
	return &RedemptionUseCase{codes: codes, now: time.Now}
}

// Inspect classifies a code's current state. The decision table:
//
//	row absent          -> invalid, ErrCodeNotFound
//	expired (either by  -> invalid, ErrCodeExpired
//	  status or expires_at)
//	active              -> invalid, ErrCodeAlreadyUsed
//	unused or reserved  -> valid, kind/valid_days carried for messaging
//
// Store errors are returned as-is; they are transient failures, not verdicts.
func (uc *RedemptionUseCase) Inspect(ctx context.Context, code string) (*CodeVerdict, error) {
	if code == "" {
		return &CodeVerdict{Code: code, Reason: domain.ErrCodeNotFound}, nil
	}

	row, err := uc.codes.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CodeVerdict{Code: code, Reason: domain.ErrCodeNotFound}, nil
		}
		return nil, err
	}

	now := uc.now()
	switch {
	case row.IsExpired(now):
		return &CodeVerdict{Code: code, Reason: domain.ErrCodeExpired}, nil
	case row.Status == model.CodeStatusActive:
		return &CodeVerdict{Code: code, Reason: domain.ErrCodeAlreadyUsed}, nil
	case row.Redeemable(now):
		return &CodeVerdict{Code: code, Valid: true, Kind: row.Kind, ValidDays: row.ValidDays}, nil
	default:
		// Unreachable given the status enum, but keep the gate closed.
		return &CodeVerdict{Code: code, Reason: domain.ErrCodeNotFound}, nil
	}
}
