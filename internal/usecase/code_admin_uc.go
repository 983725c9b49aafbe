package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

// CodeAdminUseCase covers the out-of-band code pool management: batch
// generation, listing and administrative expiry.
type CodeAdminUseCase struct {
	codes repository.AccessCodeRepository
	log   *zerolog.Logger
}

func NewCodeAdminUseCase(codes repository.AccessCodeRepository, logger *zerolog.Logger) *CodeAdminUseCase {
	return &CodeAdminUseCase{codes: codes, log: logger}
}

// GenerateBatch mints n fresh unused codes. Trial codes require validDays > 0.
func (uc *CodeAdminUseCase) GenerateBatch(ctx context.Context, n int, kind model.CodeKind, validDays *int, expiresAt *time.Time) ([]*model.AccessCode, error) {
	if n <= 0 || n > 1000 {
		return nil, domain.ErrInvalidArgument
	}

	out := make([]*model.AccessCode, 0, n)
	for i := 0; i < n; i++ {
		raw, err := generateAccessCode()
		if err != nil {
			return nil, err
		}
		code, err := model.NewAccessCode(raw, kind, validDays, expiresAt)
		if err != nil {
			return nil, err
		}
		if err := uc.codes.Save(ctx, nil, code); err != nil {
			// Collision on the random code is the only expected duplicate; one
			// more draw is plenty at this keyspace.
			if errors.Is(err, domain.ErrAlreadyExists) {
				i--
				continue
			}
			return nil, err
		}
		out = append(out, code)
	}
	uc.log.Info().Int("count", len(out)).Str("kind", string(kind)).Msg("access codes generated")
	return out, nil
}

// List pages through the pool, optionally filtered by status.
func (uc *CodeAdminUseCase) List(ctx context.Context, status model.CodeStatus, offset, limit int) ([]*model.AccessCode, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.codes.List(ctx, nil, status, offset, limit)
}

// Expire administratively retires a code. The transition is a single
// conditional update (unused|reserved -> expired), so a registration that
// activates the code concurrently keeps its activation; this path never
// overwrites a row it did not win. Idempotent for already expired codes.
func (uc *CodeAdminUseCase) Expire(ctx context.Context, code string) error {
	retired, err := uc.codes.MarkExpired(ctx, nil, code)
	if err != nil {
		return err
	}
	if retired {
		uc.log.Info().Str("code", code).Msg("access code expired by admin")
		return nil
	}

	// Zero rows: absent or already terminal. Re-read to say which.
	row, err := uc.codes.FindByCode(ctx, nil, code)
	if err != nil {
		return err
	}
	switch row.Status {
	case model.CodeStatusExpired:
		return nil
	case model.CodeStatusActive:
		return domain.ErrCodeAlreadyUsed
	default:
		// The row flipped back to a non-terminal state between the update and
		// the re-read; treat it like losing the claim race.
		return domain.ErrClaimLost
	}
}
