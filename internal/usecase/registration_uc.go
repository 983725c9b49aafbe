package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
	"immersive-english/internal/infra/metrics"
)

// PasswordHasher abstracts the credential hashing scheme.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// RegistrationUseCase finalizes a registration: consume the invite code and
// create the account as one atomic unit.
type RegistrationUseCase struct {
	codes  repository.AccessCodeRepository
	users  repository.UserRepository
	tm     repository.TransactionManager
	hasher PasswordHasher
	log    *zerolog.Logger
}

func NewRegistrationUseCase(
	codes repository.AccessCodeRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	hasher PasswordHasher,
	logger *zerolog.Logger,
) *RegistrationUseCase {
	return &RegistrationUseCase{codes: codes, users: users, tm: tm, hasher: hasher, log: logger}
}

// Finalize consumes the code and creates the account inside one database
// transaction. The code consumption is a conditional update (unused|reserved
// -> active); if it hits zero rows the code was lost between the claim-check
// page and form submission, and the failure is classified so the client can
// tell "get a new code" apart from "fix your form". A rollback restores the
// code, so no account exists without its code active and vice versa.
func (uc *RegistrationUseCase) Finalize(ctx context.Context, code, email, password, nickname, phone string) (*model.User, error) {
	if code == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", email, hash, nickname, phone, code)
	if err != nil {
		return nil, err
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		consumed, err := uc.codes.Activate(ctx, tx, code, user.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return uc.classifyConflict(ctx, tx, code)
		}
		return uc.users.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	metrics.CodeActivated()
	uc.log.Info().Str("user_id", user.ID).Str("code", code).Msg("registration finalized")
	return user, nil
}

// classifyConflict re-reads the row after a zero-row Activate to name the
// precise reason. Runs inside the same transaction.
func (uc *RegistrationUseCase) classifyConflict(ctx context.Context, tx repository.Tx, code string) error {
	row, err := uc.codes.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCodeNotFound
		}
		return err
	}
	switch {
	case row.IsExpired(time.Now()):
		return domain.ErrCodeExpired
	case row.Status == model.CodeStatusActive:
		return domain.ErrCodeAlreadyUsed
	default:
		return domain.ErrClaimLost
	}
}

// Login verifies credentials and returns the account. Part of the registration
// surface because the registration page logs the user straight in.
func (uc *RegistrationUseCase) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := uc.users.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := uc.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
