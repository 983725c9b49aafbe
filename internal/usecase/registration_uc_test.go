package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
)

func newRegistrationFixture() (*RegistrationUseCase, *memCodeRepo, *memUserRepo) {
	codes := newMemCodeRepo()
	users := newMemUserRepo()
	tm := &memTxManager{codes: codes}
	uc := NewRegistrationUseCase(codes, users, tm, plainHasher{}, nopLogger())
	return uc, codes, users
}

func TestRegistration_FinalizeConsumesCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, codes, users := newRegistrationFixture()
	seedCode(codes, "AAAA-AAAA-AAAA", model.CodeStatusReserved)

	user, err := uc.Finalize(ctx, "AAAA-AAAA-AAAA", "kid@example.com", "hunter2", "kiddo", "13800000000")
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected account ID to be assigned")
	}
	if codes.statusOf("AAAA-AAAA-AAAA") != model.CodeStatusActive {
		t.Errorf("expected code to be active after finalize, got %q", codes.statusOf("AAAA-AAAA-AAAA"))
	}
	stored, err := users.FindByEmail(ctx, nil, "kid@example.com")
	if err != nil {
		t.Fatalf("expected account to be persisted: %v", err)
	}
	if stored.InviteCode != "AAAA-AAAA-AAAA" {
		t.Errorf("expected invite code recorded on the account")
	}
	row, _ := codes.FindByCode(ctx, nil, "AAAA-AAAA-AAAA")
	if row.ActivatedBy == nil || *row.ActivatedBy != user.ID {
		t.Error("expected code to record the redeeming user")
	}
}

func TestRegistration_FinalizeAcceptsUnusedCode(t *testing.T) {
	t.Parallel()

	// Manually shared links hit Finalize without a prior allocator claim, so a
	// still-unused code must consume too.
	uc, codes, _ := newRegistrationFixture()
	seedCode(codes, "AAAA-AAAA-AAAA", model.CodeStatusUnused)

	if _, err := uc.Finalize(context.Background(), "AAAA-AAAA-AAAA", "kid@example.com", "hunter2", "", ""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if codes.statusOf("AAAA-AAAA-AAAA") != model.CodeStatusActive {
		t.Error("expected code to be consumed")
	}
}

func TestRegistration_ConflictClassification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name    string
		seed    func(*memCodeRepo)
		wantErr error
	}{
		{
			"missing code",
			func(*memCodeRepo) {},
			domain.ErrCodeNotFound,
		},
		{
			"already consumed",
			func(c *memCodeRepo) { seedCode(c, "X", model.CodeStatusActive) },
			domain.ErrCodeAlreadyUsed,
		},
		{
			"expired by status",
			func(c *memCodeRepo) { seedCode(c, "X", model.CodeStatusExpired) },
			domain.ErrCodeExpired,
		},
		{
			"expired by timestamp",
			func(c *memCodeRepo) {
				c.put(&model.AccessCode{Code: "X", Status: model.CodeStatusUnused, Kind: model.CodeKindStandard, ExpiresAt: &past})
			},
			domain.ErrCodeExpired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, codes, users := newRegistrationFixture()
			tc.seed(codes)

			_, err := uc.Finalize(ctx, "X", "kid@example.com", "hunter2", "", "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Finalize error = %v, want %v", err, tc.wantErr)
			}
			if n, _ := users.CountUsers(ctx, nil); n != 0 {
				t.Error("no account may exist after a failed finalize")
			}
		})
	}
}

// Atomic finalize: if account creation fails after the code-consume step, the
// transaction rollback must restore the code's prior status.
func TestRegistration_RollbackRestoresCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, codes, users := newRegistrationFixture()
	seedCode(codes, "AAAA-AAAA-AAAA", model.CodeStatusReserved)
	users.saveErr = errors.New("disk full")

	_, err := uc.Finalize(ctx, "AAAA-AAAA-AAAA", "kid@example.com", "hunter2", "", "")
	if err == nil {
		t.Fatal("expected finalize to fail")
	}
	if got := codes.statusOf("AAAA-AAAA-AAAA"); got != model.CodeStatusReserved {
		t.Errorf("expected code restored to reserved, got %q", got)
	}
}

func TestRegistration_DuplicateEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, codes, _ := newRegistrationFixture()
	seedCode(codes, "AAAA-AAAA-AAAA", model.CodeStatusUnused)
	seedCode(codes, "BBBB-BBBB-BBBB", model.CodeStatusUnused)

	if _, err := uc.Finalize(ctx, "AAAA-AAAA-AAAA", "kid@example.com", "hunter2", "", ""); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	_, err := uc.Finalize(ctx, "BBBB-BBBB-BBBB", "kid@example.com", "hunter2", "", "")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// The second code must survive the failed registration.
	if got := codes.statusOf("BBBB-BBBB-BBBB"); got != model.CodeStatusUnused {
		t.Errorf("expected second code restored to unused, got %q", got)
	}
}

func TestRegistration_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, codes, _ := newRegistrationFixture()
	seedCode(codes, "AAAA-AAAA-AAAA", model.CodeStatusUnused)

	if _, err := uc.Finalize(ctx, "AAAA-AAAA-AAAA", "kid@example.com", "hunter2", "", ""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if _, err := uc.Login(ctx, "kid@example.com", "hunter2"); err != nil {
		t.Errorf("expected login to succeed: %v", err)
	}
	if _, err := uc.Login(ctx, "kid@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := uc.Login(ctx, "ghost@example.com", "hunter2"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
