package model

import (
	"time"

	"immersive-english/internal/domain"
)

// CodeStatus is the lifecycle state of an access code.
type CodeStatus string

const (
	CodeStatusUnused   CodeStatus = "unused"
	CodeStatusReserved CodeStatus = "reserved"
	CodeStatusActive   CodeStatus = "active"
	CodeStatusExpired  CodeStatus = "expired"
)

// CodeKind categorizes a code for downstream messaging (trial codes carry a validity window).
type CodeKind string

const (
	CodeKindStandard CodeKind = "standard"
	CodeKindTrial    CodeKind = "trial"
)

// AccessCode is a single-use token gating registration.
//
// Lifecycle: unused -> reserved (allocator claim), reserved|unused -> active
// (registration finalize), unused|reserved -> expired (expiry worker/admin),
// reserved -> unused (reaper, abandoned reservation). active and expired are
// terminal for allocation and redemption.
type AccessCode struct {
	Code        string
	Status      CodeStatus
	Kind        CodeKind
	ValidDays   *int       // Meaningful only for Kind == trial
	ExpiresAt   *time.Time // Pointer to allow for NULL
	ReservedAt  *time.Time
	ActivatedBy *string
	ActivatedAt *time.Time
	CreatedAt   time.Time
}

// NewAccessCode builds a fresh unused code.
func NewAccessCode(code string, kind CodeKind, validDays *int, expiresAt *time.Time) (*AccessCode, error) {
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch kind {
	case CodeKindStandard, CodeKindTrial:
	default:
		return nil, domain.ErrInvalidArgument
	}
	if kind == CodeKindTrial && (validDays == nil || *validDays <= 0) {
		return nil, domain.ErrInvalidArgument
	}
	return &AccessCode{
		Code:      code,
		Status:    CodeStatusUnused,
		Kind:      kind,
		ValidDays: validDays,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired reports whether the code is past its expiry or marked expired.
func (c *AccessCode) IsExpired(now time.Time) bool {
	if c.Status == CodeStatusExpired {
		return true
	}
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Redeemable reports whether the redemption gate should let this code through.
func (c *AccessCode) Redeemable(now time.Time) bool {
	if c.IsExpired(now) {
		return false
	}
	return c.Status == CodeStatusUnused || c.Status == CodeStatusReserved
}
