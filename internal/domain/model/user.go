package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"immersive-english/internal/domain"
)

// User is a registered learner account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Nickname     string
	Phone        string
	InviteCode   string
	IsAdmin      bool
	CreatedAt    time.Time
}

// NewUser validates profile fields and builds an account.
// The password hash is produced by the security layer, not here.
func NewUser(id, email, passwordHash, nickname, phone, inviteCode string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	if nickname == "" {
		nickname = email[:strings.Index(email, "@")]
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Nickname:     nickname,
		Phone:        phone,
		InviteCode:   inviteCode,
		CreatedAt:    time.Now(),
	}, nil
}
