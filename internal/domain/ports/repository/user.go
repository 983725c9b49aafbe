package repository

import (
	"context"

	"immersive-english/internal/domain/model"
)

// UserRepository is the port for account storage.
type UserRepository interface {
	// Save inserts a new account. Returns domain.ErrAlreadyExists on a
	// duplicate email.
	Save(ctx context.Context, tx Tx, user *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
}
