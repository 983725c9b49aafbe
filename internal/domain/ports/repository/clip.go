package repository

import (
	"context"

	"immersive-english/internal/domain/model"
)

// ClipRepository is the port for video clip metadata.
type ClipRepository interface {
	Save(ctx context.Context, tx Tx, clip *model.Clip) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Clip, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Clip, error)
}
