package repository

import (
	"context"

	"immersive-english/internal/domain/model"
)

// VocabRepository is the port for per-user word markings. Simple keyed upsert.
type VocabRepository interface {
	Upsert(ctx context.Context, tx Tx, entry *model.VocabEntry) error
	// ListByUser returns entries for a user, optionally filtered by status ("" for all).
	ListByUser(ctx context.Context, tx Tx, userID string, status model.VocabStatus) ([]*model.VocabEntry, error)
}
