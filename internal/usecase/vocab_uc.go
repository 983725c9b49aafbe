package usecase

import (
	"context"

	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

// VocabUseCase maintains per-user known/unknown word markings.
type VocabUseCase struct {
	vocab repository.VocabRepository
}

func NewVocabUseCase(vocab repository.VocabRepository) *VocabUseCase {
	return &VocabUseCase{vocab: vocab}
}

// Mark upserts one (user, word) marking.
func (uc *VocabUseCase) Mark(ctx context.Context, userID, word string, status model.VocabStatus) (*model.VocabEntry, error) {
	entry, err := model.NewVocabEntry(userID, word, status)
	if err != nil {
		return nil, err
	}
	if err := uc.vocab.Upsert(ctx, nil, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns a user's markings, optionally filtered by status.
func (uc *VocabUseCase) List(ctx context.Context, userID string, status model.VocabStatus) ([]*model.VocabEntry, error) {
	return uc.vocab.ListByUser(ctx, nil, userID, status)
}
