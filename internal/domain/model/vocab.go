package model

import (
	"strings"
	"time"

	"immersive-english/internal/domain"
)

// VocabStatus marks how well a learner knows a word.
type VocabStatus string

const (
	VocabStatusKnown   VocabStatus = "known"
	VocabStatusUnknown VocabStatus = "unknown"
)

// VocabEntry is one (user, word) marking. Upserted by key, no contention.
type VocabEntry struct {
	UserID    string
	Word      string
	Status    VocabStatus
	UpdatedAt time.Time
}

func NewVocabEntry(userID, word string, status VocabStatus) (*VocabEntry, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if userID == "" || word == "" {
		return nil, domain.ErrInvalidArgument
	}
	if status != VocabStatusKnown && status != VocabStatusUnknown {
		return nil, domain.ErrInvalidArgument
	}
	return &VocabEntry{UserID: userID, Word: word, Status: status, UpdatedAt: time.Now()}, nil
}
