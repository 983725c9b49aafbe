package model

import (
	"time"

	"github.com/google/uuid"

	"immersive-english/internal/domain"
)

// Clip is a short video hosted on the stream provider, with bilingual subtitles.
type Clip struct {
	ID              string
	Title           string
	StreamUID       string // provider-side video identifier
	DurationSeconds int
	SubtitleENURL   string
	SubtitleZHURL   string
	CreatedAt       time.Time
}

func NewClip(id, title, streamUID string) (*Clip, error) {
	if title == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Clip{ID: id, Title: title, StreamUID: streamUID, CreatedAt: time.Now()}, nil
}
