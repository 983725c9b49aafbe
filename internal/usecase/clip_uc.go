package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/adapter"
	"immersive-english/internal/domain/ports/repository"
)

// ClipUseCase lists clips for the player and mints direct-upload URLs for the
// admin upload page. Transcoding happens entirely on the provider.
type ClipUseCase struct {
	clips  repository.ClipRepository
	stream adapter.VideoStreamAdapter
	log    *zerolog.Logger
}

func NewClipUseCase(clips repository.ClipRepository, stream adapter.VideoStreamAdapter, logger *zerolog.Logger) *ClipUseCase {
	return &ClipUseCase{clips: clips, stream: stream, log: logger}
}

// CreateUploadURL reserves a one-time upload slot on the video host and
// records the clip row pointing at the provider-side UID.
func (uc *ClipUseCase) CreateUploadURL(ctx context.Context, title string, maxDurationSeconds int) (*model.Clip, string, error) {
	if maxDurationSeconds <= 0 {
		maxDurationSeconds = 300
	}
	// Validate before touching the provider; a direct-upload slot is
	// one-time and a rejected request must not consume one.
	clip, err := model.NewClip("", title, "")
	if err != nil {
		return nil, "", err
	}
	up, err := uc.stream.CreateDirectUpload(ctx, maxDurationSeconds)
	if err != nil {
		return nil, "", err
	}
	clip.StreamUID = up.VideoUID
	if err := uc.clips.Save(ctx, nil, clip); err != nil {
		return nil, "", err
	}
	uc.log.Info().Str("clip_id", clip.ID).Str("video_uid", up.VideoUID).Msg("direct upload created")
	return clip, up.UploadURL, nil
}

// List returns all clips, newest first.
func (uc *ClipUseCase) List(ctx context.Context) ([]*model.Clip, error) {
	return uc.clips.ListAll(ctx, nil)
}
