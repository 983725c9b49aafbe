package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"immersive-english/internal/domain/ports/adapter"
)

var _ adapter.VideoStreamAdapter = (*NoopStream)(nil)

// NoopStream is a stand-in for dev mode when no Stream credentials are set.
type NoopStream struct {
	n atomic.Int64
}

func NewNoopStream() *NoopStream { return &NoopStream{} }

func (s *NoopStream) CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*adapter.DirectUpload, error) {
	n := s.n.Add(1)
	return &adapter.DirectUpload{
		UploadURL: fmt.Sprintf("http://localhost/dev-upload/%d", n),
		VideoUID:  fmt.Sprintf("dev-%d", n),
	}, nil
}
