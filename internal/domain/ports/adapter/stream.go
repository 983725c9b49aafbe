package adapter

import "context"

// DirectUpload is a one-time upload slot on the video host.
type DirectUpload struct {
	UploadURL string
	VideoUID  string
}

// VideoStreamAdapter is the opaque "get upload URL" capability of the video
// hosting provider. Transcoding and playback stay on the provider's side.
type VideoStreamAdapter interface {
	CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*DirectUpload, error)
}
