package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"immersive-english/internal/domain/ports/adapter"
)

var _ adapter.VideoStreamAdapter = (*CloudflareStream)(nil)

// CloudflareStream implements adapter.VideoStreamAdapter against the Stream
// direct-upload API. Only upload-slot creation lives here; transcoding and
// playback stay on Cloudflare's side.
type CloudflareStream struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
}

func NewCloudflareStream(accountID, apiToken, baseURL string) (*CloudflareStream, error) {
	if accountID == "" || apiToken == "" {
		return nil, errors.New("stream account id and api token are required")
	}
	if baseURL == "" {
		baseURL = "https://api.cloudflare.com/client/v4"
	}
	return &CloudflareStream{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// CreateDirectUpload calls /stream/direct_upload and returns the one-time URL
// plus the provider-side video UID.
func (c *CloudflareStream) CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*adapter.DirectUpload, error) {
	payload := map[string]any{
		"maxDurationSeconds": maxDurationSeconds,
	}
	b, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/accounts/%s/stream/direct_upload", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool `json:"success"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Result struct {
			UploadURL string `json:"uploadURL"`
			UID       string `json:"uid"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stream response: %w", err)
	}
	if !out.Success || resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if len(out.Errors) > 0 {
			msg = out.Errors[0].Message
		}
		return nil, fmt.Errorf("stream direct_upload failed (%d): %s", resp.StatusCode, msg)
	}
	return &adapter.DirectUpload{UploadURL: out.Result.UploadURL, VideoUID: out.Result.UID}, nil
}
