package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"trailquest/internal/model"
)

// MediaClient talks to the media backend and uploads bytes to the pre-signed
// destinations it hands out.
type MediaClient struct {
	client
}

func NewMediaClient(cfg Config) *MediaClient {
	return &MediaClient{client: newClient(cfg)}
}

type uploadURLRequest struct {
	HikeID      string `json:"hike_id"`
	ContentType string `json:"content_type"`
	Category    string `json:"category"`
}

type uploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	MediaID   string `json:"media_id"`
}

type registerRequest struct {
	SizeBytes int64          `json:"size_bytes"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (c *MediaClient) RequestUploadDestination(ctx context.Context, hikeID, contentType, category string) (*model.UploadDestination, error) {
	var resp uploadURLResponse
	err := c.doJSON(ctx, http.MethodPost, "/media/upload-url", uploadURLRequest{
		HikeID:      hikeID,
		ContentType: contentType,
		Category:    category,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.UploadURL == "" || resp.MediaID == "" {
		return nil, fmt.Errorf("incomplete upload destination returned")
	}

	return &model.UploadDestination{
		UploadURL: resp.UploadURL,
		MediaID:   resp.MediaID,
	}, nil
}

func (c *MediaClient) RegisterUpload(ctx context.Context, mediaID string, sizeBytes int64, metadata map[string]any) error {
	path := fmt.Sprintf("/media/%s/register", url.PathEscape(mediaID))
	return c.doJSON(ctx, http.MethodPost, path, registerRequest{
		SizeBytes: sizeBytes,
		Metadata:  metadata,
	}, nil)
}

// Transfer PUTs body to a pre-signed URL. No auth header is sent; the URL carries it.
func (c *MediaClient) Transfer(ctx context.Context, uploadURL, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	req.ContentLength = int64(len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(req, resp)
}
