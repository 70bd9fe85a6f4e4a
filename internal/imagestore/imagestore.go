package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUpload wraps any failure while talking to the external image host so
// handlers can map it to a gateway error instead of a server error.
var ErrUpload = errors.New("image upload failed")

// ErrNotConfigured is returned when no image host is configured.
var ErrNotConfigured = errors.New("image store not configured")

type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (url string, err error)
}

// HTTPUploader posts images as multipart form data to an external image
// hosting endpoint and returns the hosted URL from its JSON response.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPUploader(endpoint string, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if u.apiKey != "" {
		if err := writer.WriteField("key", u.apiKey); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUpload, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: image host returned status %d", ErrUpload, resp.StatusCode)
	}

	var payload struct {
		URL  string `json:"url"`
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	url := payload.URL
	if url == "" {
		url = payload.Data.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: image host response missing url", ErrUpload)
	}
	return url, nil
}

// Disabled is the fallback when IMAGE_STORE_URL is unset; every upload
// fails fast with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Upload(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrNotConfigured
}
