package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const defaultImgBBURL = "https://api.imgbb.com/1/upload"

// ImgBB uploads images to imgbb.com.
type ImgBB struct {
	httpClient *http.Client
	apiKey     string

	// Overridable for testing.
	endpoint string
}

// NewImgBB creates an ImgBB uploader with the given API key.
func NewImgBB(apiKey string) (*ImgBB, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &ImgBB{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		endpoint:   defaultImgBBURL,
	}, nil
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image as multipart form data.
func (c *ImgBB) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	u := c.endpoint + "?" + url.Values{"key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close body: %v)", err, closeErr)
		}
	}()

	var result imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		if result.Error.Message != "" {
			return "", fmt.Errorf("imgbb upload failed: %s", result.Error.Message)
		}
		return "", fmt.Errorf("imgbb upload failed: status %d", resp.StatusCode)
	}
	if result.Data.URL == "" {
		return "", fmt.Errorf("imgbb returned no url")
	}
	return result.Data.URL, nil
}
