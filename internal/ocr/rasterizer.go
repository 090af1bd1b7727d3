package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/textforge/document-extractor/internal/models"
)

// Rasterizer renders document pages to images for recognition. The render
// service is an external collaborator behind the same call+timeout contract
// as the converter.
type Rasterizer interface {
	RenderPages(ctx context.Context, content []byte) ([]image.Image, error)
}

type rasterResponse struct {
	Pages []string `json:"pages"` // base64-encoded PNGs
	Error string   `json:"error,omitempty"`
}

// HTTPRasterizer 渲染服务客户端
type HTTPRasterizer struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPRasterizer(endpoint string, timeout time.Duration) *HTTPRasterizer {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &HTTPRasterizer{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRasterizer) RenderPages(ctx context.Context, content []byte) ([]image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/render", bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, models.WrapError(models.ErrOCRUnavailable, "page rendering exceeded time limit", err)
		}
		return nil, models.WrapError(models.ErrOCRUnavailable, "render service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, models.NewError(models.ErrOCRUnavailable,
			fmt.Sprintf("render service error (%d): %s", resp.StatusCode, string(body)))
	}

	var payload rasterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "malformed render response", err)
	}
	if payload.Error != "" {
		return nil, models.NewError(models.ErrOCRUnavailable, "render error: "+payload.Error)
	}

	images := make([]image.Image, 0, len(payload.Pages))
	for i, encoded := range payload.Pages {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, models.WrapError(models.ErrOCRUnavailable,
				fmt.Sprintf("undecodable page image %d", i+1), err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, models.WrapError(models.ErrOCRUnavailable,
				fmt.Sprintf("unreadable page image %d", i+1), err)
		}
		images = append(images, img)
	}

	return images, nil
}
