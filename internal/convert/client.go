// Package convert talks to the external document-conversion service that
// turns legacy office formats (.doc, .rtf) into plain text. The service is a
// fallible, time-bounded black box behind a uniform call+timeout contract.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/textforge/document-extractor/internal/models"
)

// Response 转换服务响应结构
type Response struct {
	Text  string `json:"text"`
	Pages int    `json:"pages,omitempty"`
	Error string `json:"error,omitempty"`
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		timeout:  timeout,
		httpClient: &http.Client{
			// Outer per-call deadline still bounds each request through
			// the context; this is the hard transport cap.
			Timeout: timeout,
		},
	}
}

// Convert submits raw document bytes and returns the converted plain text.
// Exceeding the bounded duration yields ConversionTimeout.
func (c *Client) Convert(ctx context.Context, content []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/convert?filename=%s", c.endpoint, url.QueryEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", models.WrapError(models.ErrConversionTimeout, "conversion exceeded time limit", err)
		}
		return "", fmt.Errorf("conversion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", models.NewError(models.ErrCorruptDocument,
			fmt.Sprintf("converter rejected document (%d): %s", resp.StatusCode, string(body)))
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode converter response: %w", err)
	}
	if result.Error != "" {
		return "", models.NewError(models.ErrCorruptDocument, "converter error: "+result.Error)
	}

	return result.Text, nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
