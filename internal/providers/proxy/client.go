// Package proxy talks to the visualspec host proxy, which holds the
// host-managed provider key and forwards calls on the caller's behalf.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/infra"
)

const (
	keyStatusPath       = "/api/key-status"
	analyzePath         = "/api/analyze"
	generatePreviewPath = "/api/generate-preview"
)

// Options configures the proxy client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Locale     language.Tag
	Logger     *infra.Logger
}

// Client is a domain.Backend that routes calls through the host proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	locale     language.Tag
	logger     infra.Logger
}

// StatusError is a non-2xx proxy answer. Message is already localized and
// suitable for display.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("proxy status %d: %s", e.StatusCode, e.Message)
}

type keyStatusResponse struct {
	HasServerKey bool `json:"hasServerKey"`
}

type analyzeResponse struct {
	Text string `json:"text"`
}

type previewResponse struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Minute}
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = i18n.TraditionalChinese
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: client,
		locale:     locale,
		logger:     logger,
	}
}

// KeyStatus asks whether the proxy holds a usable host key.
func (c *Client) KeyStatus(ctx context.Context) (bool, error) {
	var out keyStatusResponse
	if err := c.call(ctx, http.MethodGet, keyStatusPath, nil, &out, i18n.MsgServerError); err != nil {
		return false, err
	}
	return out.HasServerKey, nil
}

func (c *Client) AnalyzeStyle(ctx context.Context, req domain.AnalyzeRequest) (string, error) {
	var out analyzeResponse
	if err := c.call(ctx, http.MethodPost, analyzePath, req, &out, i18n.MsgProxyAnalyzeFailed); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *Client) GeneratePreview(ctx context.Context, req domain.PreviewRequest) (string, error) {
	var out previewResponse
	if err := c.call(ctx, http.MethodPost, generatePreviewPath, req, &out, i18n.MsgPreviewFailed); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Image) == "" {
		return "", domain.ErrNoImage
	}
	return out.Image, nil
}

// call performs one JSON round trip. On a non-2xx answer the body's error
// field becomes the message; an unreadable body yields the generic server
// error text and a body without a message yields fallback.
func (c *Client) call(ctx context.Context, method, path string, payload, out any, fallback i18n.MessageID) error {
	if c.baseURL == "" {
		return errors.New("proxy: base url is not configured")
	}
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("proxy: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("proxy: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Locale", c.locale.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("proxy: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			statusErr.Message = i18n.Text(c.locale, i18n.MsgServerError)
		} else if msg := strings.TrimSpace(apiErr.Error); msg != "" {
			statusErr.Message = msg
		} else {
			statusErr.Message = i18n.Text(c.locale, fallback)
		}
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("error", statusErr.Message).
			Msg("proxy: request failed")
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("proxy: decode %s response: %w", path, err)
	}
	return nil
}

var _ domain.Backend = (*Client)(nil)
