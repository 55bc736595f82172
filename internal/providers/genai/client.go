// Package genai calls the Gemini API directly. It backs both the host proxy,
// which holds the host-managed key, and bring-your-own-key sessions.
package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "google.golang.org/genai"

	"visualspec/internal/domain"
	"visualspec/internal/infra"
)

const (
	AnalysisTemperature float32 = 0.4
	AnalysisMIMEType            = "application/json"
	PrimaryImageSize            = "1K"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey              string
	BaseURL             string
	AnalysisModel       string
	PrimaryImageModel   string
	SecondaryImageModel string
	HTTPClient          *http.Client
	Logger              *infra.Logger
}

// Client performs analysis and preview calls against Gemini.
type Client struct {
	client         *sdk.Client
	analysisModel  string
	primaryModel   string
	secondaryModel string
	logger         infra.Logger
}

// NewClient constructs a Gemini client. The key is required; an empty key
// is reported as domain.ErrMissingCredential.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, domain.ErrMissingCredential
	}

	cfg := &sdk.ClientConfig{
		APIKey:     key,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = sdk.HTTPOptions{BaseURL: base}
	}

	client, err := sdk.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		client:         client,
		analysisModel:  firstNonEmpty(opts.AnalysisModel, infra.DefaultAnalysisModel),
		primaryModel:   firstNonEmpty(opts.PrimaryImageModel, infra.DefaultPrimaryImageModel),
		secondaryModel: firstNonEmpty(opts.SecondaryImageModel, infra.DefaultSecondaryImageModel),
		logger:         logger,
	}, nil
}

// AnalyzeStyle sends the encoded assets with the medium system instruction
// and returns the raw JSON text produced by the model.
func (c *Client) AnalyzeStyle(ctx context.Context, req domain.AnalyzeRequest) (string, error) {
	parts, err := toSDKParts(req.Parts)
	if err != nil {
		return "", err
	}

	config := &sdk.GenerateContentConfig{
		Temperature:      sdk.Ptr(AnalysisTemperature),
		ResponseMIMEType: AnalysisMIMEType,
	}
	if instruction := strings.TrimSpace(req.SystemInstruction); instruction != "" {
		config.SystemInstruction = sdk.NewContentFromText(req.SystemInstruction, sdk.RoleUser)
	}

	contents := []*sdk.Content{sdk.NewContentFromParts(parts, sdk.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.analysisModel, contents, config)
	if err != nil {
		return "", fmt.Errorf("genai: analyze with %s: %w", c.analysisModel, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	c.logger.Debug().
		Str("model", c.analysisModel).
		Str("medium", string(req.Medium)).
		Int("parts", len(parts)).
		Msg("genai: analysis completed")
	return text, nil
}

// GeneratePreview renders one image. The primary model is always tried
// first; any failure there, including a response without image data, falls
// through to the secondary model. When both fail the result is a
// *PreviewError carrying both causes.
func (c *Client) GeneratePreview(ctx context.Context, req domain.PreviewRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("genai: prompt is required")
	}

	image, primaryErr := c.renderImage(ctx, c.primaryModel, prompt, &sdk.ImageConfig{
		AspectRatio: req.AspectRatio,
		ImageSize:   PrimaryImageSize,
	})
	if primaryErr == nil {
		return image, nil
	}
	c.logger.Warn().
		Err(primaryErr).
		Str("model", c.primaryModel).
		Msg("genai: primary image model failed; trying secondary")

	image, secondaryErr := c.renderImage(ctx, c.secondaryModel, prompt, &sdk.ImageConfig{
		AspectRatio: req.AspectRatio,
	})
	if secondaryErr == nil {
		return image, nil
	}
	c.logger.Error().
		Err(secondaryErr).
		Str("model", c.secondaryModel).
		Msg("genai: secondary image model failed")

	return "", &PreviewError{Primary: primaryErr, Secondary: secondaryErr}
}

func (c *Client) renderImage(ctx context.Context, model, prompt string, imageConfig *sdk.ImageConfig) (string, error) {
	contents := []*sdk.Content{sdk.NewContentFromParts([]*sdk.Part{sdk.NewPartFromText(prompt)}, sdk.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, &sdk.GenerateContentConfig{
		ImageConfig: imageConfig,
	})
	if err != nil {
		return "", err
	}
	if uri, ok := extractImage(resp); ok {
		return uri, nil
	}
	return "", &NoImageError{Model: model}
}

// extractImage returns the first inline image of the first candidate as a
// data URI.
func extractImage(resp *sdk.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(part.InlineData.MIMEType)
		if mimeType == "" {
			mimeType = "image/png"
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), true
	}
	return "", false
}

func toSDKParts(parts []domain.Part) ([]*sdk.Part, error) {
	out := make([]*sdk.Part, 0, len(parts))
	for i, p := range parts {
		switch {
		case p.InlineData != nil && p.InlineData.Data != "":
			data, err := p.InlineData.Bytes()
			if err != nil {
				return nil, fmt.Errorf("genai: part %d: decode inline data: %w", i, err)
			}
			out = append(out, &sdk.Part{InlineData: &sdk.Blob{MIMEType: p.InlineData.MIMEType, Data: data}})
		case p.Text != "":
			out = append(out, sdk.NewPartFromText(p.Text))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("genai: no content parts")
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ domain.Backend = (*Client)(nil)
