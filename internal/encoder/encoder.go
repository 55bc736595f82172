// Package encoder turns visual assets into provider request parts.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"visualspec/internal/domain"
)

// URLFallbackPrefix precedes the URL when a remote image cannot be fetched.
const URLFallbackPrefix = "[Image URL Source]: "

const (
	defaultMaxBytes   = int64(20 << 20)
	defaultURLMIME    = "image/jpeg"
	defaultFetchAfter = 30 * time.Second
)

var (
	ErrEmptyAsset    = errors.New("encoder: asset has no content")
	ErrAssetTooBig   = errors.New("encoder: asset exceeds size limit")
	ErrUnknownOrigin = errors.New("encoder: unknown asset origin")
)

type Options struct {
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	// MaxBytes caps each asset; zero means 20 MiB.
	MaxBytes int64
}

type Encoder struct {
	http     *http.Client
	logger   zerolog.Logger
	maxBytes int64
}

func New(opts Options) *Encoder {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchAfter}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Encoder{http: httpClient, logger: logger, maxBytes: maxBytes}
}

// Encode converts one asset. URL assets that cannot be fetched degrade to a
// text part naming the URL; only unreadable local content returns an error.
func (e *Encoder) Encode(ctx context.Context, asset domain.VisualAsset) (domain.Part, error) {
	switch asset.Origin {
	case domain.AssetOriginFile:
		return e.encodeFile(asset)
	case domain.AssetOriginURL:
		return e.encodeURL(ctx, asset)
	default:
		return domain.Part{}, fmt.Errorf("%w: %q", ErrUnknownOrigin, asset.Origin)
	}
}

// EncodeAll encodes assets in order. Assets that fail are logged and skipped.
func (e *Encoder) EncodeAll(ctx context.Context, assets []domain.VisualAsset) []domain.Part {
	parts := make([]domain.Part, 0, len(assets))
	for _, asset := range assets {
		part, err := e.Encode(ctx, asset)
		if err != nil {
			e.logger.Error().Err(err).Str("asset_id", asset.ID).Str("asset_name", asset.Name).Msg("encoder: skipping asset")
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func (e *Encoder) encodeFile(asset domain.VisualAsset) (domain.Part, error) {
	data := asset.Data
	if len(data) == 0 && asset.Path != "" {
		f, err := os.Open(asset.Path)
		if err != nil {
			return domain.Part{}, fmt.Errorf("encoder: open %s: %w", asset.Path, err)
		}
		defer f.Close()
		data, err = e.readLimited(f)
		if err != nil {
			return domain.Part{}, fmt.Errorf("encoder: read %s: %w", asset.Path, err)
		}
	}
	if len(data) == 0 {
		return domain.Part{}, ErrEmptyAsset
	}
	if int64(len(data)) > e.maxBytes {
		return domain.Part{}, ErrAssetTooBig
	}

	contentType := strings.TrimSpace(asset.ContentType)
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return domain.InlinePart(baseMediaType(contentType), data), nil
}

func (e *Encoder) encodeURL(ctx context.Context, asset domain.VisualAsset) (domain.Part, error) {
	url := strings.TrimSpace(asset.URL)
	if url == "" {
		return domain.Part{}, ErrEmptyAsset
	}
	data, header, err := e.fetch(ctx, url)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", url).Msg("encoder: fetch failed; sending url as text")
		return domain.TextPart(URLFallbackPrefix + url), nil
	}

	contentType := baseMediaType(header)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = ""
		if detected := mimetype.Detect(data); strings.HasPrefix(detected.String(), "image/") {
			contentType = baseMediaType(detected.String())
		}
	}
	if contentType == "" {
		contentType = defaultURLMIME
	}
	return domain.InlinePart(contentType, data), nil
}

func (e *Encoder) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := e.readLimited(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyAsset
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (e *Encoder) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > e.maxBytes {
		return nil, ErrAssetTooBig
	}
	return data, nil
}

func baseMediaType(value string) string {
	if idx := strings.IndexByte(value, ';'); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}
