// Package workbench holds the state of one interactive session: the
// reference assets, the selected medium, the latest analysis and the
// preview batch built from it.
package workbench

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"visualspec/internal/catalog"
	"visualspec/internal/domain"
	"visualspec/internal/preview"
)

// CredentialSource resolves and manages the session credential.
type CredentialSource interface {
	Resolve(ctx context.Context) domain.Credential
	SetUserKey(raw string)
	ClearUserKey() domain.Credential
}

type StyleAnalyzer interface {
	Analyze(ctx context.Context, assets []domain.VisualAsset, medium domain.Medium, cred domain.Credential) (*domain.AnalysisResult, error)
}

type PreviewRunner interface {
	Start(ctx context.Context, imagePrompt string, medium domain.Medium, cred domain.Credential, onItemDone preview.ItemFunc) (*preview.Batch, error)
	Items() []domain.PreviewItem
	Reset()
}

type Options struct {
	Credentials CredentialSource
	Analyzer    StyleAnalyzer
	Previews    PreviewRunner
	Catalog     *catalog.Catalog
	Logger      *zerolog.Logger
}

type Session struct {
	creds    CredentialSource
	analyzer StyleAnalyzer
	previews PreviewRunner
	catalog  *catalog.Catalog
	logger   zerolog.Logger

	mu     sync.Mutex
	assets []domain.VisualAsset
	medium domain.Medium
	result *domain.AnalysisResult
	epoch  uint64
}

// NewSession starts with no assets and the Slides medium selected.
func NewSession(opts Options) *Session {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Session{
		creds:    opts.Credentials,
		analyzer: opts.Analyzer,
		previews: opts.Previews,
		catalog:  cat,
		logger:   logger,
		medium:   domain.MediumSlides,
	}
}

// AddFile registers a local image by path.
func (s *Session) AddFile(path string) (domain.VisualAsset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.VisualAsset{}, fmt.Errorf("workbench: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.VisualAsset{}, fmt.Errorf("workbench: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.VisualAsset{}, fmt.Errorf("workbench: %s is a directory", path)
	}
	asset := domain.VisualAsset{
		ID:            uuid.NewString(),
		Origin:        domain.AssetOriginFile,
		Name:          filepath.Base(abs),
		Path:          abs,
		PreviewHandle: (&url.URL{Scheme: "file", Path: abs}).String(),
	}
	return s.add(asset), nil
}

// AddBytes registers an in-memory image.
func (s *Session) AddBytes(name, contentType string, data []byte) (domain.VisualAsset, error) {
	if len(data) == 0 {
		return domain.VisualAsset{}, fmt.Errorf("workbench: %s is empty", name)
	}
	asset := domain.VisualAsset{
		ID:          uuid.NewString(),
		Origin:      domain.AssetOriginFile,
		Name:        name,
		Data:        data,
		ContentType: contentType,
	}
	asset.PreviewHandle = "mem:" + asset.ID
	return s.add(asset), nil
}

// AddURL registers a remote image. Only http and https are accepted.
func (s *Session) AddURL(raw string) (domain.VisualAsset, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return domain.VisualAsset{}, fmt.Errorf("workbench: invalid image url %q", raw)
	}
	asset := domain.VisualAsset{
		ID:            uuid.NewString(),
		Origin:        domain.AssetOriginURL,
		Name:          urlName(parsed),
		URL:           parsed.String(),
		PreviewHandle: parsed.String(),
	}
	return s.add(asset), nil
}

func urlName(u *url.URL) string {
	if base := filepath.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return u.Host
}

func (s *Session) add(asset domain.VisualAsset) domain.VisualAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append(s.assets, asset)
	return asset
}

// Remove drops the asset with id.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.assets {
		if a.ID == id {
			s.assets = append(s.assets[:i:i], s.assets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("workbench: %s: %w", id, domain.ErrAssetNotFound)
}

func (s *Session) Assets() []domain.VisualAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VisualAsset, len(s.assets))
	copy(out, s.assets)
	return out
}

// SelectMedium switches the target medium. An existing result is kept but
// becomes stale when it was produced for another medium.
func (s *Session) SelectMedium(m domain.Medium) error {
	if !m.Valid() {
		return fmt.Errorf("workbench: %w: %q", domain.ErrUnknownMedium, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medium = m
	return nil
}

func (s *Session) Medium() domain.Medium {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medium
}

func (s *Session) Result() *domain.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Stale reports whether the current result no longer matches the selected
// medium.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.StaleFor(s.medium)
}

// Credential resolves the credential for the next provider call.
func (s *Session) Credential(ctx context.Context) domain.Credential {
	if s.creds == nil {
		return domain.NoCredential()
	}
	return s.creds.Resolve(ctx)
}

func (s *Session) SetUserKey(raw string) {
	if s.creds != nil {
		s.creds.SetUserKey(raw)
	}
}

func (s *Session) ClearUserKey() domain.Credential {
	if s.creds == nil {
		return domain.NoCredential()
	}
	return s.creds.ClearUserKey()
}

// Analyze runs a fresh analysis of the current assets for the selected
// medium. The previous result and previews are discarded first.
func (s *Session) Analyze(ctx context.Context) (*domain.AnalysisResult, error) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.result = nil
	assets := make([]domain.VisualAsset, len(s.assets))
	copy(assets, s.assets)
	medium := s.medium
	s.mu.Unlock()

	if s.previews != nil {
		s.previews.Reset()
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("workbench: analyzer not configured")
	}

	cred := s.Credential(ctx)
	result, err := s.analyzer.Analyze(ctx, assets, medium, cred)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug().Uint64("epoch", epoch).Msg("workbench: discarding superseded analysis")
		return result, nil
	}
	s.result = result
	return result, nil
}

// GeneratePreviews starts a preview batch from the current result.
func (s *Session) GeneratePreviews(ctx context.Context, onItemDone preview.ItemFunc) (*preview.Batch, error) {
	s.mu.Lock()
	result := s.result
	medium := s.medium
	s.mu.Unlock()

	if result == nil {
		return nil, domain.ErrNoResult
	}
	if result.StaleFor(medium) {
		return nil, domain.ErrStaleResult
	}
	if s.previews == nil {
		return nil, fmt.Errorf("workbench: previews not configured")
	}
	return s.previews.Start(ctx, result.ImagePrompt, result.SourceMedium, s.Credential(ctx), onItemDone)
}

func (s *Session) PreviewItems() []domain.PreviewItem {
	if s.previews == nil {
		return nil
	}
	return s.previews.Items()
}

// Reset clears assets, the result and any preview batch. The selected
// medium and credential are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	s.epoch++
	s.assets = nil
	s.result = nil
	s.mu.Unlock()

	if s.previews != nil {
		s.previews.Reset()
	}
}

// HandoffBundle renders the downstream instruction for the current result.
func (s *Session) HandoffBundle() (catalog.Bundle, error) {
	result := s.Result()
	if result == nil {
		return catalog.Bundle{}, domain.ErrNoResult
	}
	return s.catalog.RenderHandoff(result.SourceMedium, result)
}
