// Package analysis builds style-analysis requests, sends them through the
// credential-appropriate backend and maps the answer into an AnalysisResult.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"visualspec/internal/catalog"
	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/providers/genai"
	"visualspec/internal/providers/proxy"
)

// AssetEncoder converts assets into request parts, skipping failures.
type AssetEncoder interface {
	EncodeAll(ctx context.Context, assets []domain.VisualAsset) []domain.Part
}

// BackendSelector picks the backend serving a credential.
type BackendSelector interface {
	Backend(ctx context.Context, cred domain.Credential) (domain.Backend, error)
}

type Options struct {
	Encoder AssetEncoder
	Router  BackendSelector
	Catalog *catalog.Catalog
	Logger  *zerolog.Logger
	Locale  language.Tag
}

type Analyzer struct {
	encoder AssetEncoder
	router  BackendSelector
	catalog *catalog.Catalog
	logger  zerolog.Logger
	locale  language.Tag
}

func New(opts Options) *Analyzer {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = i18n.TraditionalChinese
	}
	return &Analyzer{
		encoder: opts.Encoder,
		router:  opts.Router,
		catalog: cat,
		logger:  logger,
		locale:  locale,
	}
}

// BuildRequest encodes assets in order, appends the analysis prompt and
// attaches the medium system instruction.
func (a *Analyzer) BuildRequest(ctx context.Context, assets []domain.VisualAsset, medium domain.Medium) domain.AnalyzeRequest {
	var parts []domain.Part
	if a.encoder != nil {
		parts = a.encoder.EncodeAll(ctx, assets)
	}
	parts = append(parts, domain.TextPart(a.catalog.UserPrompt(medium)))
	return domain.AnalyzeRequest{
		Parts:             parts,
		SystemInstruction: a.catalog.SystemInstruction(medium),
		Medium:            medium,
	}
}

// Analyze runs one analysis. Every failure is an *Error whose Message is
// ready for display in the analyzer locale.
func (a *Analyzer) Analyze(ctx context.Context, assets []domain.VisualAsset, medium domain.Medium, cred domain.Credential) (*domain.AnalysisResult, error) {
	if len(assets) == 0 {
		return nil, a.fail(KindNoAssets, i18n.MsgNoAssets, domain.ErrNoAssets)
	}
	if !medium.Valid() {
		return nil, &Error{Kind: KindInvalidMedium, Message: domain.ErrUnknownMedium.Error() + ": " + string(medium), Err: domain.ErrUnknownMedium}
	}
	if cred.IsNone() {
		return nil, a.fail(KindMissingCredential, i18n.MsgMissingKey, domain.ErrMissingCredential)
	}
	if a.router == nil {
		return nil, a.fail(KindMissingCredential, i18n.MsgMissingKey, domain.ErrMissingCredential)
	}
	backend, err := a.router.Backend(ctx, cred)
	if err != nil {
		return nil, a.classify(err)
	}

	req := a.BuildRequest(ctx, assets, medium)
	started := time.Now()
	text, err := backend.AnalyzeStyle(ctx, req)
	if err != nil {
		aerr := a.classify(err)
		a.logger.Warn().
			Err(err).
			Str("medium", string(medium)).
			Str("credential", cred.Kind().String()).
			Str("kind", string(aerr.Kind)).
			Dur("elapsed", time.Since(started)).
			Msg("analysis: request failed")
		return nil, aerr
	}
	if strings.TrimSpace(text) == "" {
		return nil, a.fail(KindEmptyResponse, i18n.MsgEmptyResponse, domain.ErrEmptyResponse)
	}

	result, err := ParseResponse(text, medium)
	if err != nil {
		a.logger.Warn().Err(err).Str("medium", string(medium)).Int("response_len", len(text)).Msg("analysis: unparseable model output")
		return nil, a.fail(KindInvalidOutput, i18n.MsgInvalidOutput, err)
	}
	a.logger.Info().
		Str("medium", string(medium)).
		Str("credential", cred.Kind().String()).
		Int("parts", len(req.Parts)).
		Dur("elapsed", time.Since(started)).
		Msg("analysis: completed")
	return result, nil
}

func (a *Analyzer) classify(err error) *Error {
	var statusErr *proxy.StatusError
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return a.fail(KindMissingCredential, i18n.MsgMissingKey, err)
	case errors.As(err, &statusErr):
		return &Error{Kind: KindUpstream, Message: statusErr.Message, Err: err}
	case errors.Is(err, domain.ErrEmptyResponse):
		return a.fail(KindEmptyResponse, i18n.MsgEmptyResponse, err)
	case genai.IsRateLimited(err):
		return a.fail(KindRateLimited, i18n.MsgRateLimited, err)
	case genai.IsInvalidKey(err):
		return a.fail(KindInvalidKey, i18n.MsgInvalidKey, err)
	default:
		return a.fail(KindTransport, i18n.MsgAnalysisFailed, err)
	}
}

func (a *Analyzer) fail(kind Kind, msg i18n.MessageID, cause error) *Error {
	return &Error{Kind: kind, Message: i18n.Text(a.locale, msg), Err: cause}
}
