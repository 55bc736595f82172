package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/middleware"
	"visualspec/internal/providers/genai"
)

type keyStatusResponse struct {
	HasServerKey bool `json:"hasServerKey"`
}

type analyzeResponse struct {
	Text string `json:"text"`
}

type previewResponse struct {
	Image string `json:"image"`
}

// KeyStatus reports whether the proxy can serve requests with a host key.
func (a *App) KeyStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, keyStatusResponse{HasServerKey: a.Backend != nil})
}

// Analyze relays an analysis request using the host key.
func (a *App) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.error(w, r, http.StatusMethodNotAllowed, i18n.MsgMethodNotAllowed)
		return
	}
	if a.Backend == nil {
		a.error(w, r, http.StatusServiceUnavailable, i18n.MsgNoServerKey)
		return
	}
	var req domain.AnalyzeRequest
	if err := a.decode(w, r, &req); err != nil {
		if isBodyTooLarge(err) {
			a.errorText(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		a.error(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	if req.Parts == nil || strings.TrimSpace(req.SystemInstruction) == "" {
		a.error(w, r, http.StatusBadRequest, i18n.MsgMissingAnalyzeFields)
		return
	}

	a.Metrics.analyzeTotal.Add(1)
	started := time.Now()
	text, err := a.Backend.AnalyzeStyle(r.Context(), req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyResponse
	}
	if err != nil {
		a.Metrics.analyzeFailed.Add(1)
		id := analyzeFailure(err)
		a.log(r).Error().
			Err(err).
			Str("medium", string(req.Medium)).
			Int("parts", len(req.Parts)).
			Dur("elapsed", time.Since(started)).
			Msg("proxy: analyze failed")
		a.error(w, r, http.StatusInternalServerError, id)
		return
	}
	a.log(r).Debug().Str("medium", string(req.Medium)).Dur("elapsed", time.Since(started)).Msg("proxy: analyze ok")
	a.json(w, http.StatusOK, analyzeResponse{Text: text})
}

// GeneratePreview renders one image with the host key, falling back from
// the primary to the secondary image model.
func (a *App) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.error(w, r, http.StatusMethodNotAllowed, i18n.MsgMethodNotAllowed)
		return
	}
	if a.Backend == nil {
		a.error(w, r, http.StatusServiceUnavailable, i18n.MsgNoServerKey)
		return
	}
	var req domain.PreviewRequest
	if err := a.decode(w, r, &req); err != nil {
		if isBodyTooLarge(err) {
			a.errorText(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		a.error(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, r, http.StatusBadRequest, i18n.MsgMissingPrompt)
		return
	}

	a.Metrics.previewTotal.Add(1)
	started := time.Now()
	image, err := a.Backend.GeneratePreview(r.Context(), req)
	if err != nil {
		a.Metrics.previewFailed.Add(1)
		a.log(r).Error().
			Err(err).
			Str("aspect_ratio", req.AspectRatio).
			Dur("elapsed", time.Since(started)).
			Msg("proxy: preview failed")
		locale := middleware.LocaleFromContext(r.Context())
		a.errorText(w, http.StatusInternalServerError, i18n.Text(locale, i18n.MsgProxyPreviewFailed)+finalFailure(err))
		return
	}
	a.log(r).Debug().Str("aspect_ratio", req.AspectRatio).Dur("elapsed", time.Since(started)).Msg("proxy: preview ok")
	a.json(w, http.StatusOK, previewResponse{Image: image})
}

// analyzeFailure picks the client-facing message. A key problem outranks
// throttling.
func analyzeFailure(err error) i18n.MessageID {
	switch {
	case errors.Is(err, domain.ErrEmptyResponse):
		return i18n.MsgProxyEmptyResponse
	case genai.IsInvalidKey(err):
		return i18n.MsgProxyInvalidKey
	case genai.IsRateLimited(err):
		return i18n.MsgProxyRateLimited
	default:
		return i18n.MsgProxyAnalyzeFailed
	}
}

// finalFailure is the text of the last attempt that failed.
func finalFailure(err error) string {
	var previewErr *genai.PreviewError
	if errors.As(err, &previewErr) && previewErr.Secondary != nil {
		return previewErr.Secondary.Error()
	}
	return err.Error()
}
