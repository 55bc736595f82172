package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/middleware"
)

// defaultMaxBody bounds request bodies; analysis payloads carry base64 images.
const defaultMaxBody = 32 << 20

// App serves the host proxy. Backend is nil when no host key is configured.
type App struct {
	Backend      domain.Backend
	Logger       zerolog.Logger
	Metrics      *Metrics
	MaxBodyBytes int64
}

func NewApp(backend domain.Backend, logger zerolog.Logger) *App {
	return &App{
		Backend:      backend,
		Logger:       logger,
		Metrics:      NewMetrics(),
		MaxBodyBytes: defaultMaxBody,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes a localized {"error": ...} body.
func (a *App) error(w http.ResponseWriter, r *http.Request, code int, id i18n.MessageID) {
	a.errorText(w, code, i18n.Text(middleware.LocaleFromContext(r.Context()), id))
}

func (a *App) errorText(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, errorResponse{Error: msg})
}

// decode reads a bounded JSON body into v.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return err
	}
	return nil
}

// log returns the request-scoped logger, or the app logger outside the
// middleware chain.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
