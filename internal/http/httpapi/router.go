package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"visualspec/internal/http/handlers"
	"visualspec/internal/middleware"
)

type Options struct {
	Logger         zerolog.Logger
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	AllowedOrigins []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Accept-Language", "X-Locale", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Language"},
			MaxAge:         300,
		}),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/metrics", app.MetricsSummary)
	r.Get(handlers.SpecPath, app.APISpec)
	r.Get("/v1/docs", app.APIDocs)

	r.Route("/api", func(r chi.Router) {
		r.Get("/key-status", app.KeyStatus)
		// Method checks live in the handlers so 405 answers carry the JSON
		// error body.
		r.HandleFunc("/analyze", app.Analyze)
		r.HandleFunc("/generate-preview", app.GeneratePreview)
	})

	return r
}
