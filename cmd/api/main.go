package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"visualspec/internal/domain"
	"visualspec/internal/http/handlers"
	httpapi "visualspec/internal/http/httpapi"
	"visualspec/internal/infra"
	"visualspec/internal/infra/credentials"
	"visualspec/internal/infra/geoip"
	"visualspec/internal/providers/genai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	hostKey := resolveHostKey(ctx, cfg, logger)

	// A nil backend makes the proxy answer 503 with hasServerKey=false.
	var backend domain.Backend
	if hostKey != "" {
		client, err := genai.NewClient(ctx, genai.Options{
			APIKey:              hostKey,
			BaseURL:             cfg.GeminiBaseURL,
			AnalysisModel:       cfg.AnalysisModel,
			PrimaryImageModel:   cfg.PrimaryImageModel,
			SecondaryImageModel: cfg.SecondaryImageModel,
			Logger:              &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create gemini client")
		}
		backend = client
	} else {
		logger.Warn().Msg("no host gemini key configured; clients must bring their own")
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
	}
	routerOpts := httpapi.Options{
		Logger:         logger,
		DefaultLocale:  cfg.DefaultLocale,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if geo != nil {
		defer geo.Close()
		routerOpts.CountryLookup = geo.Lookup
	}

	app := handlers.NewApp(backend, logger)
	router := httpapi.NewRouter(app, routerOpts)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Bool("host_key", backend != nil).Msg("proxy listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// resolveHostKey prefers GEMINI_API_KEY and falls back to the key stored in
// Postgres when DATABASE_URL is set.
func resolveHostKey(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) string {
	if cfg.HasHostKey() {
		return cfg.GeminiAPIKey
	}
	if cfg.DatabaseURL == "" {
		return ""
	}
	pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect database; continuing without stored key")
		return ""
	}
	defer pool.Close()

	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
	key, err := store.GeminiAPIKey(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read stored gemini key")
		return ""
	}
	return key
}
