package cli

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"visualspec/internal/analysis"
	"visualspec/internal/catalog"
	"visualspec/internal/credential"
	"visualspec/internal/domain"
	"visualspec/internal/encoder"
	"visualspec/internal/gateway"
	"visualspec/internal/i18n"
	"visualspec/internal/infra"
	"visualspec/internal/preview"
	"visualspec/internal/providers/genai"
	"visualspec/internal/providers/proxy"
	"visualspec/internal/workbench"
)

type runtimeOptions struct {
	config      *infra.ClientConfig
	httpClient  *http.Client
	catalogPath string
	out         io.Writer
	noColor     bool
}

// runtime is the fully wired workbench for one command invocation.
type runtime struct {
	cfg      *infra.ClientConfig
	logger   zerolog.Logger
	locale   language.Tag
	catalog  *catalog.Catalog
	keys     *credential.FileKeyStore
	resolver *credential.Resolver
	session  *workbench.Session
	print    *printer
}

func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg := opts.config
	env := "cli"
	if cfg.AppEnv == "development" {
		env = cfg.AppEnv
	}
	logger := infra.NewLogger(env)
	locale := i18n.Match(posixLocale(cfg.Locale))

	cat := catalog.Default()
	catalogPath := strings.TrimSpace(opts.catalogPath)
	if catalogPath == "" {
		catalogPath = strings.TrimSpace(cfg.CatalogPath)
	}
	if catalogPath != "" {
		loaded, err := catalog.Load(catalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	httpClient := opts.httpClient
	proxyClient := proxy.NewClient(proxy.Options{
		BaseURL:    cfg.ServerURL,
		HTTPClient: httpClient,
		Locale:     locale,
		Logger:     &logger,
	})
	direct := func(ctx context.Context, apiKey string) (domain.Backend, error) {
		client, err := genai.NewClient(ctx, genai.Options{
			APIKey:     apiKey,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
			Logger:     &logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	router := gateway.NewRouter(proxyClient, direct)

	keys := credential.NewFileKeyStore(cfg.ConfigDir)
	resolver := credential.NewResolver(proxyClient, keys, logger)

	fetchClient := httpClient
	if fetchClient == nil {
		fetchClient = &http.Client{Timeout: cfg.FetchTimeout}
	}
	enc := encoder.New(encoder.Options{HTTPClient: fetchClient, Logger: &logger})
	analyzer := analysis.New(analysis.Options{
		Encoder: enc,
		Router:  router,
		Catalog: cat,
		Logger:  &logger,
		Locale:  locale,
	})
	previews := preview.New(preview.Options{
		Router:  router,
		Catalog: cat,
		Logger:  &logger,
		Locale:  locale,
	})
	session := workbench.NewSession(workbench.Options{
		Credentials: resolver,
		Analyzer:    analyzer,
		Previews:    previews,
		Catalog:     cat,
		Logger:      &logger,
	})

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		locale:   locale,
		catalog:  cat,
		keys:     keys,
		resolver: resolver,
		session:  session,
		print:    newPrinter(opts.out, opts.noColor),
	}, nil
}

// posixLocale turns values such as "zh_TW.UTF-8" into BCP 47 tags.
func posixLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "C" || raw == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(raw, "_", "-")
}
