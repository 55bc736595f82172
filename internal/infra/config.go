package infra

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAnalysisModel       = "gemini-3-flash-preview"
	DefaultPrimaryImageModel   = "gemini-3-pro-image-preview"
	DefaultSecondaryImageModel = "gemini-2.5-flash-image"

	placeholderKeyPrefix = "PLACEHOLDER"
)

// Config represents the proxy server configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	GeoIPDBPath         string
	DefaultLocale       string
	CORSAllowedOrigins  []string
	GeminiAPIKey        string
	GeminiBaseURL       string
	AnalysisModel       string
	PrimaryImageModel   string
	SecondaryImageModel string
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Nothing is mandatory: a server without a key still answers key-status.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:       getEnv("DEFAULT_LOCALE", "zh-TW"),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		GeminiAPIKey:        NormalizeHostKey(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:       os.Getenv("GEMINI_BASE_URL"),
		AnalysisModel:       getEnv("ANALYSIS_MODEL", DefaultAnalysisModel),
		PrimaryImageModel:   getEnv("PRIMARY_IMAGE_MODEL", DefaultPrimaryImageModel),
		SecondaryImageModel: getEnv("SECONDARY_IMAGE_MODEL", DefaultSecondaryImageModel),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	return cfg, nil
}

// HasHostKey reports whether a usable host-managed key is configured.
func (c *Config) HasHostKey() bool {
	return c != nil && c.GeminiAPIKey != ""
}

// NormalizeHostKey trims the key and treats placeholder values as absent.
func NormalizeHostKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == "" || strings.HasPrefix(key, placeholderKeyPrefix) {
		return ""
	}
	return key
}

// ClientConfig configures the workbench CLI.
type ClientConfig struct {
	AppEnv        string
	ServerURL     string
	ConfigDir     string
	Locale        string
	GeminiBaseURL string
	CatalogPath   string
	FetchTimeout  time.Duration
}

// LoadClientConfig reads the workbench settings from the environment.
func LoadClientConfig() (*ClientConfig, error) {
	dir := strings.TrimSpace(os.Getenv("VISUALSPEC_CONFIG_DIR"))
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "visualspec")
	}
	return &ClientConfig{
		AppEnv:        getEnv("APP_ENV", "production"),
		ServerURL:     strings.TrimRight(getEnv("VISUALSPEC_SERVER_URL", "http://localhost:8080"), "/"),
		ConfigDir:     dir,
		Locale:        getEnv("VISUALSPEC_LOCALE", os.Getenv("LANG")),
		GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
		CatalogPath:   os.Getenv("VISUALSPEC_CATALOG"),
		FetchTimeout:  time.Second * time.Duration(getEnvInt("VISUALSPEC_FETCH_TIMEOUT_SECONDS", 20)),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
