package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"visualspec/internal/infra"
	"visualspec/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag     string
		migrateFlag bool
		deleteFlag  bool
		statusFlag  bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key to store for the proxy (fallbacks to GEMINI_API_KEY)")
	flag.BoolVar(&migrateFlag, "migrate", false, "create the integration_tokens table before writing")
	flag.BoolVar(&deleteFlag, "delete", false, "remove the stored key instead of writing one")
	flag.BoolVar(&statusFlag, "status", false, "report whether a usable key is stored")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "hostkey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if migrateFlag {
		if err := store.EnsureSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create schema: %v\n", err)
			os.Exit(1)
		}
	}

	switch {
	case statusFlag:
		key, err := store.GeminiAPIKey(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read stored key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("hasServerKey=%t\n", key != "")
	case deleteFlag:
		if err := store.DeleteGeminiAPIKey(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to delete key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Gemini API key removed")
	default:
		key := strings.TrimSpace(keyFlag)
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		}
		if infra.NormalizeHostKey(key) == "" {
			fmt.Fprintln(os.Stderr, "a real Gemini API key is required via -key or GEMINI_API_KEY")
			os.Exit(1)
		}
		props := map[string]any{"updated_by": "hostkey", "updated_at": time.Now().UTC().Format(time.RFC3339)}
		if err := store.SetGeminiAPIKey(ctx, key, props); err != nil {
			fmt.Fprintf(os.Stderr, "failed to persist gemini api key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Gemini API key stored successfully")
	}
}
