// Package credentials persists the host-managed provider key for deployments
// that keep secrets in Postgres rather than the process environment.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"visualspec/internal/infra"
	"visualspec/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// EnsureSchema creates the integration_tokens table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QCreateIntegrationTokens)
	return err
}

// GeminiAPIKey returns the stored host key, or "" when none is stored.
// Placeholder values count as absent.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	token, err := s.Token(ctx, ProviderGemini)
	if err != nil {
		return "", err
	}
	return infra.NormalizeHostKey(token), nil
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string, props map[string]any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.upsert(ctx, ProviderGemini, key, props)
}

// DeleteGeminiAPIKey removes the stored host key. Deleting a missing key is
// not an error.
func (s *Store) DeleteGeminiAPIKey(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderGemini)
	return err
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
