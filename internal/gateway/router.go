// Package gateway maps a credential to the backend that serves it.
package gateway

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"visualspec/internal/domain"
)

// DirectFactory builds a backend that calls the provider with apiKey.
type DirectFactory func(ctx context.Context, apiKey string) (domain.Backend, error)

// Router dispatches HostManaged credentials to the proxy and UserProvided
// credentials to a direct backend. The direct backend for the most recent
// key is cached; a new key replaces it.
type Router struct {
	proxy  domain.Backend
	direct DirectFactory

	mu         sync.Mutex
	cachedKey  [sha256.Size]byte
	cached     domain.Backend
	cachedUsed bool
}

func NewRouter(proxy domain.Backend, direct DirectFactory) *Router {
	return &Router{proxy: proxy, direct: direct}
}

// Backend returns the backend for cred. None yields
// domain.ErrMissingCredential without touching the network.
func (r *Router) Backend(ctx context.Context, cred domain.Credential) (domain.Backend, error) {
	switch cred.Kind() {
	case domain.CredentialHostManaged:
		if r.proxy == nil {
			return nil, fmt.Errorf("gateway: host proxy not configured: %w", domain.ErrMissingCredential)
		}
		return r.proxy, nil
	case domain.CredentialUserProvided:
		key, _ := cred.Key()
		return r.directFor(ctx, key)
	default:
		return nil, domain.ErrMissingCredential
	}
}

func (r *Router) directFor(ctx context.Context, key string) (domain.Backend, error) {
	if r.direct == nil {
		return nil, fmt.Errorf("gateway: direct backend not configured: %w", domain.ErrMissingCredential)
	}
	digest := sha256.Sum256([]byte(key))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cachedUsed && r.cachedKey == digest {
		return r.cached, nil
	}
	backend, err := r.direct(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("gateway: build direct backend: %w", err)
	}
	r.cachedKey = digest
	r.cached = backend
	r.cachedUsed = true
	return backend, nil
}
