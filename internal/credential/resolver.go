// Package credential decides, once per session, whether provider calls go
// through the host proxy or use a key the user supplied.
package credential

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"visualspec/internal/domain"
)

// HostProbe reports whether the host proxy holds a usable key.
type HostProbe interface {
	KeyStatus(ctx context.Context) (bool, error)
}

// KeyStore persists the single user-provided key.
type KeyStore interface {
	Load() (string, error)
	Save(key string) error
	Clear() error
}

// Resolver is safe for concurrent use.
type Resolver struct {
	probe  HostProbe
	store  KeyStore
	logger zerolog.Logger

	mu          sync.Mutex
	probed      bool
	hostManaged bool
	userKey     string
}

func NewResolver(probe HostProbe, store KeyStore, logger zerolog.Logger) *Resolver {
	return &Resolver{probe: probe, store: store, logger: logger}
}

// Resolve returns the credential to use for the next provider call. The
// first call probes the host exactly once; a positive answer pins
// HostManaged for the rest of the session. A key set during the session wins
// over storage. Failures degrade to the stored user key, or None, and are
// only logged.
func (r *Resolver) Resolve(ctx context.Context) domain.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.probed {
		r.probed = true
		r.hostManaged = r.probeHost(ctx)
	}
	if r.hostManaged {
		return domain.HostManaged()
	}
	if r.userKey != "" {
		return domain.UserProvided(r.userKey)
	}
	return r.loadUserKey()
}

// SetUserKey stores a trimmed user key and switches the session to it.
// Blank input is ignored.
func (r *Resolver) SetUserKey(raw string) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.probed = true
	r.hostManaged = false
	r.userKey = key
	if r.store == nil {
		return
	}
	if err := r.store.Save(key); err != nil {
		r.logger.Error().Err(err).Msg("credential: persist user key failed")
	}
}

// ClearUserKey erases the stored key. The session then resolves to None
// until a new key is set.
func (r *Resolver) ClearUserKey() domain.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.probed = true
	r.hostManaged = false
	r.userKey = ""
	if r.store != nil {
		if err := r.store.Clear(); err != nil {
			r.logger.Error().Err(err).Msg("credential: clear user key failed")
		}
	}
	return domain.NoCredential()
}

func (r *Resolver) probeHost(ctx context.Context) bool {
	if r.probe == nil {
		return false
	}
	ok, err := r.probe.KeyStatus(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("credential: host probe failed; falling back to user key")
		return false
	}
	return ok
}

func (r *Resolver) loadUserKey() domain.Credential {
	if r.store == nil {
		return domain.NoCredential()
	}
	key, err := r.store.Load()
	if err != nil {
		r.logger.Warn().Err(err).Msg("credential: read user key failed")
		return domain.NoCredential()
	}
	return domain.UserProvided(key)
}
