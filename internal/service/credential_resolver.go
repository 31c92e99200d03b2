package service

import (
	"context"
	"sync"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/repository"
)

// DefaultCredentialTTL is how long resolved credentials stay cached.
// Configs change rarely; a short TTL bounds how long a revoked key
// keeps being used.
const DefaultCredentialTTL = 5 * time.Minute

// CredentialResolver resolves an owner's active gateway credentials.
// Resolution fails closed: a missing config returns ErrConfigNotFound
// and a deactivated one returns ErrConfigInactive, never a guess.
type CredentialResolver interface {
	// Resolve returns the credentials for the owner's active config
	Resolve(ctx context.Context, ownerID string) (domain.Credentials, error)

	// Invalidate drops the owner's cached entry after a config change
	Invalidate(ownerID string)
}

type credentialEntry struct {
	creds     domain.Credentials
	expiresAt time.Time
}

// CachedCredentialResolver resolves credentials through the config
// repository with a short-TTL in-process cache. Credentials never leave
// the process; only active configs are cached, so a deactivated owner
// fails closed as soon as the entry expires or is invalidated.
type CachedCredentialResolver struct {
	configs repository.PaymentConfigRepository
	ttl     time.Duration

	mu      sync.RWMutex
	entries map[string]credentialEntry
}

// NewCredentialResolver creates a caching credential resolver
func NewCredentialResolver(configs repository.PaymentConfigRepository, ttl time.Duration) *CachedCredentialResolver {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	return &CachedCredentialResolver{
		configs: configs,
		ttl:     ttl,
		entries: make(map[string]credentialEntry),
	}
}

// Resolve returns the credentials for the owner's active config
func (r *CachedCredentialResolver) Resolve(ctx context.Context, ownerID string) (domain.Credentials, error) {
	if creds, ok := r.cached(ownerID); ok {
		return creds, nil
	}

	config, err := r.configs.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return domain.Credentials{}, err
	}
	if !config.IsActive {
		return domain.Credentials{}, domain.ErrConfigInactive
	}

	creds := config.Credentials()
	r.mu.Lock()
	r.entries[ownerID] = credentialEntry{
		creds:     creds,
		expiresAt: time.Now().Add(r.ttl),
	}
	r.mu.Unlock()

	return creds, nil
}

// Invalidate drops the owner's cached entry after a config change
func (r *CachedCredentialResolver) Invalidate(ownerID string) {
	r.mu.Lock()
	delete(r.entries, ownerID)
	r.mu.Unlock()
}

func (r *CachedCredentialResolver) cached(ownerID string) (domain.Credentials, bool) {
	r.mu.RLock()
	entry, ok := r.entries[ownerID]
	r.mu.RUnlock()

	if !ok {
		return domain.Credentials{}, false
	}
	if time.Now().After(entry.expiresAt) {
		r.mu.Lock()
		// Re-check under the write lock; Resolve may have refreshed it
		if current, ok := r.entries[ownerID]; ok && time.Now().After(current.expiresAt) {
			delete(r.entries, ownerID)
		}
		r.mu.Unlock()
		return domain.Credentials{}, false
	}
	return entry.creds, true
}

var _ CredentialResolver = (*CachedCredentialResolver)(nil)
