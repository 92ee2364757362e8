package alchemy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mockerp/alchemy-bridge/internal/config"
	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// SignInAPI is the slice of the client the token manager needs.
type SignInAPI interface {
	SignIn(ctx context.Context, email, password string) ([]TenantToken, error)
}

// ConfigSource provides the current connection settings.
type ConfigSource interface {
	Snapshot() config.Configuration
}

// TokenManager caches the bearer token for the configured tenant. The
// cached value stays valid until the expiry embedded in the token itself
// passes, or until an invalidating operation (credential save, tenant
// change, clear-token, material revert) runs.
type TokenManager struct {
	api SignInAPI
	cfg ConfigSource

	mu      sync.Mutex
	token   string
	expiry  time.Time
	nowFunc func() time.Time
}

// NewTokenManager returns a manager with an empty cache.
func NewTokenManager(api SignInAPI, cfg ConfigSource) *TokenManager {
	return &TokenManager{api: api, cfg: cfg, nowFunc: time.Now}
}

// Token returns a usable bearer token, signing in only on cache miss.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && m.expiry.After(m.nowFunc()) {
		tok := m.token
		m.mu.Unlock()
		return tok, nil
	}
	m.mu.Unlock()

	cfg := m.cfg.Snapshot()
	if cfg.Email == "" || cfg.Password == "" {
		return "", errs.ErrMissingCredentials
	}

	tokens, err := m.api.SignIn(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return "", err
	}

	var token string
	for _, t := range tokens {
		if t.Tenant == cfg.Tenant {
			token = t.AccessToken
			break
		}
	}
	if token == "" {
		return "", fmt.Errorf("%w: no access token found for tenant %q", errs.ErrUnauthorized, cfg.Tenant)
	}

	expiry, err := tokenExpiry(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}

	m.mu.Lock()
	m.token = token
	m.expiry = expiry
	m.mu.Unlock()
	return token, nil
}

// Invalidate drops the cached token. The next Token call signs in again.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiry = time.Time{}
	m.mu.Unlock()
}

// tokenExpiry reads the exp claim out of a JWT without verifying the
// signature. The cache trusts the token's own expiry instead of assuming
// a fixed TTL.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token claims: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}
