package alchemy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mockerp/alchemy-bridge/internal/config"
	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// makeJWT builds an unsigned token whose only claim is exp.
func makeJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	payload, err := json.Marshal(map[string]any{"exp": exp.Unix()})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return enc([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + enc(payload) + "." + enc([]byte("sig"))
}

type mockSignIn struct {
	calls  int
	tokens []TenantToken
	err    error
}

func (m *mockSignIn) SignIn(ctx context.Context, email, password string) ([]TenantToken, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.tokens, nil
}

func testManager(email, password, tenant string) *config.Manager {
	return config.NewManager(config.Configuration{
		Email:    email,
		Password: password,
		Tenant:   tenant,
	}, nil)
}

func TestToken_CachedAcrossCalls(t *testing.T) {
	tok := makeJWT(t, time.Now().Add(time.Hour))
	api := &mockSignIn{tokens: []TenantToken{{Tenant: "acme", AccessToken: tok}}}
	tm := NewTokenManager(api, testManager("a@b.c", "pw", "acme"))

	first, err := tm.Token(context.Background())
	if err != nil {
		t.Fatalf("first Token: %v", err)
	}
	second, err := tm.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical token, got %q then %q", first, second)
	}
	if api.calls != 1 {
		t.Fatalf("expected exactly one sign-in, got %d", api.calls)
	}
}

func TestToken_MissingCredentials(t *testing.T) {
	api := &mockSignIn{}
	tm := NewTokenManager(api, testManager("", "", "acme"))

	_, err := tm.Token(context.Background())
	if !errors.Is(err, errs.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("configuration error should be an authentication error, got %v", err)
	}
	if api.calls != 0 {
		t.Fatalf("no sign-in should happen without credentials, got %d", api.calls)
	}
}

func TestToken_NoTokenForTenant(t *testing.T) {
	tok := makeJWT(t, time.Now().Add(time.Hour))
	api := &mockSignIn{tokens: []TenantToken{{Tenant: "other", AccessToken: tok}}}
	tm := NewTokenManager(api, testManager("a@b.c", "pw", "acme"))

	_, err := tm.Token(context.Background())
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestToken_InvalidateForcesSignIn(t *testing.T) {
	tok := makeJWT(t, time.Now().Add(time.Hour))
	api := &mockSignIn{tokens: []TenantToken{{Tenant: "acme", AccessToken: tok}}}
	tm := NewTokenManager(api, testManager("a@b.c", "pw", "acme"))

	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	tm.Invalidate()
	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token after invalidate: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("expected a fresh sign-in after invalidate, got %d calls", api.calls)
	}
}

func TestToken_ConfigMutationsInvalidate(t *testing.T) {
	tok := makeJWT(t, time.Now().Add(time.Hour))
	api := &mockSignIn{tokens: []TenantToken{
		{Tenant: "acme", AccessToken: tok},
		{Tenant: "beta", AccessToken: tok},
	}}
	mgr := testManager("a@b.c", "pw", "acme")
	tm := NewTokenManager(api, mgr)
	mgr.SetInvalidator(tm.Invalidate)

	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}

	if err := mgr.ChangeTenant("beta"); err != nil {
		t.Fatalf("ChangeTenant: %v", err)
	}
	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token after tenant change: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("tenant change must force a sign-in, got %d calls", api.calls)
	}

	mgr.Save(config.Update{Password: "new-pw"})
	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token after save: %v", err)
	}
	if api.calls != 3 {
		t.Fatalf("credential save must force a sign-in, got %d calls", api.calls)
	}
}

func TestToken_ExpiredCacheRefreshes(t *testing.T) {
	tok := makeJWT(t, time.Now().Add(time.Hour))
	api := &mockSignIn{tokens: []TenantToken{{Tenant: "acme", AccessToken: tok}}}
	tm := NewTokenManager(api, testManager("a@b.c", "pw", "acme"))

	now := time.Now()
	tm.nowFunc = func() time.Time { return now }

	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}

	// Move the clock past the embedded expiry.
	tm.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := tm.Token(context.Background()); err != nil {
		t.Fatalf("Token after expiry: %v", err)
	}
	if api.calls != 2 {
		t.Fatalf("expired cache must re-sign-in, got %d calls", api.calls)
	}
}

func TestTokenExpiry_ReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	got, err := tokenExpiry(makeJWT(t, exp))
	if err != nil {
		t.Fatalf("tokenExpiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got)
	}
}

func TestTokenExpiry_RejectsGarbage(t *testing.T) {
	if _, err := tokenExpiry("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
