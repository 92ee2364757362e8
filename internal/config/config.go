// Package config holds the runtime-mutable Alchemy connection settings.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// API payload shapes supported by the Alchemy client.
const (
	VersionV2 = "v2" // nested field-table payloads
	VersionV3 = "v3" // flat field payloads
)

// Defaults applied on startup and by Clear.
const (
	DefaultTenant       = "productcaseelnlims"
	DefaultMaterialType = 982
	DefaultProducedBy   = "700"
)

// Configuration is the full set of settings addressing one Alchemy tenant.
// A bearer token is valid for exactly one (credentials, tenant) pair, so
// every write to Email, Password or Tenant must invalidate the token cache.
type Configuration struct {
	Email          string
	Password       string
	Tenant         string
	MaterialTypeID int
	ProducedBy     string
	APIVersion     string
}

// Update carries a partial configuration change. Nil/empty fields are
// left untouched by Save; a field cannot be cleared by omission.
type Update struct {
	Email        string
	Password     string
	Tenant       string
	MaterialType int // 0 means "not provided"
}

// Manager owns the single Configuration instance. Mutations run the
// invalidate hook so the token cache never outlives the settings that
// produced it.
type Manager struct {
	mu         sync.Mutex
	cfg        Configuration
	invalidate func()
}

// NewManager returns a Manager seeded with cfg. invalidate is called on
// every mutation; pass a no-op if there is nothing to invalidate yet.
func NewManager(cfg Configuration, invalidate func()) *Manager {
	if cfg.Tenant == "" {
		cfg.Tenant = DefaultTenant
	}
	if cfg.MaterialTypeID == 0 {
		cfg.MaterialTypeID = DefaultMaterialType
	}
	if cfg.ProducedBy == "" {
		cfg.ProducedBy = DefaultProducedBy
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = VersionV2
	}
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Manager{cfg: cfg, invalidate: invalidate}
}

// SetInvalidator replaces the invalidation hook. Used during wiring when
// the token cache is built after the manager.
func (m *Manager) SetInvalidator(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	m.invalidate = fn
}

// Snapshot returns a copy of the current configuration. Callers that hold
// a snapshot across a network call keep using it even if the settings
// change mid-flight; that matches the transfer semantics.
func (m *Manager) Snapshot() Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Save merges the provided fields into the configuration and invalidates
// the token cache. Empty fields are ignored, not cleared.
func (m *Manager) Save(u Update) Configuration {
	m.mu.Lock()
	if u.Email != "" {
		m.cfg.Email = u.Email
	}
	if u.Password != "" {
		m.cfg.Password = u.Password
	}
	if u.Tenant != "" {
		m.cfg.Tenant = u.Tenant
	}
	if u.MaterialType != 0 {
		m.cfg.MaterialTypeID = u.MaterialType
	}
	cfg := m.cfg
	inv := m.invalidate
	m.mu.Unlock()

	inv()
	return cfg
}

// Clear resets credentials and restores the documented defaults, then
// invalidates the token cache.
func (m *Manager) Clear() Configuration {
	m.mu.Lock()
	m.cfg = Configuration{
		Tenant:         DefaultTenant,
		MaterialTypeID: DefaultMaterialType,
		ProducedBy:     DefaultProducedBy,
		APIVersion:     m.cfg.APIVersion,
	}
	cfg := m.cfg
	inv := m.invalidate
	m.mu.Unlock()

	inv()
	return cfg
}

// ChangeTenant switches the addressed tenant and invalidates the token
// cache. Blank or whitespace-only names are rejected.
func (m *Manager) ChangeTenant(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.ErrValidation
	}
	m.mu.Lock()
	m.cfg.Tenant = strings.TrimSpace(name)
	inv := m.invalidate
	m.mu.Unlock()

	inv()
	return nil
}

// FromEnv builds the startup configuration from environment variables,
// falling back to the documented defaults.
func FromEnv() Configuration {
	materialType := DefaultMaterialType
	if s := os.Getenv("ALCHEMY_MATERIAL_TYPE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			materialType = n
		}
	}
	version := os.Getenv("ALCHEMY_API_VERSION")
	if version != VersionV3 {
		version = VersionV2
	}
	tenant := os.Getenv("ALCHEMY_TENANT")
	if tenant == "" {
		tenant = DefaultTenant
	}
	return Configuration{
		Email:          os.Getenv("ALCHEMY_EMAIL"),
		Password:       os.Getenv("ALCHEMY_PASSWORD"),
		Tenant:         tenant,
		MaterialTypeID: materialType,
		ProducedBy:     DefaultProducedBy,
		APIVersion:     version,
	}
}
