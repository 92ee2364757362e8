// Package transfer implements the create-then-read transaction that
// pushes a local material into Alchemy and reconciles the result back
// into the local store.
package transfer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mockerp/alchemy-bridge/internal/alchemy"
	"github.com/mockerp/alchemy-bridge/internal/config"
	"github.com/mockerp/alchemy-bridge/internal/logger"
	"github.com/mockerp/alchemy-bridge/internal/materials"
)

// CodeNotAvailable is reported when the record was created but the
// read-back did not yield a Code. Creation is the durable side effect;
// code retrieval is best-effort.
const CodeNotAvailable = "N/A"

// DefaultIndexingDelay gives Alchemy's indexer time to materialize the
// generated Code before the read-back. Not a retry loop.
const DefaultIndexingDelay = 1500 * time.Millisecond

// TokenSource yields a usable bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// API is the slice of the Alchemy client the orchestrator calls.
type API interface {
	CreateMaterial(ctx context.Context, token string, payload any) (int64, error)
	ReadRecord(ctx context.Context, token string, id int64) (alchemy.Record, error)
}

// MaterialStore is the slice of the local store the orchestrator needs.
type MaterialStore interface {
	Get(id string) (materials.Material, error)
	SetTransferred(id, code string, externalID int64, url string) (materials.Material, error)
}

// Result is what a completed transfer hands back to the caller.
type Result struct {
	Code string
	URL  string
}

// Orchestrator runs the two-step create-then-read transfer.
type Orchestrator struct {
	api    API
	tokens TokenSource
	store  MaterialStore
	cfg    interface{ Snapshot() config.Configuration }
	log    *logger.Logger

	appBaseURL    string
	indexingDelay time.Duration
	codeFunc      func() string // correlation code generator
}

// Option tweaks an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithIndexingDelay overrides the wait between create and read-back.
// Tests inject a near-zero delay here.
func WithIndexingDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.indexingDelay = d }
}

// WithAppBaseURL overrides the deep-link root.
func WithAppBaseURL(base string) Option {
	return func(o *Orchestrator) { o.appBaseURL = base }
}

// WithCodeFunc overrides the correlation code generator.
func WithCodeFunc(fn func() string) Option {
	return func(o *Orchestrator) { o.codeFunc = fn }
}

// New wires an Orchestrator.
func New(api API, tokens TokenSource, store MaterialStore, cfg interface{ Snapshot() config.Configuration }, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:           api,
		tokens:        tokens,
		store:         store,
		cfg:           cfg,
		log:           log,
		appBaseURL:    alchemy.DefaultAppBaseURL,
		indexingDelay: DefaultIndexingDelay,
		codeFunc:      shortUUID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// shortUUID returns the first hyphen-separated segment of a fresh UUID.
// It tags the outgoing record so duplicates are distinguishable; it is
// not the Code Alchemy generates.
func shortUUID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// Transfer pushes the material with the given local id into Alchemy.
//
// Any failure before the local mutation leaves the material completely
// unchanged. A failed or empty Code read-back after a successful create
// does not roll anything back: the material is still marked Transferred
// with the CodeNotAvailable sentinel.
func (o *Orchestrator) Transfer(ctx context.Context, materialID string) (Result, error) {
	m, err := o.store.Get(materialID)
	if err != nil {
		return Result{}, err
	}

	token, err := o.tokens.Token(ctx)
	if err != nil {
		return Result{}, err
	}

	// Config is snapshotted once; a save-credentials racing this
	// transfer does not change the payload or the token in flight.
	cfg := o.cfg.Snapshot()
	correlation := o.codeFunc()
	payload := alchemy.CreatePayload(cfg.APIVersion, cfg.MaterialTypeID, alchemy.MaterialFields{
		TradeName:      m.TradeName,
		Category:       m.Category,
		MaterialStatus: m.MaterialStatus,
		ProducedBy:     cfg.ProducedBy,
		ExternalCode:   correlation,
	})

	externalID, err := o.api.CreateMaterial(ctx, token, payload)
	if err != nil {
		return Result{}, err
	}
	o.log.Info("material created in alchemy",
		"material_id", materialID, "alchemy_id", externalID, "correlation", correlation)

	// Give the indexer time to compute the Code before reading it back.
	if err := o.wait(ctx); err != nil {
		// Context died mid-delay; the record exists upstream, so
		// finish the local reconciliation with the sentinel code.
		return o.finish(materialID, CodeNotAvailable, externalID, cfg.Tenant)
	}

	code := CodeNotAvailable
	rec, err := o.api.ReadRecord(ctx, token, externalID)
	if err != nil {
		o.log.Warn("code read-back failed, keeping transfer",
			"material_id", materialID, "alchemy_id", externalID, "err", err.Error())
	} else if v, ok := rec.Field("Code"); ok {
		code = v
	}

	return o.finish(materialID, code, externalID, cfg.Tenant)
}

func (o *Orchestrator) wait(ctx context.Context) error {
	if o.indexingDelay <= 0 {
		return nil
	}
	t := time.NewTimer(o.indexingDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) finish(materialID, code string, externalID int64, tenant string) (Result, error) {
	url := o.appBaseURL + "/" + tenant + "/record/" + strconv.FormatInt(externalID, 10)
	if _, err := o.store.SetTransferred(materialID, code, externalID, url); err != nil {
		// The material vanished while we were talking to Alchemy.
		// Accepted race: the upstream record stays, local state is gone.
		return Result{}, err
	}
	return Result{Code: code, URL: url}, nil
}
