// Package service implements the credential registry state machine: minting
// (admin and signature-authorized), renewal, trait mutation, sanctions
// recording, and burn, plus the read-time validity derivations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"idregistry/internal/identity/authorizer"
	"idregistry/internal/identity/events"
	"idregistry/internal/identity/ledger"
	idmetrics "idregistry/internal/identity/metrics"
	"idregistry/internal/identity/models"
	"idregistry/internal/identity/store"
	"idregistry/internal/identity/traits"
	"idregistry/pkg/platform/sentinel"
	"idregistry/pkg/requestcontext"
)

// DefaultMintCost is the baseline price of a self-service mint, in the
// deployment's smallest payment unit. Authority-settable at runtime.
const DefaultMintCost uint64 = 1000

// Registry orchestrates credential lifecycle operations. Every mutating
// operation runs under one mutex, so each call is atomic: it either fully
// commits or leaves all state unchanged, and the validate-mint-advance
// sequence of a self-mint is a single critical section.
type Registry struct {
	mu         sync.Mutex
	store      store.Store
	ledger     ledger.Ledger
	authorizer *authorizer.Authorizer
	events     events.Publisher
	metrics    *idmetrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	authority    models.Address
	expiryWindow time.Duration

	mintCost uint64
	balance  uint64
}

// Option configures optional Registry collaborators.
type Option func(*Registry)

// WithEvents sets the observer sink for registry notifications.
func WithEvents(publisher events.Publisher) Option {
	return func(r *Registry) { r.events = publisher }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *idmetrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithExpiryWindow overrides the trait-validity window measured from mint
// time (default 90 days).
func WithExpiryWindow(window time.Duration) Option {
	return func(r *Registry) { r.expiryWindow = window }
}

// WithMintCost overrides the initial self-mint price.
func WithMintCost(cost uint64) Option {
	return func(r *Registry) { r.mintCost = cost }
}

// New constructs a Registry. The authority address is the only identity
// allowed to perform restricted operations; it is a configuration value,
// not a stored role.
func New(credentials store.Store, ownership ledger.Ledger, auth *authorizer.Authorizer, authority models.Address, opts ...Option) *Registry {
	r := &Registry{
		store:        credentials,
		ledger:       ownership,
		authorizer:   auth,
		events:       nopPublisher{},
		logger:       slog.Default(),
		tracer:       otel.Tracer("idregistry/identity"),
		authority:    authority.Normalize(),
		expiryWindow: models.DefaultTraitExpiryWindow,
		mintCost:     DefaultMintCost,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// requireAuthority checks the caller against the current authority. Called
// before the operation takes r.mu, so it takes and releases the lock itself.
func (r *Registry) requireAuthority(ctx context.Context) error {
	caller := requestcontext.Caller(ctx).Normalize()
	r.mu.Lock()
	authority := r.authority
	r.mu.Unlock()
	if caller.IsZero() || caller != authority {
		return fmt.Errorf("caller %q is not the registry authority: %w", caller, sentinel.ErrUnauthorized)
	}
	return nil
}

// emit delivers a notification without affecting the outcome of the
// operation that produced it.
func (r *Registry) emit(ctx context.Context, event events.Event) {
	if err := r.events.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "event delivery failed",
			"type", event.Type,
			"credential_id", event.CredentialID,
			"error", err,
		)
	}
}

// validateTraitNames rejects names the trait store cannot represent
// (empty, or containing the reserved list separator).
func validateTraitNames(names ...string) error {
	for _, name := range names {
		if !traits.ValidName(name) {
			return fmt.Errorf("invalid trait name %q: %w", name, sentinel.ErrUnavailable)
		}
	}
	return nil
}

// wrapNotFound keeps store sentinels flowing to callers with context.
func wrapNotFound(err error, id uint64) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("credential %d: %w", id, sentinel.ErrNotFound)
	}
	return err
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error { return nil }
