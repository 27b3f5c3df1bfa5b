// Package intake composes the session store, assessment engine, audit sink,
// observers, and workflow into a runnable service.
//
// The runtime initializes from configuration via New, creating every
// subsystem internally. Functional options override any subsystem for tests.
//
//	rt, err := intake.New(ctx, cfg)
//	defer rt.Close()
//	http.ListenAndServe(cfg.Server.Addr(), rt.Handler())
package intake

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tailored-agentic-units/intake/api"
	"github.com/tailored-agentic-units/intake/audit"
	"github.com/tailored-agentic-units/intake/engine"
	"github.com/tailored-agentic-units/intake/observability"
	"github.com/tailored-agentic-units/intake/store"
	"github.com/tailored-agentic-units/intake/workflow"
)

// Version is reported by the service info endpoint.
const Version = "0.1.0"

// Option configures a Runtime after config-driven initialization.
// Overrides replace config-created defaults.
type Option func(*Runtime)

// WithStore overrides the config-created session store.
func WithStore(s store.Store) Option {
	return func(r *Runtime) { r.store = s }
}

// WithEngine overrides the config-created assessment engine.
func WithEngine(e engine.Engine) Option {
	return func(r *Runtime) { r.engine = e }
}

// WithAuditSink overrides the config-created audit sink.
func WithAuditSink(s audit.Sink) Option {
	return func(r *Runtime) { r.sink = s }
}

// WithObserver overrides the observer resolved from Config.Observers.
func WithObserver(o observability.Observer) Option {
	return func(r *Runtime) { r.observer = o }
}

// WithHTTPClient sets the client used by a remote engine.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runtime) { r.httpClient = c }
}

// Runtime holds every subsystem of a running intake service.
type Runtime struct {
	cfg        Config
	store      store.Store
	engine     engine.Engine
	sink       audit.Sink
	observer   observability.Observer
	httpClient *http.Client
	workflow   *workflow.Workflow
}

// New creates a Runtime from configuration. Subsystems left unset by
// options are built from their config sections.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Runtime, error) {
	r := &Runtime{cfg: *cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.observer == nil {
		obs, err := observability.Resolve(cfg.Observers)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observers: %w", err)
		}
		r.observer = obs
	}

	if r.engine == nil {
		eng, err := engine.New(&cfg.Engine, r.httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine: %w", err)
		}
		r.engine = eng
	}

	if r.store == nil {
		st, err := store.New(ctx, &cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		r.store = st
	}

	if r.sink == nil {
		r.sink = audit.New(&cfg.Audit)
	}

	r.workflow = workflow.New(r.store, r.engine, &cfg.Workflow,
		workflow.WithObserver(r.observer),
		workflow.WithAuditSink(r.sink),
	)

	return r, nil
}

// Workflow returns the runtime's session workflow.
func (r *Runtime) Workflow() *workflow.Workflow {
	return r.workflow
}

// Engine returns the runtime's assessment engine.
func (r *Runtime) Engine() engine.Engine {
	return r.engine
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Info describes the running service.
func (r *Runtime) Info() api.Info {
	return api.Info{
		Service:       r.cfg.Service,
		Version:       Version,
		EngineVersion: r.cfg.Engine.Version,
		StoreBackend:  r.cfg.Store.Backend,
	}
}

// Handler serves the patient, clinician, and info APIs.
func (r *Runtime) Handler() http.Handler {
	return api.NewHandler(r.workflow, r.Info(), api.WithObserver(r.observer))
}

// Close releases the store and audit sink.
func (r *Runtime) Close() error {
	return errors.Join(r.sink.Close(), r.store.Close())
}
