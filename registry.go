package etwtrace

import (
	"github.com/Microsoft/go-winio/pkg/guid"
	"go.uber.org/multierr"
)

// Registry owns every Provider registered through it. It is not safe for
// concurrent use: callers that write from more than one goroutine must
// serialize their calls, including the first write of any provider or event.
type Registry struct {
	sink      Sink
	opts      Options
	providers []*Provider
}

// NewRegistry returns an empty Registry writing to sink.
func NewRegistry(sink Sink, opts ...Option) *Registry {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Registry{
		sink: sink,
		opts: cfg,
	}
}

// Options returns the effective configuration of r.
func (r *Registry) Options() Options {
	return r.opts
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []*Provider {
	return append([]*Provider(nil), r.providers...)
}

// FindProvider returns the provider registered under id, or nil.
func (r *Registry) FindProvider(id guid.GUID) *Provider {
	for _, p := range r.providers {
		if sameID(p.ID, id) {
			return p
		}
	}
	return nil
}

// EnsureProvider returns the provider registered under id. If there is none,
// a new provider named name is registered with the sink, given its traits
// and appended. A provider that fails to register is not kept.
func (r *Registry) EnsureProvider(name string, id guid.GUID) (*Provider, error) {
	if p := r.FindProvider(id); p != nil {
		return p, nil
	}

	p := &Provider{
		ID:    id,
		Name:  name,
		sink:  r.sink,
		alloc: r.opts.Allocator,
		log:   r.opts.Logger,
	}
	if err := p.register(); err != nil {
		r.opts.Logger.Warn().Str("provider", name).Stringer("id", id).Err(err).Msg("provider registration failed")
		return nil, err
	}

	r.providers = append(r.providers, p)
	r.opts.Logger.Debug().Str("provider", name).Stringer("id", id).Uint64("handle", uint64(p.handle)).Msg("provider registered")

	return p, nil
}

// Close tears down every provider and empties the registry. All providers
// are closed even if some fail; the failures are combined.
func (r *Registry) Close() error {
	var err error
	for _, p := range r.providers {
		err = multierr.Append(err, p.close())
	}
	r.providers = nil
	return err
}
