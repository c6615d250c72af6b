package etwtrace

import (
	"github.com/Microsoft/go-winio/pkg/guid"
)

// Emit writes one event. The provider is registered on first use of id, the
// event schema on first use of eventName within that provider. Field values
// are written in the order given, which must match the order of the fields
// the event was first registered with.
//
// Emit fails with ErrContextViolation, before touching the registry, when
// called above PassiveLevel. Any failure before the write aborts it and is
// returned as is.
func (r *Registry) Emit(providerName string, id guid.GUID, eventName string, level TraceLevel, keyword uint64, fields ...Field) error {
	logger := r.opts.Logger

	if prio := r.opts.Priority(); prio > PassiveLevel {
		logger.Warn().Str("provider", providerName).Str("event", eventName).Uint8("priority", uint8(prio)).Msg("write rejected")
		return ErrContextViolation
	}

	p, err := r.EnsureProvider(providerName, id)
	if err != nil {
		return err
	}

	ev, err := p.EnsureEvent(eventName, specsOf(fields))
	if err != nil {
		logger.Warn().Str("provider", providerName).Str("event", eventName).Err(err).Msg("event registration failed")
		return err
	}

	desc := newEventDescriptor(r.opts.Channel, level, keyword)
	if err := p.writeEvent(ev, desc, fields, r.opts.ReleaseFieldValues); err != nil {
		logger.Warn().Str("provider", providerName).Str("event", eventName).Err(err).Msg("write failed")
		return err
	}

	logger.Debug().Str("provider", providerName).Str("event", eventName).Int("fields", len(fields)).Msg("event written")

	return nil
}

// The package keeps one default Registry for Trace. It has no locking of its
// own, like any Registry.
//
//nolint:gochecknoglobals
var defaultRegistry *Registry

// Init installs a default Registry writing to sink, closing any previous
// one.
func Init(sink Sink, opts ...Option) error {
	err := Shutdown()
	defaultRegistry = NewRegistry(sink, opts...)
	return err
}

// Trace writes one event through the default Registry, building it over
// NewSystemSink on first use if Init was not called.
func Trace(providerName string, id guid.GUID, eventName string, level TraceLevel, keyword uint64, fields ...Field) error {
	if defaultRegistry == nil {
		sink, err := NewSystemSink()
		if err != nil {
			return err
		}
		defaultRegistry = NewRegistry(sink)
	}

	return defaultRegistry.Emit(providerName, id, eventName, level, keyword, fields...)
}

// Shutdown closes the default Registry, unregistering every provider, and
// forgets it.
func Shutdown() error {
	if defaultRegistry == nil {
		return nil
	}
	err := defaultRegistry.Close()
	defaultRegistry = nil
	return err
}
