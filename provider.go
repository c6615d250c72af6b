package etwtrace

import (
	"fmt"

	"github.com/Microsoft/go-winio/pkg/guid"
	plog "github.com/phuslu/log"
	"go.uber.org/multierr"
)

// TraceLevel represents provider-defined value that specifies the level of
// detail included in the event. Lower values are more severe.
type TraceLevel uint8

//nolint:golint,stylecheck // We keep original names to underline that it's an external constants.
const (
	TRACE_LEVEL_CRITICAL    = TraceLevel(1)
	TRACE_LEVEL_ERROR       = TraceLevel(2)
	TRACE_LEVEL_WARNING     = TraceLevel(3)
	TRACE_LEVEL_INFORMATION = TraceLevel(4)
	TRACE_LEVEL_VERBOSE     = TraceLevel(5)
)

// Provider is a registration with the sink, identified by its GUID. It owns
// the provider traits block and the schemas of every event written through
// it. Providers are created by a Registry and live until the Registry is
// closed.
type Provider struct {
	// The provider ID. Never changes after registration.
	ID guid.GUID

	// Name is the provider name carried in the traits block.
	Name string

	handle   Handle
	metadata Descriptor
	events   []*Event

	sink  Sink
	alloc Allocator
	log   *plog.Logger
}

// String returns the `provider`.ID as a string
func (p *Provider) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.ID.String()
}

// Handle returns the sink registration handle.
func (p *Provider) Handle() Handle {
	return p.handle
}

// MetadataDescriptor returns the descriptor of the provider traits block.
func (p *Provider) MetadataDescriptor() Descriptor {
	return p.metadata
}

// Events returns the registered events in registration order.
func (p *Provider) Events() []*Event {
	return append([]*Event(nil), p.events...)
}

// sameID compares two provider ids member by member.
func sameID(a, b guid.GUID) bool {
	if a.Data1 != b.Data1 || a.Data2 != b.Data2 || a.Data3 != b.Data3 {
		return false
	}
	for i := range a.Data4 {
		if a.Data4[i] != b.Data4[i] {
			return false
		}
	}
	return true
}

// register registers p with the sink and hands it the traits block. If any
// step fails p is left unregistered and owns nothing.
func (p *Provider) register() error {
	handle, err := p.sink.RegisterProvider(p.ID)
	if err != nil {
		return sinkError(OpRegisterProvider, err)
	}
	p.handle = handle

	md, err := buildProviderMetadata(p.alloc, p.Name)
	if err != nil {
		return multierr.Append(err, p.unregister())
	}

	if err := p.sink.SetProviderTraits(p.handle, md.Data); err != nil {
		p.alloc.Free(md.Data, TagProviderMetadata)
		return multierr.Append(sinkError(OpSetProviderTraits, err), p.unregister())
	}
	p.metadata = md

	return nil
}

func (p *Provider) unregister() error {
	if p.handle == 0 {
		return nil
	}
	err := p.sink.UnregisterProvider(p.handle)
	p.handle = 0
	return sinkError(OpUnregisterProvider, err)
}

// close frees every event schema, unregisters the provider and frees the
// traits block, in that order.
func (p *Provider) close() error {
	for _, ev := range p.events {
		ev.free(p.alloc)
	}
	p.events = nil

	err := p.unregister()
	if err != nil {
		p.log.Warn().Str("provider", p.Name).Stringer("id", p.ID).Err(err).Msg("unregister failed")
	}

	if !p.metadata.IsZero() {
		p.alloc.Free(p.metadata.Data, TagProviderMetadata)
		p.metadata = Descriptor{}
	}

	return err
}

// writeEvent sends one instance of ev. Field values are encoded into fresh
// buffers in argument order, after the provider and event metadata
// descriptors. Unless release is set the value buffers are never freed.
func (p *Provider) writeEvent(ev *Event, desc *EventDescriptor, fields []Field, release bool) error {
	if ev == nil {
		return ErrEventNotRegistered
	}

	data := make([]Descriptor, 2, 2+len(fields))
	data[0] = p.metadata
	data[1] = ev.metadata

	if release {
		defer func() {
			for _, d := range data[2:] {
				p.alloc.Free(d.Data, TagFieldValue)
			}
		}()
	}

	for _, f := range fields {
		d, err := Encode(p.alloc, f)
		if err != nil {
			return fmt.Errorf("event %q: %w", ev.name, err)
		}
		data = append(data, d)
	}

	if err := p.sink.WriteEvent(p.handle, desc, data); err != nil {
		return sinkError(OpWriteEvent, err)
	}

	return nil
}
