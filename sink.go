package etwtrace

import "github.com/Microsoft/go-winio/pkg/guid"

// Handle is the registration handle a Sink returns for a provider.
type Handle uint64

// Sink is the tracing substrate events are written to. A nil error means
// success; any error is returned to the caller of Emit wrapped in a
// *SinkError.
//
// The Descriptor slices passed to WriteEvent, and the traits passed to
// SetProviderTraits, are only valid for the duration of the call.
type Sink interface {
	RegisterProvider(id guid.GUID) (Handle, error)
	SetProviderTraits(h Handle, traits []byte) error
	WriteEvent(h Handle, desc *EventDescriptor, data []Descriptor) error
	UnregisterProvider(h Handle) error
}
