package etwtrace

import (
	"fmt"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// RecordedCall is one operation seen by a Recorder.
type RecordedCall struct {
	Op     SinkOp    `json:"op"`
	Handle Handle    `json:"handle"`
	ID     guid.GUID `json:"id,omitempty"`
	Traits []byte    `json:"traits,omitempty"`
}

// RecordedWrite is one WriteEvent seen by a Recorder. Descriptor data is
// copied at call time.
type RecordedWrite struct {
	Handle      Handle          `json:"handle"`
	Event       EventDescriptor `json:"event"`
	Descriptors []Descriptor    `json:"descriptors"`
}

// Recorder is an in-memory Sink. It keeps every call in order and can be told
// to fail any operation. Handles start at 1.
type Recorder struct {
	Calls  []RecordedCall
	Writes []RecordedWrite

	// Errors returned by the matching operation when set.
	RegisterErr   error
	TraitsErr     error
	WriteErr      error
	UnregisterErr error

	next       Handle
	registered map[Handle]guid.GUID
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{registered: make(map[Handle]guid.GUID)}
}

func (r *Recorder) RegisterProvider(id guid.GUID) (Handle, error) {
	r.Calls = append(r.Calls, RecordedCall{Op: OpRegisterProvider, ID: id})
	if r.RegisterErr != nil {
		return 0, r.RegisterErr
	}

	r.next++
	r.registered[r.next] = id
	r.Calls[len(r.Calls)-1].Handle = r.next

	return r.next, nil
}

func (r *Recorder) SetProviderTraits(h Handle, traits []byte) error {
	r.Calls = append(r.Calls, RecordedCall{Op: OpSetProviderTraits, Handle: h, Traits: append([]byte(nil), traits...)})
	if r.TraitsErr != nil {
		return r.TraitsErr
	}
	if _, ok := r.registered[h]; !ok {
		return fmt.Errorf("unknown handle %d", h)
	}
	return nil
}

func (r *Recorder) WriteEvent(h Handle, desc *EventDescriptor, data []Descriptor) error {
	r.Calls = append(r.Calls, RecordedCall{Op: OpWriteEvent, Handle: h})
	if r.WriteErr != nil {
		return r.WriteErr
	}
	if _, ok := r.registered[h]; !ok {
		return fmt.Errorf("unknown handle %d", h)
	}

	w := RecordedWrite{Handle: h, Event: *desc, Descriptors: make([]Descriptor, len(data))}
	for i, d := range data {
		w.Descriptors[i] = Descriptor{Kind: d.Kind, Data: append([]byte(nil), d.Data...)}
	}
	r.Writes = append(r.Writes, w)

	return nil
}

func (r *Recorder) UnregisterProvider(h Handle) error {
	r.Calls = append(r.Calls, RecordedCall{Op: OpUnregisterProvider, Handle: h})
	if r.UnregisterErr != nil {
		return r.UnregisterErr
	}
	if _, ok := r.registered[h]; !ok {
		return fmt.Errorf("unknown handle %d", h)
	}
	delete(r.registered, h)
	return nil
}

// Ops returns the sequence of operations recorded so far.
func (r *Recorder) Ops() []SinkOp {
	ops := make([]SinkOp, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Registered reports the number of providers currently registered.
func (r *Recorder) Registered() int {
	return len(r.registered)
}
