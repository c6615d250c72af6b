package etwtrace

import (
	"errors"
	"fmt"
)

var (
	// ErrContextViolation is returned when a provider would have to be
	// registered above PassiveLevel.
	ErrContextViolation = errors.New("provider registration is not allowed at current priority")

	// ErrAllocation is returned when the Allocator cannot satisfy a request.
	ErrAllocation = errors.New("allocation failed")

	// ErrUnsupportedFieldType is returned for field types without a defined
	// wire size.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrFieldValueMismatch is returned when a Field's value does not have
	// the Go type its FieldType requires.
	ErrFieldValueMismatch = errors.New("field value does not match field type")

	// ErrMetadataTooLarge is returned when a metadata block would not fit
	// its 16-bit length prefix.
	ErrMetadataTooLarge = errors.New("metadata block exceeds 65535 bytes")

	// ErrInvalidName is returned for provider, event or field names that
	// contain a NUL byte.
	ErrInvalidName = errors.New("name contains a NUL byte")

	ErrEventNotRegistered = errors.New("event is not registered with the provider")

	// ErrUnsupportedPlatform is returned by NewSystemSink where ETW is not
	// available.
	ErrUnsupportedPlatform = errors.New("ETW is not supported on this platform")
)

// SinkOp names the Sink operation that failed.
type SinkOp string

//nolint:golint,stylecheck
const (
	OpRegisterProvider   SinkOp = "RegisterProvider"
	OpSetProviderTraits  SinkOp = "SetProviderTraits"
	OpWriteEvent         SinkOp = "WriteEvent"
	OpUnregisterProvider SinkOp = "UnregisterProvider"
)

// SinkError is returned when the Sink rejects an operation. Err holds the
// status reported by the sink unchanged.
type SinkError struct {
	Op  SinkOp
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s failed; %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

func sinkError(op SinkOp, err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Op: op, Err: err}
}
