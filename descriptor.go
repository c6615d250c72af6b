package etwtrace

import "fmt"

// DescriptorKind tells the sink how to interpret the bytes of a Descriptor.
// Values match EVENT_DATA_DESCRIPTOR_TYPE_*.
type DescriptorKind uint8

//nolint:golint,stylecheck
const (
	UserDataDescriptor DescriptorKind = iota
	EventMetadataDescriptor
	ProviderMetadataDescriptor
)

func (k DescriptorKind) String() string {
	switch k {
	case UserDataDescriptor:
		return "user-data"
	case EventMetadataDescriptor:
		return "event-metadata"
	case ProviderMetadataDescriptor:
		return "provider-metadata"
	default:
		return fmt.Sprintf("DescriptorKind(%d)", uint8(k))
	}
}

// Descriptor describes one contiguous region handed to the sink. Data is
// owned by whoever allocated it; the sink must not retain it past the call.
type Descriptor struct {
	Kind DescriptorKind
	Data []byte
}

// Size returns the length of the described region.
func (d Descriptor) Size() int {
	return len(d.Data)
}

// IsZero reports whether d describes nothing.
func (d Descriptor) IsZero() bool {
	return d.Data == nil
}

// ChannelTraceLogging is the channel manifest-free events are routed to.
const ChannelTraceLogging uint8 = 11

// EventDescriptor is the top-level header of a written event.
type EventDescriptor struct {
	ID      uint16
	Version uint8
	Channel uint8
	Level   uint8
	OpCode  uint8
	Task    uint16
	Keyword uint64
}

func newEventDescriptor(channel uint8, level TraceLevel, keyword uint64) *EventDescriptor {
	return &EventDescriptor{
		Channel: channel,
		Level:   uint8(level),
		Keyword: keyword,
	}
}
