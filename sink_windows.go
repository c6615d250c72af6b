//go:build windows && (amd64 || arm64)
// +build windows
// +build amd64 arm64

package etwtrace

import (
	"runtime"
	"unsafe"

	"github.com/Microsoft/go-winio/pkg/guid"
	"golang.org/x/sys/windows"
)

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	procEventRegister       = modadvapi32.NewProc("EventRegister")
	procEventUnregister     = modadvapi32.NewProc("EventUnregister")
	procEventSetInformation = modadvapi32.NewProc("EventSetInformation")
	procEventWriteTransfer  = modadvapi32.NewProc("EventWriteTransfer")
)

// EVENT_INFO_CLASS
const eventProviderSetTraits = 2

// eventDataDescriptor mirrors EVENT_DATA_DESCRIPTOR.
type eventDataDescriptor struct {
	ptr       uint64
	size      uint32
	dataType  uint8
	reserved1 uint8
	reserved2 uint16
}

// eventDescriptor mirrors EVENT_DESCRIPTOR.
type eventDescriptor struct {
	id      uint16
	version uint8
	channel uint8
	level   uint8
	opcode  uint8
	task    uint16
	keyword uint64
}

// SystemSink writes to the Windows ETW runtime through advapi32.
type SystemSink struct{}

// NewSystemSink returns the ETW sink of the running system.
func NewSystemSink() (Sink, error) {
	if err := modadvapi32.Load(); err != nil {
		return nil, err
	}
	return &SystemSink{}, nil
}

func status(r1 uintptr) error {
	if r1 != 0 {
		return windows.Errno(r1)
	}
	return nil
}

// RegisterProvider calls EventRegister without an enable callback.
func (s *SystemSink) RegisterProvider(id guid.GUID) (Handle, error) {
	var h Handle

	// ULONG EVNTAPI EventRegister(
	//	LPCGUID         ProviderId,
	//	PENABLECALLBACK EnableCallback,
	//	PVOID           CallbackContext,
	//	PREGHANDLE      RegHandle
	// );
	//
	// Ref: https://learn.microsoft.com/en-us/windows/win32/api/evntprov/nf-evntprov-eventregister
	r1, _, _ := procEventRegister.Call(
		uintptr(unsafe.Pointer(&id)),
		0,
		0,
		uintptr(unsafe.Pointer(&h)))
	if err := status(r1); err != nil {
		return 0, err
	}
	return h, nil
}

func (s *SystemSink) SetProviderTraits(h Handle, traits []byte) error {
	if len(traits) == 0 {
		return windows.ERROR_INVALID_PARAMETER
	}
	r1, _, _ := procEventSetInformation.Call(
		uintptr(h),
		eventProviderSetTraits,
		uintptr(unsafe.Pointer(&traits[0])),
		uintptr(len(traits)))
	runtime.KeepAlive(traits)
	return status(r1)
}

// WriteEvent calls EventWriteTransfer with no activity ids.
//
// Passing a pointer to Go-managed memory inside another block of memory is
// invisible to the GC, so every data buffer is kept alive until the call
// returns.
func (s *SystemSink) WriteEvent(h Handle, desc *EventDescriptor, data []Descriptor) error {
	ed := eventDescriptor{
		id:      desc.ID,
		version: desc.Version,
		channel: desc.Channel,
		level:   desc.Level,
		opcode:  desc.OpCode,
		task:    desc.Task,
		keyword: desc.Keyword,
	}

	dds := make([]eventDataDescriptor, 0, len(data))
	for _, d := range data {
		if len(d.Data) == 0 {
			continue
		}
		dds = append(dds, eventDataDescriptor{
			ptr:      uint64(uintptr(unsafe.Pointer(&d.Data[0]))),
			size:     uint32(len(d.Data)),
			dataType: uint8(d.Kind),
		})
	}

	var pdds uintptr
	if len(dds) > 0 {
		pdds = uintptr(unsafe.Pointer(&dds[0]))
	}

	r1, _, _ := procEventWriteTransfer.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&ed)),
		0,
		0,
		uintptr(len(dds)),
		pdds)
	runtime.KeepAlive(data)
	runtime.KeepAlive(dds)

	return status(r1)
}

func (s *SystemSink) UnregisterProvider(h Handle) error {
	r1, _, _ := procEventUnregister.Call(uintptr(h))
	return status(r1)
}
