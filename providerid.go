package etwtrace

import (
	"crypto/sha1" //nolint:gosec // Part of the id derivation algorithm, not used for security.
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// ProviderIDFromName derives a provider ID from its name the way .NET's
// EventSource does, so tools that only know the name (PerfView, WPR,
// tracelog) resolve the same GUID:
// https://blogs.msdn.microsoft.com/dcook/2015/09/08/etw-provider-names-and-guids/
//
// It is a V5 UUID over the upper-cased, big-endian UTF-16 name, without the
// variant bits and read back in little-endian layout.
func ProviderIDFromName(name string) guid.GUID {
	buffer := sha1.New() //nolint:gosec
	namespace := guid.GUID{Data1: 0x482C2DB2, Data2: 0xC390, Data3: 0x47C8, Data4: [8]byte{0x87, 0xF8, 0x1A, 0x15, 0xBF, 0xC1, 0x30, 0xFB}}
	namespaceBytes := namespace.ToArray()
	buffer.Write(namespaceBytes[:])
	_ = binary.Write(buffer, binary.BigEndian, utf16.Encode([]rune(strings.ToUpper(name))))

	sum := buffer.Sum(nil)
	sum[7] = (sum[7] & 0xf) | 0x50

	a := [16]byte{}
	copy(a[:], sum)
	return guid.FromWindowsArray(a)
}
