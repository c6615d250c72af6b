package etwtrace

import (
	"fmt"
	"strings"
)

// FieldType identifies the logical type of an event field. The low byte
// carries the TraceLogging in-type, the upper byte an optional display
// format hint.
type FieldType uint16

//nolint:golint,stylecheck // Order and values follow the TraceLogging in-type table.
const (
	FieldNull FieldType = iota
	FieldUnicodeString
	FieldAnsiString
	FieldInt8
	FieldUInt8
	FieldInt16
	FieldUInt16
	FieldInt32
	FieldUInt32
	FieldInt64
	FieldUInt64
	FieldFloat
	FieldDouble
	FieldBool32
	FieldBinary
	FieldGUID
	FieldPointer
	FieldFiletime
	FieldSystemTime
	FieldSID
	FieldHexInt32
	FieldHexInt64

	// FieldPid is a 32-bit integer displayed as a process id.
	FieldPid = FieldInt32 | formatPid<<8
)

const formatPid FieldType = 0x05

// Base returns the in-type carried by the low byte.
func (t FieldType) Base() FieldType {
	return t & 0x00ff
}

// Format returns the display format hint carried by the upper byte.
func (t FieldType) Format() uint8 {
	return uint8(t >> 8)
}

// metadataByte is the single byte written into event metadata. The format
// hint does not survive serialization.
func (t FieldType) metadataByte() uint8 {
	return uint8(t)
}

var fieldTypeNames = map[FieldType]string{
	FieldNull:          "null",
	FieldUnicodeString: "unicodestring",
	FieldAnsiString:    "ansistring",
	FieldInt8:          "int8",
	FieldUInt8:         "uint8",
	FieldInt16:         "int16",
	FieldUInt16:        "uint16",
	FieldInt32:         "int32",
	FieldUInt32:        "uint32",
	FieldInt64:         "int64",
	FieldUInt64:        "uint64",
	FieldFloat:         "float",
	FieldDouble:        "double",
	FieldBool32:        "bool32",
	FieldBinary:        "binary",
	FieldGUID:          "guid",
	FieldPointer:       "pointer",
	FieldFiletime:      "filetime",
	FieldSystemTime:    "systemtime",
	FieldSID:           "sid",
	FieldHexInt32:      "hexint32",
	FieldHexInt64:      "hexint64",
	FieldPid:           "pid",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(0x%04x)", uint16(t))
}

// ParseFieldType returns the FieldType named by s, as printed by String.
// Matching ignores case.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range fieldTypeNames {
		if name == s {
			return t, nil
		}
	}
	return FieldNull, fmt.Errorf("unknown field type %q", s)
}

// fixedSizes maps the supported fixed-width in-types to their wire size.
var fixedSizes = map[FieldType]int{
	FieldInt8:   1,
	FieldUInt8:  1,
	FieldInt16:  2,
	FieldUInt16: 2,
	FieldInt32:  4,
	FieldUInt32: 4,
	FieldInt64:  8,
	FieldUInt64: 8,
	FieldFloat:  4,
	FieldDouble: 8,
	FieldBool32: 4,
	FieldGUID:   16,
}

// SizeOf returns the number of bytes a value of type t occupies in an event
// data blob. Only the base type is considered. For FieldAnsiString the value
// must be a string and the size includes the terminating NUL.
//
// Unicode strings, binary blobs, pointers, file and system times, SIDs and
// the hex-formatted integers have no defined encoding yet and fail with
// ErrUnsupportedFieldType.
func SizeOf(t FieldType, value interface{}) (int, error) {
	base := t.Base()
	if size, ok := fixedSizes[base]; ok {
		return size, nil
	}

	if base == FieldAnsiString {
		s, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("%s wants a string, got %T; %w", t, value, ErrFieldValueMismatch)
		}
		return len(s) + 1, nil
	}

	return 0, fmt.Errorf("%s; %w", t, ErrUnsupportedFieldType)
}
