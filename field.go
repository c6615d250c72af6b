package etwtrace

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// FieldSpec is the part of a field that goes into event metadata.
type FieldSpec struct {
	Name string
	Type FieldType
}

// Field is a single typed value of an event. The Go type of Value is fixed
// by the base of Type:
//
//	FieldInt8 int8, FieldUInt8 uint8, FieldInt16 int16, FieldUInt16 uint16,
//	FieldInt32 int32, FieldUInt32 uint32, FieldInt64 int64, FieldUInt64 uint64,
//	FieldFloat float32, FieldDouble float64, FieldBool32 bool,
//	FieldGUID guid.GUID, FieldAnsiString string.
//
// Use the constructors below rather than building Fields by hand.
type Field struct {
	Name  string
	Type  FieldType
	Value interface{}
}

// Spec returns the metadata half of f.
func (f Field) Spec() FieldSpec {
	return FieldSpec{Name: f.Name, Type: f.Type}
}

func Int8Field(name string, v int8) Field { return Field{name, FieldInt8, v} }
func UInt8Field(name string, v uint8) Field { return Field{name, FieldUInt8, v} }
func Int16Field(name string, v int16) Field { return Field{name, FieldInt16, v} }
func UInt16Field(name string, v uint16) Field { return Field{name, FieldUInt16, v} }
func Int32Field(name string, v int32) Field { return Field{name, FieldInt32, v} }
func UInt32Field(name string, v uint32) Field { return Field{name, FieldUInt32, v} }
func Int64Field(name string, v int64) Field { return Field{name, FieldInt64, v} }
func UInt64Field(name string, v uint64) Field { return Field{name, FieldUInt64, v} }
func FloatField(name string, v float32) Field { return Field{name, FieldFloat, v} }
func DoubleField(name string, v float64) Field { return Field{name, FieldDouble, v} }

// Bool32Field adds a bool encoded on four bytes.
func Bool32Field(name string, v bool) Field { return Field{name, FieldBool32, v} }

// GUIDField adds a GUID in its Windows in-memory layout.
func GUIDField(name string, v guid.GUID) Field { return Field{name, FieldGUID, v} }

// AnsiStringField adds a NUL-terminated 8-bit string. The string must not
// contain NUL bytes.
func AnsiStringField(name string, v string) Field { return Field{name, FieldAnsiString, v} }

// PidField adds a 32-bit integer that consumers display as a process id.
func PidField(name string, pid int32) Field { return Field{name, FieldPid, pid} }

func specsOf(fields []Field) []FieldSpec {
	specs := make([]FieldSpec, len(fields))
	for i, f := range fields {
		specs[i] = f.Spec()
	}
	return specs
}

// Encode copies the value of f into a buffer obtained from alloc and returns
// a user-data descriptor over it. The buffer is tagged TagFieldValue; the
// caller owns it.
func Encode(alloc Allocator, f Field) (Descriptor, error) {
	size, err := SizeOf(f.Type, f.Value)
	if err != nil {
		return Descriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}

	buf, err := alloc.Allocate(size, TagFieldValue)
	if err != nil {
		return Descriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}

	if err := putValue(buf, f); err != nil {
		alloc.Free(buf, TagFieldValue)
		return Descriptor{}, fmt.Errorf("field %q: %w", f.Name, err)
	}

	return Descriptor{Kind: UserDataDescriptor, Data: buf}, nil
}

// putValue writes the little-endian bytes of f.Value into buf, which is
// exactly SizeOf bytes long.
func putValue(buf []byte, f Field) error {
	mismatch := func() error {
		return fmt.Errorf("%s cannot hold %T; %w", f.Type, f.Value, ErrFieldValueMismatch)
	}

	switch f.Type.Base() {
	case FieldInt8:
		v, ok := f.Value.(int8)
		if !ok {
			return mismatch()
		}
		buf[0] = uint8(v)
	case FieldUInt8:
		v, ok := f.Value.(uint8)
		if !ok {
			return mismatch()
		}
		buf[0] = v
	case FieldInt16:
		v, ok := f.Value.(int16)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case FieldUInt16:
		v, ok := f.Value.(uint16)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint16(buf, v)
	case FieldInt32:
		v, ok := f.Value.(int32)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case FieldUInt32:
		v, ok := f.Value.(uint32)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint32(buf, v)
	case FieldInt64:
		v, ok := f.Value.(int64)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint64(buf, uint64(v))
	case FieldUInt64:
		v, ok := f.Value.(uint64)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint64(buf, v)
	case FieldFloat:
		v, ok := f.Value.(float32)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
	case FieldDouble:
		v, ok := f.Value.(float64)
		if !ok {
			return mismatch()
		}
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	case FieldBool32:
		v, ok := f.Value.(bool)
		if !ok {
			return mismatch()
		}
		if v {
			binary.LittleEndian.PutUint32(buf, 1)
		}
	case FieldGUID:
		v, ok := f.Value.(guid.GUID)
		if !ok {
			return mismatch()
		}
		a := v.ToWindowsArray()
		copy(buf, a[:])
	case FieldAnsiString:
		v, ok := f.Value.(string)
		if !ok {
			return mismatch()
		}
		if err := checkName(v); err != nil {
			return err
		}
		copy(buf, v)
		buf[len(v)] = 0
	default:
		return fmt.Errorf("%s; %w", f.Type, ErrUnsupportedFieldType)
	}

	return nil
}
