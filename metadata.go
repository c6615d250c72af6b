package etwtrace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Provider traits and event metadata layouts:
// https://learn.microsoft.com/en-us/windows/win32/etw/provider-traits
//
//	provider: [u16 total length][name\0]
//	event:    [u16 total length][u8 tag][name\0]{[field name\0][u8 type]}*

var errShortMetadata = errors.New("metadata block truncated")

func checkName(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// ProviderMetadata is the decoded form of a provider traits block.
type ProviderMetadata struct {
	Name string
}

// Size returns the encoded length of m.
func (m ProviderMetadata) Size() int {
	return 2 + len(m.Name) + 1
}

// MarshalTo encodes m into buf, which must be exactly Size bytes long.
func (m ProviderMetadata) MarshalTo(buf []byte) error {
	size := m.Size()
	if err := checkName(m.Name); err != nil {
		return err
	}
	if size > math.MaxUint16 {
		return fmt.Errorf("provider %q: %w", m.Name, ErrMetadataTooLarge)
	}
	if len(buf) != size {
		return fmt.Errorf("provider metadata needs %d bytes, got %d", size, len(buf))
	}

	binary.LittleEndian.PutUint16(buf, uint16(size))
	n := copy(buf[2:], m.Name)
	buf[2+n] = 0

	return nil
}

func (m ProviderMetadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, m.Size())
	if err := m.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (m *ProviderMetadata) UnmarshalBinary(data []byte) error {
	r, err := newMetadataReader(data)
	if err != nil {
		return err
	}

	name, err := r.cstring()
	if err != nil {
		return err
	}
	if !r.done() {
		return fmt.Errorf("%d trailing bytes after provider name", r.remaining())
	}

	m.Name = name
	return nil
}

// EventMetadata is the decoded form of an event metadata block. Fields are
// kept in the order their values are written.
type EventMetadata struct {
	Name   string
	Tag    uint8
	Fields []FieldSpec
}

// Size returns the encoded length of m.
func (m EventMetadata) Size() int {
	size := 2 + 1 + len(m.Name) + 1
	for _, f := range m.Fields {
		size += len(f.Name) + 1 + 1
	}
	return size
}

// MarshalTo encodes m into buf, which must be exactly Size bytes long.
func (m EventMetadata) MarshalTo(buf []byte) error {
	if err := checkName(m.Name); err != nil {
		return err
	}
	for _, f := range m.Fields {
		if err := checkName(f.Name); err != nil {
			return err
		}
	}

	size := m.Size()
	if size > math.MaxUint16 {
		return fmt.Errorf("event %q: %w", m.Name, ErrMetadataTooLarge)
	}
	if len(buf) != size {
		return fmt.Errorf("event metadata needs %d bytes, got %d", size, len(buf))
	}

	binary.LittleEndian.PutUint16(buf, uint16(size))
	buf[2] = m.Tag
	off := 3
	off += copy(buf[off:], m.Name)
	buf[off] = 0
	off++

	for _, f := range m.Fields {
		off += copy(buf[off:], f.Name)
		buf[off] = 0
		buf[off+1] = f.Type.metadataByte()
		off += 2
	}

	return nil
}

func (m EventMetadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, m.Size())
	if err := m.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary decodes an event metadata block. Field types come back as
// their base type since format hints are not serialized.
func (m *EventMetadata) UnmarshalBinary(data []byte) error {
	r, err := newMetadataReader(data)
	if err != nil {
		return err
	}

	tag, err := r.u8()
	if err != nil {
		return err
	}
	name, err := r.cstring()
	if err != nil {
		return err
	}

	var fields []FieldSpec
	for !r.done() {
		fieldName, err := r.cstring()
		if err != nil {
			return err
		}
		typ, err := r.u8()
		if err != nil {
			return err
		}
		fields = append(fields, FieldSpec{Name: fieldName, Type: FieldType(typ)})
	}

	m.Name = name
	m.Tag = tag
	m.Fields = fields
	return nil
}

type metadataReader struct {
	buf []byte
	off int
}

// newMetadataReader checks the length prefix against data and positions the
// reader right after it.
func newMetadataReader(data []byte) (*metadataReader, error) {
	if len(data) < 2 {
		return nil, errShortMetadata
	}
	if total := int(binary.LittleEndian.Uint16(data)); total != len(data) {
		return nil, fmt.Errorf("length prefix %d does not match block size %d", total, len(data))
	}
	return &metadataReader{buf: data, off: 2}, nil
}

func (r *metadataReader) done() bool     { return r.off >= len(r.buf) }
func (r *metadataReader) remaining() int { return len(r.buf) - r.off }

func (r *metadataReader) u8() (byte, error) {
	if r.done() {
		return 0, errShortMetadata
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *metadataReader) cstring() (string, error) {
	i := bytes.IndexByte(r.buf[r.off:], 0)
	if i < 0 {
		return "", errShortMetadata
	}
	s := string(r.buf[r.off : r.off+i])
	r.off += i + 1
	return s, nil
}

// buildProviderMetadata allocates and fills the provider traits block. On
// failure nothing stays allocated.
func buildProviderMetadata(alloc Allocator, name string) (Descriptor, error) {
	m := ProviderMetadata{Name: name}
	if m.Size() > math.MaxUint16 {
		return Descriptor{}, fmt.Errorf("provider %q: %w", name, ErrMetadataTooLarge)
	}

	buf, err := alloc.Allocate(m.Size(), TagProviderMetadata)
	if err != nil {
		return Descriptor{}, fmt.Errorf("provider %q metadata: %w", name, err)
	}
	if err := m.MarshalTo(buf); err != nil {
		alloc.Free(buf, TagProviderMetadata)
		return Descriptor{}, err
	}

	return Descriptor{Kind: ProviderMetadataDescriptor, Data: buf}, nil
}

// buildEventMetadata allocates and fills the metadata block of an event.
// Field order is kept as given.
func buildEventMetadata(alloc Allocator, name string, specs []FieldSpec) (Descriptor, error) {
	m := EventMetadata{Name: name, Fields: specs}
	if m.Size() > math.MaxUint16 {
		return Descriptor{}, fmt.Errorf("event %q: %w", name, ErrMetadataTooLarge)
	}

	buf, err := alloc.Allocate(m.Size(), TagEventMetadata)
	if err != nil {
		return Descriptor{}, fmt.Errorf("event %q metadata: %w", name, err)
	}
	if err := m.MarshalTo(buf); err != nil {
		alloc.Free(buf, TagEventMetadata)
		return Descriptor{}, err
	}

	return Descriptor{Kind: EventMetadataDescriptor, Data: buf}, nil
}
