package etwtrace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeOfFixedTypes(t *testing.T) {
	sizes := map[FieldType]int{
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
		FieldPid:    4,
	}

	for typ, want := range sizes {
		got, err := SizeOf(typ, nil)
		require.NoError(t, err, "SizeOf(%s)", typ)
		assert.Equal(t, want, got, "SizeOf(%s)", typ)
	}
}

func TestSizeOfAnsiString(t *testing.T) {
	got, err := SizeOf(FieldAnsiString, "ok")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = SizeOf(FieldAnsiString, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got, "empty string still carries its terminator")

	_, err = SizeOf(FieldAnsiString, 42)
	assert.True(t, errors.Is(err, ErrFieldValueMismatch), "got %v", err)
}

// Types without a defined encoding must fail instead of producing an empty
// field.
func TestSizeOfUnsupportedTypes(t *testing.T) {
	unsupported := []FieldType{
		FieldNull,
		FieldUnicodeString,
		FieldBinary,
		FieldPointer,
		FieldFiletime,
		FieldSystemTime,
		FieldSID,
		FieldHexInt32,
		FieldHexInt64,
	}

	for _, typ := range unsupported {
		size, err := SizeOf(typ, nil)
		assert.Zero(t, size, "SizeOf(%s)", typ)
		assert.True(t, errors.Is(err, ErrUnsupportedFieldType), "SizeOf(%s) returned %v", typ, err)
	}
}

func TestFieldTypeFormat(t *testing.T) {
	assert.Equal(t, FieldInt32, FieldPid.Base())
	assert.Equal(t, uint8(5), FieldPid.Format())
	assert.Equal(t, uint8(FieldInt32), FieldPid.metadataByte(), "format hint does not survive serialization")
	assert.Equal(t, uint16(0x0507), uint16(FieldPid))
}

func TestParseFieldType(t *testing.T) {
	typ, err := ParseFieldType("UInt32")
	require.NoError(t, err)
	assert.Equal(t, FieldUInt32, typ)

	typ, err = ParseFieldType(" pid ")
	require.NoError(t, err)
	assert.Equal(t, FieldPid, typ)

	_, err = ParseFieldType("uint128")
	assert.Error(t, err)

	assert.Equal(t, "FieldType(0x0063)", FieldType(0x63).String())
}
