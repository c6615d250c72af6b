package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Microsoft/go-winio/pkg/guid"

	"github.com/gaelmuller/etwtrace"
)

// parseField turns "name:type=value" into a Field.
func parseField(spec string) (etwtrace.Field, error) {
	nameType, value, ok := strings.Cut(spec, "=")
	if !ok {
		return etwtrace.Field{}, fmt.Errorf("field %q: want name:type=value", spec)
	}
	name, typeName, ok := strings.Cut(nameType, ":")
	if !ok || name == "" {
		return etwtrace.Field{}, fmt.Errorf("field %q: want name:type=value", spec)
	}

	typ, err := etwtrace.ParseFieldType(typeName)
	if err != nil {
		return etwtrace.Field{}, fmt.Errorf("field %q: %w", name, err)
	}

	v, err := parseValue(typ, value)
	if err != nil {
		return etwtrace.Field{}, fmt.Errorf("field %q: %w", name, err)
	}

	return etwtrace.Field{Name: name, Type: typ, Value: v}, nil
}

func parseValue(typ etwtrace.FieldType, s string) (interface{}, error) {
	switch typ.Base() {
	case etwtrace.FieldAnsiString:
		return s, nil
	case etwtrace.FieldInt8:
		v, err := strconv.ParseInt(s, 0, 8)
		return int8(v), err
	case etwtrace.FieldUInt8:
		v, err := strconv.ParseUint(s, 0, 8)
		return uint8(v), err
	case etwtrace.FieldInt16:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case etwtrace.FieldUInt16:
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case etwtrace.FieldInt32:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case etwtrace.FieldUInt32:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case etwtrace.FieldInt64:
		return strconv.ParseInt(s, 0, 64)
	case etwtrace.FieldUInt64:
		return strconv.ParseUint(s, 0, 64)
	case etwtrace.FieldFloat:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case etwtrace.FieldDouble:
		return strconv.ParseFloat(s, 64)
	case etwtrace.FieldBool32:
		return strconv.ParseBool(s)
	case etwtrace.FieldGUID:
		return guid.FromString(s)
	default:
		return nil, fmt.Errorf("%s; %w", typ, etwtrace.ErrUnsupportedFieldType)
	}
}
