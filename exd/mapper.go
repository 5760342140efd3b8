// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrMapping indicates a row cannot be projected onto the requested
// struct type: wrong arity or an incompatible field type.
var ErrMapping = errors.New("exd: mapping error")

// UnmarshalRow projects a row onto out, which must be a pointer to a
// struct with exactly one exported field per column, declared in
// column order.  There is no name-based matching; position is the
// whole contract.  Integer fields may be wider than the wire type but
// never narrower, and conversions across kinds (string into int,
// float into bool) fail rather than coerce.
func UnmarshalRow(row Row, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: destination must be a non-nil struct pointer, got %T", ErrMapping, out)
	}
	s := v.Elem()
	t := s.Type()
	if t.NumField() != len(row.Values) {
		return fmt.Errorf("%w: row has %d columns, %s has %d fields", ErrMapping, len(row.Values), t, t.NumField())
	}
	for i := 0; i < t.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			return fmt.Errorf("%w: field %s.%s is unexported", ErrMapping, t, t.Field(i).Name)
		}
		if err := setField(f, row.Values[i]); err != nil {
			return fmt.Errorf("field %s.%s: %w", t, t.Field(i).Name, err)
		}
	}
	return nil
}

func setField(f reflect.Value, v Value) error {
	kind := v.Kind()
	switch {
	case kind == KindString:
		if f.Kind() != reflect.String {
			return fmt.Errorf("%w: cannot store str into %s", ErrMapping, f.Type())
		}
		f.SetString(v.Text())
	case kind.IsBool():
		if f.Kind() != reflect.Bool {
			return fmt.Errorf("%w: cannot store bool into %s", ErrMapping, f.Type())
		}
		f.SetBool(v.Bool())
	case kind == KindFloat32:
		if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
			return fmt.Errorf("%w: cannot store f32 into %s", ErrMapping, f.Type())
		}
		f.SetFloat(float64(v.Float()))
	case kind == KindInt8 || kind == KindInt16 || kind == KindInt32 || kind == KindInt64:
		if !f.CanInt() || f.Type().Bits() < kind.bits() {
			return fmt.Errorf("%w: cannot store %s into %s", ErrMapping, kind.TypeTag(), f.Type())
		}
		f.SetInt(v.Int())
	default: // unsigned integers
		switch {
		case f.CanUint() && f.Type().Bits() >= kind.bits():
			f.SetUint(v.Uint())
		case f.CanInt() && f.Type().Bits() > kind.bits():
			// an unsigned wire value fits any strictly wider signed
			// field
			f.SetInt(int64(v.Uint()))
		default:
			return fmt.Errorf("%w: cannot store %s into %s", ErrMapping, kind.TypeTag(), f.Type())
		}
	}
	return nil
}

// bits returns the wire type's integer width for conversion checks.
func (k Kind) bits() int {
	switch k {
	case KindInt8, KindUInt8:
		return 8
	case KindInt16, KindUInt16:
		return 16
	case KindInt32, KindUInt32:
		return 32
	default:
		return 64
	}
}

// Unmarshal projects every row onto a slice of T via UnmarshalRow.
func Unmarshal[T any](rows []Row) ([]T, error) {
	out := make([]T, len(rows))
	for i := range rows {
		if err := UnmarshalRow(rows[i], &out[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", rows[i].ID, err)
		}
	}
	return out, nil
}

// CollectAs reads a whole sheet and projects it onto a slice of T.
func CollectAs[T any](s *Sheet) ([]T, error) {
	rows, err := s.Collect()
	if err != nil {
		return nil, err
	}
	return Unmarshal[T](rows)
}
