// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is a column's wire type as declared in the schema.
type Kind uint16

const (
	KindString  Kind = 0x00
	KindBool    Kind = 0x01
	KindInt8    Kind = 0x02
	KindUInt8   Kind = 0x03
	KindInt16   Kind = 0x04
	KindUInt16  Kind = 0x05
	KindInt32   Kind = 0x06
	KindUInt32  Kind = 0x07
	KindFloat32 Kind = 0x09
	KindInt64   Kind = 0x0A
	KindUInt64  Kind = 0x0B

	// packed booleans share one byte; the kind encodes which bit
	KindPackedBool0 Kind = 0x19
	KindPackedBool7 Kind = 0x20
)

func (k Kind) valid() bool {
	switch {
	case k <= KindUInt64 && k != 0x08:
		return true
	case k >= KindPackedBool0 && k <= KindPackedBool7:
		return true
	default:
		return false
	}
}

// IsBool reports whether the kind decodes to a boolean, packed or not.
func (k Kind) IsBool() bool {
	return k == KindBool || (k >= KindPackedBool0 && k <= KindPackedBool7)
}

// TypeTag returns a short name for the decoded type, used for CSV
// headers and diagnostics.  All packed boolean kinds collapse to
// "bool".
func (k Kind) TypeTag() string {
	switch {
	case k == KindString:
		return "str"
	case k.IsBool():
		return "bool"
	case k == KindInt8:
		return "i8"
	case k == KindUInt8:
		return "u8"
	case k == KindInt16:
		return "i16"
	case k == KindUInt16:
		return "u16"
	case k == KindInt32:
		return "i32"
	case k == KindUInt32:
		return "u32"
	case k == KindInt64:
		return "i64"
	case k == KindUInt64:
		return "u64"
	case k == KindFloat32:
		return "f32"
	default:
		return fmt.Sprintf("unknown(%#x)", uint16(k))
	}
}

// Value is one decoded cell: a tagged union over the wire types.
type Value struct {
	kind Kind
	num  uint64
	str  string
}

func boolValue(kind Kind, v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: kind, num: n}
}

// Kind returns the column kind the value was decoded from.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; false for non-boolean kinds.
func (v Value) Bool() bool { return v.kind.IsBool() && v.num != 0 }

// Int returns the payload of a signed integer value, sign-extended.
func (v Value) Int() int64 { return int64(v.num) }

// Uint returns the payload of an unsigned integer value.
func (v Value) Uint() uint64 { return v.num }

// Float returns the payload of a float value.
func (v Value) Float() float32 {
	return math.Float32frombits(uint32(v.num))
}

// Text returns the payload of a string value, empty otherwise.
func (v Value) Text() string { return v.str }

// String formats the payload for humans (and CSV cells).
func (v Value) String() string {
	switch {
	case v.kind == KindString:
		return v.str
	case v.kind.IsBool():
		return strconv.FormatBool(v.Bool())
	case v.kind == KindFloat32:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case v.kind == KindInt8 || v.kind == KindInt16 || v.kind == KindInt32 || v.kind == KindInt64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return strconv.FormatUint(v.num, 10)
	}
}

// Row is one decoded record.  Tables without sub-rows always yield
// SubID 0; sub-row tables yield several Rows sharing an ID.
type Row struct {
	ID     uint32
	SubID  uint16
	Values []Value
}
