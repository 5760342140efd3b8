// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package sqtest

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Col is one EXH column definition.
type Col struct {
	Type   uint16
	Offset uint16
}

// Page is one EXH pagination range.
type Page struct {
	StartID  uint32
	RowCount uint32
}

// SheetSpec describes a synthetic sheet's schema.
type SheetSpec struct {
	RowSize  uint16
	SubRows  bool
	RowCount uint32
	Cols     []Col
	Pages    []Page
	Locales  []uint16
}

// BuildExh serializes spec as an EXH schema file (big-endian except
// for the locale tags, which the format stores little-endian).
func BuildExh(spec SheetSpec) []byte {
	buf := make([]byte, 0, 32+4*len(spec.Cols)+8*len(spec.Pages)+2*len(spec.Locales))
	buf = append(buf, "EXHF"...)
	buf = be16(buf, 3) // version
	buf = be16(buf, spec.RowSize)
	buf = be16(buf, uint16(len(spec.Cols)))
	buf = be16(buf, uint16(len(spec.Pages)))
	buf = be16(buf, uint16(len(spec.Locales)))
	buf = be16(buf, 0)       // unknown
	buf = append(buf, 0)     // pad
	variant := byte(1)       // rows
	if spec.SubRows {
		variant = 2
	}
	buf = append(buf, variant)
	buf = be16(buf, 0) // unknown
	buf = be32(buf, spec.RowCount)
	buf = be32(buf, 0)
	buf = be32(buf, 0)
	for _, c := range spec.Cols {
		buf = be16(buf, c.Type)
		buf = be16(buf, c.Offset)
	}
	for _, p := range spec.Pages {
		buf = be32(buf, p.StartID)
		buf = be32(buf, p.RowCount)
	}
	for _, l := range spec.Locales {
		buf = append(buf, byte(l), byte(l>>8)) // little-endian
	}
	return buf
}

// ExdRow is one record in a synthetic EXD file.  Subs holds the
// sub-row bodies; a plain row has exactly one and no sub-row ids are
// written for it.
type ExdRow struct {
	ID   uint32
	Subs [][]byte
}

// BuildExd serializes rows as an EXD record file.  rowSize is the
// schema's fixed row size; it is only used for sub-row tables, where
// each sub-row slot is rowSize+2 bytes.
func BuildExd(rows []ExdRow, rowSize uint16, subRows bool) []byte {
	offTableSize := 8 * len(rows)
	headerEnd := 32 + offTableSize

	var bodies []byte
	offsets := make([]uint32, len(rows))
	for i, r := range rows {
		offsets[i] = uint32(headerEnd + len(bodies))
		var data []byte
		if subRows {
			for j, sub := range r.Subs {
				if len(sub) != int(rowSize) {
					panic(fmt.Sprintf("sqtest: sub-row body must be exactly rowSize (%d) bytes, got %d", rowSize, len(sub)))
				}
				data = be16(data, uint16(j))
				data = append(data, sub...)
			}
		} else {
			if len(r.Subs) != 1 {
				panic("sqtest: plain rows take exactly one body")
			}
			data = r.Subs[0]
		}
		var rh []byte
		rh = be32(rh, uint32(len(data)))
		count := uint16(1)
		if subRows {
			count = uint16(len(r.Subs))
		}
		rh = be16(rh, count)
		bodies = append(bodies, rh...)
		bodies = append(bodies, data...)
	}

	buf := make([]byte, 0, headerEnd+len(bodies))
	buf = append(buf, "EXDF"...)
	buf = be16(buf, 2) // version
	buf = be16(buf, 0)
	buf = be32(buf, uint32(offTableSize))
	buf = be32(buf, uint32(len(bodies)))
	buf = be32(buf, 0)
	buf = be32(buf, 0)
	buf = be32(buf, 0)
	buf = be32(buf, 0)
	for i, r := range rows {
		buf = be32(buf, r.ID)
		buf = be32(buf, offsets[i])
	}
	buf = append(buf, bodies...)
	return buf
}

// RowBody lays out vals at the column offsets of cols, appending a
// string heap after the first rowSize bytes.  val kinds must match the
// column types: bool, int8..., uint8..., float32, string.
func RowBody(cols []Col, rowSize uint16, vals []any) []byte {
	if len(cols) != len(vals) {
		panic("sqtest: one value per column")
	}
	fixed := make([]byte, rowSize)
	var heap []byte
	for i, c := range cols {
		out := fixed[c.Offset:]
		switch c.Type {
		case TypeString:
			binary.BigEndian.PutUint32(out, uint32(len(heap)))
			heap = append(heap, vals[i].(string)...)
			heap = append(heap, 0)
		case TypeBool:
			if vals[i].(bool) {
				out[0] = 1
			}
		case TypeInt8:
			out[0] = byte(vals[i].(int8))
		case TypeUInt8:
			out[0] = vals[i].(uint8)
		case TypeInt16:
			binary.BigEndian.PutUint16(out, uint16(vals[i].(int16)))
		case TypeUInt16:
			binary.BigEndian.PutUint16(out, vals[i].(uint16))
		case TypeInt32:
			binary.BigEndian.PutUint32(out, uint32(vals[i].(int32)))
		case TypeUInt32:
			binary.BigEndian.PutUint32(out, vals[i].(uint32))
		case TypeFloat32:
			binary.BigEndian.PutUint32(out, math.Float32bits(vals[i].(float32)))
		case TypeInt64:
			binary.BigEndian.PutUint64(out, uint64(vals[i].(int64)))
		case TypeUInt64:
			binary.BigEndian.PutUint64(out, vals[i].(uint64))
		default:
			if c.Type >= TypePackedBool0 && c.Type <= TypePackedBool0+7 {
				if vals[i].(bool) {
					out[0] |= 1 << (c.Type - TypePackedBool0)
				}
				break
			}
			panic(fmt.Sprintf("sqtest: unhandled column type %#x", c.Type))
		}
	}
	return append(fixed, heap...)
}

func be16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func be32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
