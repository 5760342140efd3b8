// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedRecord indicates a record (EXD) file whose offset table
// or row bodies contradict the file structure.
var ErrMalformedRecord = errors.New("exd: malformed record")

var exdMagic = []byte("EXDF")

const (
	exdHeaderSize = 32
	rowHeaderSize = 6
)

type rowRef struct {
	id  uint32
	off uint32
}

// Reader streams the rows of one record file against a parsed schema.
// It is restartable: Reset rewinds to the first row, and independent
// Readers over the same bytes yield the same sequence.
//
// Iteration follows the scanner idiom:
//
//	r, err := exd.NewReader(h, data)
//	...
//	for r.Next() {
//		row, err := r.Row()
//		...
//	}
//
// A structurally bad offset table fails NewReader; a single bad row
// surfaces from Row without terminating the sequence.
type Reader struct {
	h    *Header
	data []byte
	rows []rowRef

	i        int
	sub      int
	subCount int
}

// NewReader parses the record-file header and row-offset table,
// returning a Reader positioned before the first row.
func NewReader(h *Header, data []byte) (*Reader, error) {
	if len(data) < exdHeaderSize || !bytes.Equal(data[:4], exdMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedRecord)
	}
	tableSize := binary.BigEndian.Uint32(data[8:])
	if tableSize%8 != 0 || exdHeaderSize+int(tableSize) > len(data) {
		return nil, fmt.Errorf("%w: offset table of %d bytes does not fit file of %d", ErrMalformedRecord, tableSize, len(data))
	}

	n := int(tableSize) / 8
	rows := make([]rowRef, n)
	for i := 0; i < n; i++ {
		p := data[exdHeaderSize+8*i:]
		rows[i] = rowRef{
			id:  binary.BigEndian.Uint32(p),
			off: binary.BigEndian.Uint32(p[4:]),
		}
		if int(rows[i].off)+rowHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: row %d offset %d beyond file end (%d)", ErrMalformedRecord, rows[i].id, rows[i].off, len(data))
		}
	}

	return &Reader{h: h, data: data, rows: rows}, nil
}

// Len returns the number of entries in the row-offset table.  Sub-row
// tables may yield more Rows than this.
func (r *Reader) Len() int { return len(r.rows) }

// Reset rewinds the reader to the first row.
func (r *Reader) Reset() {
	r.i = 0
	r.sub = 0
	r.subCount = 0
}

// Next advances to the next row (or sub-row) and reports whether one
// is available.
func (r *Reader) Next() bool {
	if r.subCount > 0 && r.sub+1 < r.subCount {
		r.sub++
		return true
	}
	if r.subCount > 0 {
		r.i++
	}
	for r.i < len(r.rows) {
		r.sub = 0
		r.subCount = r.rowSubCount(r.rows[r.i])
		if r.subCount > 0 {
			return true
		}
		// zero declared sub-rows: nothing to yield for this entry
		r.i++
	}
	r.subCount = 0
	return false
}

func (r *Reader) rowSubCount(ref rowRef) int {
	if r.h.Variant != VariantSubRows {
		return 1
	}
	return int(binary.BigEndian.Uint16(r.data[ref.off+4:]))
}

// Row decodes the row the reader is positioned on.  Decode errors are
// per-row: iteration may continue past them.
func (r *Reader) Row() (Row, error) {
	if r.i >= len(r.rows) || r.subCount == 0 {
		return Row{}, fmt.Errorf("%w: Row called before Next", ErrMalformedRecord)
	}
	return r.decode(r.rows[r.i], r.sub)
}

// Collect reads every remaining row, failing on the first bad one.
func (r *Reader) Collect() ([]Row, error) {
	var rows []Row
	for r.Next() {
		row, err := r.Row()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Reader) decode(ref rowRef, sub int) (Row, error) {
	body := int(ref.off) + rowHeaderSize
	subID := uint16(0)
	if r.h.Variant == VariantSubRows {
		// sub-row slots are rowSize+2 bytes: a 16-bit sub-row id
		// followed by the fixed row body
		slot := body + sub*(int(r.h.RowSize)+2)
		if slot+2+int(r.h.RowSize) > len(r.data) {
			return Row{}, fmt.Errorf("%w: row %d sub-row %d beyond file end", ErrMalformedRecord, ref.id, sub)
		}
		subID = binary.BigEndian.Uint16(r.data[slot:])
		body = slot + 2
	} else if body+int(r.h.RowSize) > len(r.data) {
		return Row{}, fmt.Errorf("%w: row %d body beyond file end", ErrMalformedRecord, ref.id)
	}

	row := Row{ID: ref.id, SubID: subID, Values: make([]Value, len(r.h.Columns))}
	for i, col := range r.h.Columns {
		v, err := r.decodeColumn(body, col)
		if err != nil {
			return Row{}, fmt.Errorf("row %d column %d: %w", ref.id, i, err)
		}
		row.Values[i] = v
	}
	return row, nil
}

func (r *Reader) decodeColumn(body int, col Column) (Value, error) {
	at := body + int(col.Offset)
	width := col.Kind.width()
	if at+width > len(r.data) {
		return Value{}, fmt.Errorf("%w: column at %d beyond file end", ErrMalformedRecord, at)
	}
	raw := r.data[at:]

	switch col.Kind {
	case KindString:
		// the string heap follows the fixed row body; the column
		// stores an offset into it, the payload runs to the next NUL
		heap := body + int(r.h.RowSize) + int(binary.BigEndian.Uint32(raw))
		if heap < 0 || heap > len(r.data) {
			return Value{}, fmt.Errorf("%w: string offset outside heap", ErrMalformedRecord)
		}
		end := bytes.IndexByte(r.data[heap:], 0)
		if end < 0 {
			return Value{}, fmt.Errorf("%w: unterminated string", ErrMalformedRecord)
		}
		return Value{kind: KindString, str: string(r.data[heap : heap+end])}, nil
	case KindBool:
		return boolValue(KindBool, raw[0] != 0), nil
	case KindInt8:
		return Value{kind: KindInt8, num: uint64(int64(int8(raw[0])))}, nil
	case KindUInt8:
		return Value{kind: KindUInt8, num: uint64(raw[0])}, nil
	case KindInt16:
		return Value{kind: KindInt16, num: uint64(int64(int16(binary.BigEndian.Uint16(raw))))}, nil
	case KindUInt16:
		return Value{kind: KindUInt16, num: uint64(binary.BigEndian.Uint16(raw))}, nil
	case KindInt32:
		return Value{kind: KindInt32, num: uint64(int64(int32(binary.BigEndian.Uint32(raw))))}, nil
	case KindUInt32:
		return Value{kind: KindUInt32, num: uint64(binary.BigEndian.Uint32(raw))}, nil
	case KindFloat32:
		return Value{kind: KindFloat32, num: uint64(binary.BigEndian.Uint32(raw))}, nil
	case KindInt64:
		return Value{kind: KindInt64, num: binary.BigEndian.Uint64(raw)}, nil
	case KindUInt64:
		return Value{kind: KindUInt64, num: binary.BigEndian.Uint64(raw)}, nil
	default:
		// packed boolean: one bit of a shared byte, selected by the
		// column kind
		bit := uint(col.Kind - KindPackedBool0)
		return boolValue(col.Kind, raw[0]&(1<<bit) != 0), nil
	}
}

// width returns how many bytes of the fixed row body the kind
// occupies.
func (k Kind) width() int {
	switch k {
	case KindString, KindInt32, KindUInt32, KindFloat32:
		return 4
	case KindInt16, KindUInt16:
		return 2
	case KindInt64, KindUInt64:
		return 8
	default:
		return 1
	}
}
