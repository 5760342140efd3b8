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

// ErrMalformedSchema indicates a structurally invalid schema (EXH)
// file.
var ErrMalformedSchema = errors.New("exd: malformed schema")

var exhMagic = []byte("EXHF")

// Variant distinguishes plain-row tables from sub-row tables.
type Variant uint8

const (
	VariantRows    Variant = 1
	VariantSubRows Variant = 2
)

// Column is one schema column: a wire type at a byte offset inside
// the fixed part of a row.  Column order is significant; it defines
// the field order of decoded rows.
type Column struct {
	Kind   Kind
	Offset uint16
}

// Page is one row-id pagination range; each page has its own record
// file.
type Page struct {
	StartID  uint32
	RowCount uint32
}

// Header is a parsed schema: everything needed to decode the sheet's
// record files.  Immutable after parse.
type Header struct {
	Version  uint16
	RowSize  uint16
	Variant  Variant
	RowCount uint32
	Columns  []Column
	Pages    []Page
	Locales  []Locale
}

// ParseHeader parses a schema (EXH) file.  All multi-byte fields are
// big-endian except the locale tags, which the format stores
// little-endian.
func ParseHeader(data []byte) (*Header, error) {
	const fixedLen = 32
	if len(data) < fixedLen || !bytes.Equal(data[:4], exhMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedSchema)
	}
	h := &Header{
		Version:  binary.BigEndian.Uint16(data[4:]),
		RowSize:  binary.BigEndian.Uint16(data[6:]),
		Variant:  Variant(data[17]),
		RowCount: binary.BigEndian.Uint32(data[20:]),
	}
	columnCount := int(binary.BigEndian.Uint16(data[8:]))
	pageCount := int(binary.BigEndian.Uint16(data[10:]))
	localeCount := int(binary.BigEndian.Uint16(data[12:]))

	if h.Variant != VariantRows && h.Variant != VariantSubRows {
		return nil, fmt.Errorf("%w: unknown variant %d", ErrMalformedSchema, h.Variant)
	}
	need := fixedLen + 4*columnCount + 8*pageCount + 2*localeCount
	if len(data) < need {
		return nil, fmt.Errorf("%w: %d bytes, need %d for declared counts", ErrMalformedSchema, len(data), need)
	}

	p := data[fixedLen:]
	h.Columns = make([]Column, columnCount)
	for i := range h.Columns {
		kind := Kind(binary.BigEndian.Uint16(p[4*i:]))
		if !kind.valid() {
			return nil, fmt.Errorf("%w: column %d has unknown type %#x", ErrMalformedSchema, i, uint16(kind))
		}
		off := binary.BigEndian.Uint16(p[4*i+2:])
		if int(off) >= int(h.RowSize) {
			return nil, fmt.Errorf("%w: column %d offset %d outside row of %d bytes", ErrMalformedSchema, i, off, h.RowSize)
		}
		h.Columns[i] = Column{Kind: kind, Offset: off}
	}

	p = p[4*columnCount:]
	h.Pages = make([]Page, pageCount)
	for i := range h.Pages {
		h.Pages[i] = Page{
			StartID:  binary.BigEndian.Uint32(p[8*i:]),
			RowCount: binary.BigEndian.Uint32(p[8*i+4:]),
		}
	}

	p = p[8*pageCount:]
	h.Locales = make([]Locale, localeCount)
	for i := range h.Locales {
		h.Locales[i] = Locale(binary.LittleEndian.Uint16(p[2*i:]))
	}

	return h, nil
}

// HasLocale reports whether the sheet declares the given locale
// variant.
func (h *Header) HasLocale(l Locale) bool {
	for _, have := range h.Locales {
		if have == l {
			return true
		}
	}
	return false
}
