// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dervus/xivtool/internal/sqtest"
)

func TestParseHeader(t *testing.T) {
	raw := sqtest.BuildExh(sqtest.SheetSpec{
		RowSize:  16,
		RowCount: 10,
		Cols: []sqtest.Col{
			{Type: sqtest.TypeString, Offset: 0},
			{Type: sqtest.TypeUInt16, Offset: 4},
			{Type: sqtest.TypeBool, Offset: 6},
			{Type: sqtest.TypeFloat32, Offset: 8},
		},
		Pages:   []sqtest.Page{{StartID: 0, RowCount: 5}, {StartID: 5, RowCount: 5}},
		Locales: []uint16{0, 2}, // none, english
	})

	h, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(16), h.RowSize)
	assert.Equal(t, VariantRows, h.Variant)
	assert.Equal(t, uint32(10), h.RowCount)
	require.Len(t, h.Columns, 4)
	assert.Equal(t, Column{Kind: KindString, Offset: 0}, h.Columns[0])
	assert.Equal(t, Column{Kind: KindFloat32, Offset: 8}, h.Columns[3])
	assert.Equal(t, []Page{{StartID: 0, RowCount: 5}, {StartID: 5, RowCount: 5}}, h.Pages)
	assert.Equal(t, []Locale{LocaleNone, LocaleEnglish}, h.Locales)
	assert.True(t, h.HasLocale(LocaleEnglish))
	assert.False(t, h.HasLocale(LocaleGerman))
}

func TestParseHeaderSubRows(t *testing.T) {
	raw := sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 4,
		SubRows: true,
		Cols:    []sqtest.Col{{Type: sqtest.TypeUInt32, Offset: 0}},
		Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
	})
	h, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, VariantSubRows, h.Variant)
}

// Bytes 14-16 of the fixed header carry no meaning; the variant lives at
// byte 17 and the row count at 20. A parser that misreads the padding would
// fail on real files, which never zero those bytes consistently.
func TestParseHeaderIgnoresPadding(t *testing.T) {
	raw := sqtest.BuildExh(sqtest.SheetSpec{
		RowSize:  8,
		RowCount: 42,
		Cols:     []sqtest.Col{{Type: sqtest.TypeUInt32, Offset: 0}},
		Pages:    []sqtest.Page{{StartID: 0, RowCount: 42}},
	})
	raw[14], raw[15], raw[16] = 0xde, 0xad, 0xbe

	h, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, VariantRows, h.Variant)
	assert.Equal(t, uint32(42), h.RowCount)
}

func TestParseHeaderMalformed(t *testing.T) {
	valid := sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 8,
		Cols:    []sqtest.Col{{Type: sqtest.TypeUInt32, Offset: 0}},
		Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
	})

	t.Run("bad magic", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		raw[0] = 'Z'
		_, err := ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ParseHeader(valid[:20])
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("bad variant", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		raw[17] = 9
		_, err := ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("unknown column type", func(t *testing.T) {
		raw := sqtest.BuildExh(sqtest.SheetSpec{
			RowSize: 8,
			Cols:    []sqtest.Col{{Type: 0x08, Offset: 0}},
			Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
		})
		_, err := ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("column outside row", func(t *testing.T) {
		raw := sqtest.BuildExh(sqtest.SheetSpec{
			RowSize: 8,
			Cols:    []sqtest.Col{{Type: sqtest.TypeUInt32, Offset: 8}},
			Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
		})
		_, err := ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("declared counts beyond file", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		raw[8], raw[9] = 0xff, 0xff // column count
		_, err := ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMalformedSchema)
	})
}
