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

// raceCols is a small schema shared by the record tests: a name
// string, a numeric id and a flag.
var raceCols = []sqtest.Col{
	{Type: sqtest.TypeString, Offset: 0},
	{Type: sqtest.TypeUInt16, Offset: 4},
	{Type: sqtest.TypeBool, Offset: 6},
}

func raceHeader(t *testing.T) *Header {
	t.Helper()
	h, err := ParseHeader(sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 8,
		Cols:    raceCols,
		Pages:   []sqtest.Page{{StartID: 1, RowCount: 2}},
	}))
	require.NoError(t, err)
	return h
}

func raceData() []byte {
	return sqtest.BuildExd([]sqtest.ExdRow{
		{ID: 1, Subs: [][]byte{sqtest.RowBody(raceCols, 8, []any{"Hyur", uint16(101), true})}},
		{ID: 2, Subs: [][]byte{sqtest.RowBody(raceCols, 8, []any{"Miqo'te", uint16(102), false})}},
	}, 8, false)
}

func TestReaderRows(t *testing.T) {
	r, err := NewReader(raceHeader(t), raceData())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	rows, err := r.Collect()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, uint32(1), rows[0].ID)
	assert.Equal(t, uint16(0), rows[0].SubID)
	assert.Equal(t, "Hyur", rows[0].Values[0].Text())
	assert.Equal(t, uint64(101), rows[0].Values[1].Uint())
	assert.True(t, rows[0].Values[2].Bool())

	assert.Equal(t, uint32(2), rows[1].ID)
	assert.Equal(t, "Miqo'te", rows[1].Values[0].Text())
	assert.False(t, rows[1].Values[2].Bool())
}

func TestReaderRestartable(t *testing.T) {
	h := raceHeader(t)
	data := raceData()

	r, err := NewReader(h, data)
	require.NoError(t, err)
	first, err := r.Collect()
	require.NoError(t, err)

	// rewinding yields the same sequence again
	r.Reset()
	second, err := r.Collect()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// as does an independent reader over the same bytes
	r2, err := NewReader(h, data)
	require.NoError(t, err)
	third, err := r2.Collect()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestReaderRowIdempotent(t *testing.T) {
	r, err := NewReader(raceHeader(t), raceData())
	require.NoError(t, err)
	require.True(t, r.Next())

	a, err := r.Row()
	require.NoError(t, err)
	b, err := r.Row()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReaderRowBeforeNext(t *testing.T) {
	r, err := NewReader(raceHeader(t), raceData())
	require.NoError(t, err)
	_, err = r.Row()
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestReaderSubRows(t *testing.T) {
	cols := []sqtest.Col{{Type: sqtest.TypeUInt32, Offset: 0}}
	h, err := ParseHeader(sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 4,
		SubRows: true,
		Cols:    cols,
		Pages:   []sqtest.Page{{StartID: 10, RowCount: 2}},
	}))
	require.NoError(t, err)

	data := sqtest.BuildExd([]sqtest.ExdRow{
		{ID: 10, Subs: [][]byte{
			sqtest.RowBody(cols, 4, []any{uint32(100)}),
			sqtest.RowBody(cols, 4, []any{uint32(200)}),
			sqtest.RowBody(cols, 4, []any{uint32(300)}),
		}},
		{ID: 11, Subs: [][]byte{
			sqtest.RowBody(cols, 4, []any{uint32(400)}),
		}},
	}, 4, true)

	r, err := NewReader(h, data)
	require.NoError(t, err)
	rows, err := r.Collect()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// sub-rows share the parent id and carry their own sequential ids
	for i, want := range []struct {
		id  uint32
		sub uint16
		val uint64
	}{
		{10, 0, 100}, {10, 1, 200}, {10, 2, 300}, {11, 0, 400},
	} {
		assert.Equal(t, want.id, rows[i].ID, "row %d", i)
		assert.Equal(t, want.sub, rows[i].SubID, "row %d", i)
		assert.Equal(t, want.val, rows[i].Values[0].Uint(), "row %d", i)
	}
}

func TestReaderAllKinds(t *testing.T) {
	cols := []sqtest.Col{
		{Type: sqtest.TypeInt8, Offset: 0},
		{Type: sqtest.TypeInt16, Offset: 2},
		{Type: sqtest.TypeInt32, Offset: 4},
		{Type: sqtest.TypeInt64, Offset: 8},
		{Type: sqtest.TypeUInt64, Offset: 16},
		{Type: sqtest.TypeFloat32, Offset: 24},
	}
	h, err := ParseHeader(sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 28,
		Cols:    cols,
		Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
	}))
	require.NoError(t, err)

	data := sqtest.BuildExd([]sqtest.ExdRow{
		{ID: 0, Subs: [][]byte{sqtest.RowBody(cols, 28, []any{
			int8(-5), int16(-1000), int32(-70000), int64(-1 << 40), uint64(1) << 60, float32(2.5),
		})}},
	}, 28, false)

	r, err := NewReader(h, data)
	require.NoError(t, err)
	rows, err := r.Collect()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	v := rows[0].Values
	assert.Equal(t, int64(-5), v[0].Int())
	assert.Equal(t, int64(-1000), v[1].Int())
	assert.Equal(t, int64(-70000), v[2].Int())
	assert.Equal(t, int64(-1<<40), v[3].Int())
	assert.Equal(t, uint64(1)<<60, v[4].Uint())
	assert.Equal(t, float32(2.5), v[5].Float())
}

func TestReaderPackedBools(t *testing.T) {
	// three flags sharing the byte at offset 0, bits 0, 1 and 7
	cols := []sqtest.Col{
		{Type: sqtest.TypePackedBool0, Offset: 0},
		{Type: sqtest.TypePackedBool0 + 1, Offset: 0},
		{Type: sqtest.TypePackedBool0 + 7, Offset: 0},
	}
	h, err := ParseHeader(sqtest.BuildExh(sqtest.SheetSpec{
		RowSize: 4,
		Cols:    cols,
		Pages:   []sqtest.Page{{StartID: 0, RowCount: 1}},
	}))
	require.NoError(t, err)

	data := sqtest.BuildExd([]sqtest.ExdRow{
		{ID: 0, Subs: [][]byte{sqtest.RowBody(cols, 4, []any{true, false, true})}},
	}, 4, false)

	r, err := NewReader(h, data)
	require.NoError(t, err)
	rows, err := r.Collect()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].Values[0].Bool())
	assert.False(t, rows[0].Values[1].Bool())
	assert.True(t, rows[0].Values[2].Bool())
}

func TestNewReaderMalformed(t *testing.T) {
	h := raceHeader(t)
	valid := raceData()

	t.Run("bad magic", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		raw[0] = 'Q'
		_, err := NewReader(h, raw)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := NewReader(h, valid[:16])
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("offset table overruns file", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		raw[8], raw[9], raw[10], raw[11] = 0, 0x10, 0, 0
		_, err := NewReader(h, raw)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})

	t.Run("row offset beyond file end", func(t *testing.T) {
		raw := append([]byte(nil), valid...)
		// second word of the first row ref
		raw[36], raw[37], raw[38], raw[39] = 0xff, 0xff, 0xff, 0xff
		_, err := NewReader(h, raw)
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}

func TestReaderUnterminatedString(t *testing.T) {
	h := raceHeader(t)
	body := sqtest.RowBody(raceCols, 8, []any{"Hyur", uint16(1), false})
	body = body[:len(body)-1] // drop the NUL
	data := sqtest.BuildExd([]sqtest.ExdRow{{ID: 1, Subs: [][]byte{body}}}, 8, false)

	r, err := NewReader(h, data)
	require.NoError(t, err)
	require.True(t, r.Next())
	_, err = r.Row()
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
