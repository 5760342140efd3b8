// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tex

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dervus/xivtool/datafile"
)

func texture(format uint32, w, h uint16, mips ...[]byte) *datafile.Texture {
	return &datafile.Texture{
		Format:   format,
		Width:    w,
		Height:   h,
		Depth:    1,
		MipCount: uint16(len(mips)),
		Mips:     mips,
	}
}

func TestDecodeGray(t *testing.T) {
	img, err := Decode(texture(FormatL8, 2, 2, []byte{0, 64, 128, 255}))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.Gray{Y: 0}, img.At(0, 0))
	assert.Equal(t, color.Gray{Y: 64}, img.At(1, 0))
	assert.Equal(t, color.Gray{Y: 128}, img.At(0, 1))
	assert.Equal(t, color.Gray{Y: 255}, img.At(1, 1))
}

func TestDecodeB5G5R5A1(t *testing.T) {
	// magenta at full alpha, then green at zero alpha
	px := make([]byte, 4)
	binary.LittleEndian.PutUint16(px, 0x8000|0x1f<<10|0x1f)
	binary.LittleEndian.PutUint16(px[2:], 0x1f<<5)

	img, err := Decode(texture(FormatB5G5R5A1, 2, 1, px))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 248, G: 0, B: 248, A: 255}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{R: 0, G: 248, B: 0, A: 0}, img.At(1, 0))
}

func TestDecodeR8G8B8A8(t *testing.T) {
	img, err := Decode(texture(FormatR8G8B8A8, 2, 1, []byte{
		10, 20, 30, 255,
		40, 50, 60, 128,
	}))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 128}, img.At(1, 0))
}

// dxt1Block packs a block with the given endpoint colors and one
// 2-bit palette index for all 16 pixels.
func dxt1Block(c0, c1 uint16, index uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b, c0)
	binary.LittleEndian.PutUint16(b[2:], c1)
	var indices uint32
	for i := 0; i < 16; i++ {
		indices |= index << (2 * i)
	}
	binary.LittleEndian.PutUint32(b[4:], indices)
	return b
}

const (
	red565  = 0xf800
	blue565 = 0x001f
)

func TestDecodeDXT1(t *testing.T) {
	img, err := Decode(texture(FormatDXT1, 4, 4, dxt1Block(red565, blue565, 1)))
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.At(x, y), "(%d,%d)", x, y)
		}
	}
}

func TestDecodeDXT1Interpolated(t *testing.T) {
	img, err := Decode(texture(FormatDXT1, 4, 4, dxt1Block(red565, blue565, 2)))
	require.NoError(t, err)
	// two thirds of color0, one third of color1
	assert.Equal(t, color.NRGBA{R: 170, B: 85, A: 255}, img.At(0, 0))
}

func TestDecodeDXT1PunchThrough(t *testing.T) {
	// color0 <= color1 selects three-color mode; index 3 is
	// transparent black
	img, err := Decode(texture(FormatDXT1, 4, 4, dxt1Block(blue565, red565, 3)))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{}, img.At(0, 0))
}

func TestDecodeDXT1Clipped(t *testing.T) {
	// a 2x2 texture still occupies a whole block
	img, err := Decode(texture(FormatDXT1, 2, 2, dxt1Block(red565, blue565, 0)))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.At(1, 1))
}

func TestDecodeDXT3(t *testing.T) {
	b := make([]byte, 16)
	// 4-bit alphas: pixel 0 gets 0x0, pixel 1 gets 0xf
	binary.LittleEndian.PutUint64(b, 0xf0)
	binary.LittleEndian.PutUint16(b[8:], red565)
	binary.LittleEndian.PutUint16(b[10:], blue565)
	// all indices 0: color0 everywhere

	img, err := Decode(texture(FormatDXT3, 4, 4, b))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 0}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.At(1, 0))
}

func TestDecodeDXT5(t *testing.T) {
	b := make([]byte, 16)
	b[0] = 255 // alpha0
	b[1] = 0   // alpha1
	// 3-bit alpha indices: pixel 0 selects alpha0, pixel 1 alpha1
	var alphaBits uint64 = 1 << 3
	binary.LittleEndian.PutUint64(b, uint64(b[0])|uint64(b[1])<<8|alphaBits<<16)
	binary.LittleEndian.PutUint16(b[8:], red565)
	binary.LittleEndian.PutUint16(b[10:], blue565)

	img, err := Decode(texture(FormatDXT5, 4, 4, b))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.At(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 0}, img.At(1, 0))
}

func TestDecodeMip(t *testing.T) {
	mip0 := make([]byte, 4*4*4)
	mip1 := make([]byte, 2*2*4)
	mip1[0] = 77

	img, err := DecodeMip(texture(FormatR8G8B8A8, 4, 4, mip0, mip1), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, color.NRGBA{R: 77}, img.At(0, 0))

	_, err = DecodeMip(texture(FormatR8G8B8A8, 4, 4, mip0, mip1), 2)
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		_, err := Decode(texture(16704, 4, 4, make([]byte, 64)))
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := Decode(texture(FormatR8G8B8A8, 4, 4, make([]byte, 10)))
		assert.ErrorIs(t, err, ErrData)

		_, err = Decode(texture(FormatDXT1, 8, 8, make([]byte, 8)))
		assert.ErrorIs(t, err, ErrData)
	})
}
