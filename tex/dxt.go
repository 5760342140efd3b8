// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tex

import (
	"encoding/binary"
	"fmt"
	"image"
)

const (
	dxt1BlockSize  = 8
	dxt35BlockSize = 16
)

// decodeDXT walks the 4x4 block grid, decoding each block into a scratch
// tile and copying the in-bounds pixels out. Small mips are still stored
// as whole blocks, so the grid is rounded up and the tail clipped.
func decodeDXT(w, h int, data []byte, blockSize int, decodeBlock func(tile *[64]byte, block []byte)) (image.Image, error) {
	bw := (w + 3) / 4
	bh := (h + 3) / 4
	if len(data) < bw*bh*blockSize {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d (%d blocks of %d)", ErrData, len(data), w, h, bw*bh, blockSize)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var tile [64]byte
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			decodeBlock(&tile, data[(by*bw+bx)*blockSize:])
			for y := 0; y < 4 && by*4+y < h; y++ {
				for x := 0; x < 4 && bx*4+x < w; x++ {
					dst := (by*4+y)*img.Stride + (bx*4+x)*4
					copy(img.Pix[dst:dst+4], tile[(y*4+x)*4:])
				}
			}
		}
	}
	return img, nil
}

// expandColors derives the 4-entry RGB palette from the two endpoint
// colors of a block. DXT1 blocks with color0 <= color1 select the
// punch-through mode: entry 2 is the midpoint and entry 3 transparent
// black. DXT3/5 blocks always interpolate at thirds.
func expandColors(colors *[4][4]byte, c0, c1 uint16, dxt1 bool) {
	unpack565 := func(c uint16) (r, g, b byte) {
		r = byte(c >> 11 & 0x1f)
		g = byte(c >> 5 & 0x3f)
		b = byte(c & 0x1f)
		return r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2
	}
	colors[0][0], colors[0][1], colors[0][2] = unpack565(c0)
	colors[1][0], colors[1][1], colors[1][2] = unpack565(c1)
	colors[0][3], colors[1][3] = 0xff, 0xff

	if !dxt1 || c0 > c1 {
		for i := 0; i < 3; i++ {
			colors[2][i] = byte((uint16(colors[0][i])*2 + uint16(colors[1][i])) / 3)
			colors[3][i] = byte((uint16(colors[0][i]) + uint16(colors[1][i])*2) / 3)
		}
		colors[2][3], colors[3][3] = 0xff, 0xff
	} else {
		for i := 0; i < 3; i++ {
			colors[2][i] = byte((uint16(colors[0][i]) + uint16(colors[1][i])) >> 1)
		}
		colors[2][3] = 0xff
		colors[3] = [4]byte{}
	}
}

func decodeDXT1Block(tile *[64]byte, block []byte) {
	c0 := binary.LittleEndian.Uint16(block)
	c1 := binary.LittleEndian.Uint16(block[2:])
	indices := binary.LittleEndian.Uint32(block[4:])

	var colors [4][4]byte
	expandColors(&colors, c0, c1, true)
	for i := 0; i < 16; i++ {
		copy(tile[i*4:], colors[indices&3][:])
		indices >>= 2
	}
}

func decodeDXT3Block(tile *[64]byte, block []byte) {
	alpha := binary.LittleEndian.Uint64(block)
	c0 := binary.LittleEndian.Uint16(block[8:])
	c1 := binary.LittleEndian.Uint16(block[10:])
	indices := binary.LittleEndian.Uint32(block[12:])

	var colors [4][4]byte
	expandColors(&colors, c0, c1, false)
	for i := 0; i < 16; i++ {
		copy(tile[i*4:], colors[indices&3][:])
		tile[i*4+3] = byte(alpha&0xf) * 0x11
		indices >>= 2
		alpha >>= 4
	}
}

func decodeDXT5Block(tile *[64]byte, block []byte) {
	a0 := block[0]
	a1 := block[1]
	alphaBits := binary.LittleEndian.Uint64(block) >> 16
	c0 := binary.LittleEndian.Uint16(block[8:])
	c1 := binary.LittleEndian.Uint16(block[10:])
	indices := binary.LittleEndian.Uint32(block[12:])

	var alphas [8]byte
	alphas[0], alphas[1] = a0, a1
	if a0 > a1 {
		for i := 2; i < 8; i++ {
			alphas[i] = byte((uint(8-i)*uint(a0) + uint(i-1)*uint(a1)) / 7)
		}
	} else {
		for i := 2; i < 6; i++ {
			alphas[i] = byte((uint(6-i)*uint(a0) + uint(i-1)*uint(a1)) / 5)
		}
		alphas[6] = 0x00
		alphas[7] = 0xff
	}

	var colors [4][4]byte
	expandColors(&colors, c0, c1, false)
	for i := 0; i < 16; i++ {
		copy(tile[i*4:], colors[indices&3][:])
		tile[i*4+3] = alphas[alphaBits&7]
		indices >>= 2
		alphaBits >>= 3
	}
}
