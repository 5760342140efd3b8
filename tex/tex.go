// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tex decodes SqPack texture payloads into image.Image values.
//
// Only the pixel formats that actually occur in game data are handled:
// 8-bit luminance, 16-bit B5G5R5A1, 32-bit R8G8B8A8, and the DXT1/3/5
// block-compressed families.
package tex

import (
	"errors"
	"fmt"
	"image"

	"github.com/dervus/xivtool/datafile"
)

// Pixel format identifiers as stored in the texture image header.
const (
	FormatL8       uint32 = 4400
	FormatA8       uint32 = 4401
	FormatB5G5R5A1 uint32 = 5185
	FormatR8G8B8A8 uint32 = 5200
	FormatDXT1     uint32 = 13344
	FormatDXT3     uint32 = 13360
	FormatDXT5     uint32 = 13361
)

var (
	// ErrFormat reports a pixel format this package cannot decode.
	ErrFormat = errors.New("tex: unsupported pixel format")
	// ErrData reports a mip payload too short for its declared dimensions.
	ErrData = errors.New("tex: truncated pixel data")
)

// Decode converts the largest mip level of t into an image. Luminance
// formats decode to *image.Gray, everything else to *image.NRGBA.
func Decode(t *datafile.Texture) (image.Image, error) {
	return DecodeMip(t, 0)
}

// DecodeMip converts a single mip level of t into an image. Level 0 is
// the largest; each following level halves the dimensions.
func DecodeMip(t *datafile.Texture, mip int) (image.Image, error) {
	if mip < 0 || mip >= len(t.Mips) {
		return nil, fmt.Errorf("tex: mip %d out of range (texture has %d)", mip, len(t.Mips))
	}
	w := int(t.Width) >> mip
	h := int(t.Height) >> mip
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	data := t.Mips[mip]

	switch t.Format {
	case FormatL8, FormatA8:
		return decodeGray(w, h, data)
	case FormatB5G5R5A1:
		return decodeB5G5R5A1(w, h, data)
	case FormatR8G8B8A8:
		return decodeR8G8B8A8(w, h, data)
	case FormatDXT1:
		return decodeDXT(w, h, data, dxt1BlockSize, decodeDXT1Block)
	case FormatDXT3:
		return decodeDXT(w, h, data, dxt35BlockSize, decodeDXT3Block)
	case FormatDXT5:
		return decodeDXT(w, h, data, dxt35BlockSize, decodeDXT5Block)
	default:
		return nil, fmt.Errorf("%w %d", ErrFormat, t.Format)
	}
}

func decodeGray(w, h int, data []byte) (image.Image, error) {
	if len(data) < w*h {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d L8", ErrData, len(data), w, h)
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:], data[y*w:(y+1)*w])
	}
	return img, nil
}

func decodeB5G5R5A1(w, h int, data []byte) (image.Image, error) {
	if len(data) < w*h*2 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d B5G5R5A1", ErrData, len(data), w, h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := uint16(data[(y*w+x)*2]) | uint16(data[(y*w+x)*2+1])<<8
			row[x*4+0] = uint8((p >> 10 & 0x1f) * 8)
			row[x*4+1] = uint8((p >> 5 & 0x1f) * 8)
			row[x*4+2] = uint8((p & 0x1f) * 8)
			row[x*4+3] = uint8((p >> 15) * 255)
		}
	}
	return img, nil
}

func decodeR8G8B8A8(w, h int, data []byte) (image.Image, error) {
	if len(data) < w*h*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d R8G8B8A8", ErrData, len(data), w, h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:], data[y*w*4:(y+1)*w*4])
	}
	return img, nil
}
