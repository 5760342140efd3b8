// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

type fileHeader struct {
	headerLen  uint32
	kind       Kind
	uncompLen  uint32
	blockCount uint32
}

func readFileHeader(r io.ReaderAt, off int64) (fileHeader, error) {
	var buf [fileHeaderSize]byte
	if err := readAt(r, buf[:], off); err != nil {
		return fileHeader{}, fmt.Errorf("read file header at %d: %w", off, err)
	}
	h := fileHeader{
		headerLen:  binary.LittleEndian.Uint32(buf[0:]),
		kind:       Kind(binary.LittleEndian.Uint32(buf[4:])),
		uncompLen:  binary.LittleEndian.Uint32(buf[8:]),
		blockCount: binary.LittleEndian.Uint32(buf[20:]),
	}
	switch h.kind {
	case KindEmpty, KindStandard, KindModel, KindTexture:
	default:
		return fileHeader{}, fmt.Errorf("%w: unknown file type %d at %d", ErrCorrupt, uint32(h.kind), off)
	}
	if h.headerLen < fileHeaderSize {
		return fileHeader{}, fmt.Errorf("%w: header length %d too small", ErrCorrupt, h.headerLen)
	}
	return h, nil
}

// Peek reports the container type of the packed file at off without
// decoding it.
func Peek(r io.ReaderAt, off int64) (Kind, error) {
	h, err := readFileHeader(r, off)
	if err != nil {
		return 0, err
	}
	return h.kind, nil
}

// Read decodes the packed file at off into its container form.
func Read(r io.ReaderAt, off int64) (*Container, error) {
	h, err := readFileHeader(r, off)
	if err != nil {
		return nil, err
	}
	switch h.kind {
	case KindEmpty:
		return &Container{Kind: KindEmpty, Data: []byte{}}, nil
	case KindStandard:
		data, err := readStandard(r, off, h)
		if err != nil {
			return nil, err
		}
		return &Container{Kind: KindStandard, Data: data}, nil
	case KindModel:
		m, err := readModel(r, off, h)
		if err != nil {
			return nil, err
		}
		return &Container{Kind: KindModel, Model: m}, nil
	case KindTexture:
		t, err := readTexture(r, off, h)
		if err != nil {
			return nil, err
		}
		return &Container{Kind: KindTexture, Texture: t}, nil
	}
	panic("unreachable")
}

// ReadStandard decodes the standard (or empty) file at off and
// returns its flattened byte contents.
func ReadStandard(r io.ReaderAt, off int64) ([]byte, error) {
	h, err := readFileHeader(r, off)
	if err != nil {
		return nil, err
	}
	switch h.kind {
	case KindEmpty:
		return []byte{}, nil
	case KindStandard:
		return readStandard(r, off, h)
	default:
		return nil, fmt.Errorf("%w: want standard, file at %d is %s", ErrKind, off, h.kind)
	}
}

// ReadTexture decodes the texture file at off.
func ReadTexture(r io.ReaderAt, off int64) (*Texture, error) {
	h, err := readFileHeader(r, off)
	if err != nil {
		return nil, err
	}
	if h.kind != KindTexture {
		return nil, fmt.Errorf("%w: want texture, file at %d is %s", ErrKind, off, h.kind)
	}
	return readTexture(r, off, h)
}

// ReadModel decodes the model file at off.
func ReadModel(r io.ReaderAt, off int64) (*Model, error) {
	h, err := readFileHeader(r, off)
	if err != nil {
		return nil, err
	}
	if h.kind != KindModel {
		return nil, fmt.Errorf("%w: want model, file at %d is %s", ErrKind, off, h.kind)
	}
	return readModel(r, off, h)
}

func readStandard(r io.ReaderAt, off int64, h fileHeader) ([]byte, error) {
	table := make([]byte, 8*h.blockCount)
	if err := readAt(r, table, off+fileHeaderSize); err != nil {
		return nil, fmt.Errorf("read block table at %d: %w", off, err)
	}

	base := off + int64(h.headerLen)
	data := make([]byte, 0, h.uncompLen)
	for i := uint32(0); i < h.blockCount; i++ {
		blockOff := int64(binary.LittleEndian.Uint32(table[8*i:]))
		block, _, err := readBlock(r, base+blockOff)
		if err != nil {
			return nil, err
		}
		data = append(data, block...)
	}
	return data, nil
}

func readTexture(r io.ReaderAt, off int64, h fileHeader) (*Texture, error) {
	table := make([]byte, 20*h.blockCount)
	if err := readAt(r, table, off+fileHeaderSize); err != nil {
		return nil, fmt.Errorf("read mip table at %d: %w", off, err)
	}

	base := off + int64(h.headerLen)
	var img [16]byte
	if err := readAt(r, img[:], base); err != nil {
		return nil, fmt.Errorf("read image header at %d: %w", base, err)
	}
	tex := &Texture{
		Format:   binary.LittleEndian.Uint32(img[4:]),
		Width:    binary.LittleEndian.Uint16(img[8:]),
		Height:   binary.LittleEndian.Uint16(img[10:]),
		Depth:    binary.LittleEndian.Uint16(img[12:]),
		MipCount: binary.LittleEndian.Uint16(img[14:]),
		Mips:     make([][]byte, 0, h.blockCount),
	}

	for i := uint32(0); i < h.blockCount; i++ {
		rec := table[20*i:]
		mipOff := int64(binary.LittleEndian.Uint32(rec[0:]))
		uncompLen := binary.LittleEndian.Uint32(rec[8:])
		blockCount := binary.LittleEndian.Uint32(rec[16:])

		mip := make([]byte, 0, uncompLen)
		pos := base + mipOff
		for b := uint32(0); b < blockCount; b++ {
			block, consumed, err := readBlock(r, pos)
			if err != nil {
				return nil, err
			}
			mip = append(mip, block...)
			pos += consumed
		}
		if uint32(len(mip)) != uncompLen {
			return nil, fmt.Errorf("%w: mip %d decoded to %d bytes, header declares %d", ErrCorrupt, i, len(mip), uncompLen)
		}
		tex.Mips = append(tex.Mips, mip)
	}
	return tex, nil
}

func readModel(r io.ReaderAt, off int64, h fileHeader) (*Model, error) {
	// fixed part of the model header past the common file header:
	// 3 u32 arrays and 2 u16 arrays of modelPartCount entries, then
	// mesh/material counts and the per-block length table
	const fixed = 4 + 3*4*modelPartCount + 2*2*modelPartCount + 8
	buf := make([]byte, fixed)
	if err := readAt(r, buf, off+20); err != nil {
		return nil, fmt.Errorf("read model header at %d: %w", off, err)
	}
	p := buf[4:] // skip trailing word of the common header area

	var chunkLen, chunkOff [modelPartCount]uint32
	var blockStart, blockCount [modelPartCount]uint16
	// chunk sizes occupy the first array; only lengths and offsets
	// are needed to reassemble parts
	for i := 0; i < modelPartCount; i++ {
		chunkLen[i] = binary.LittleEndian.Uint32(p[4*modelPartCount+4*i:])
		chunkOff[i] = binary.LittleEndian.Uint32(p[8*modelPartCount+4*i:])
	}
	p = p[12*modelPartCount:]
	total := 0
	for i := 0; i < modelPartCount; i++ {
		blockStart[i] = binary.LittleEndian.Uint16(p[2*i:])
		blockCount[i] = binary.LittleEndian.Uint16(p[2*modelPartCount+2*i:])
		total += int(blockCount[i])
	}
	p = p[4*modelPartCount:]
	m := &Model{
		MeshCount:     binary.LittleEndian.Uint16(p[0:]),
		MaterialCount: binary.LittleEndian.Uint16(p[2:]),
	}

	blockLens := make([]byte, 2*total)
	if err := readAt(r, blockLens, off+20+int64(fixed)); err != nil {
		return nil, fmt.Errorf("read model block lengths at %d: %w", off, err)
	}

	base := off + int64(h.headerLen)
	m.Parts = make([][]byte, modelPartCount)
	for i := 0; i < modelPartCount; i++ {
		start, count := int(blockStart[i]), int(blockCount[i])
		if start+count > total {
			return nil, fmt.Errorf("%w: model part %d blocks [%d,%d) exceed block table (%d)", ErrCorrupt, i, start, start+count, total)
		}
		part := make([]byte, 0, chunkLen[i])
		pos := base + int64(chunkOff[i])
		for b := 0; b < count; b++ {
			block, _, err := readBlock(r, pos)
			if err != nil {
				return nil, err
			}
			part = append(part, block...)
			pos += int64(binary.LittleEndian.Uint16(blockLens[2*(start+b):]))
		}
		if uint32(len(part)) != chunkLen[i] {
			return nil, fmt.Errorf("%w: model part %d decoded to %d bytes, header declares %d", ErrCorrupt, i, len(part), chunkLen[i])
		}
		m.Parts[i] = part
	}
	return m, nil
}

// readBlock decodes one block at off and reports how many shard bytes
// a sequential reader advances past it, including the pad to the next
// 128-byte boundary.
func readBlock(r io.ReaderAt, off int64) (data []byte, consumed int64, err error) {
	var hdr [blockHeaderSize]byte
	if err := readAt(r, hdr[:], off); err != nil {
		return nil, 0, fmt.Errorf("read block header at %d: %w", off, err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != blockMagic {
		return nil, 0, fmt.Errorf("%w: bad block magic at %d", ErrCorrupt, off)
	}
	compLen := binary.LittleEndian.Uint32(hdr[8:])
	uncompLen := binary.LittleEndian.Uint32(hdr[12:])

	if uncompLen > maxBlockSize {
		return nil, 0, fmt.Errorf("%w: block at %d declares %d uncompressed bytes", ErrCorrupt, off, uncompLen)
	}

	compressed := compLen < compressionThreshold
	readLen := int64(uncompLen)
	if compressed {
		readLen = int64(compLen)
	}
	body := make([]byte, readLen)
	if err := readAt(r, body, off+blockHeaderSize); err != nil {
		return nil, 0, fmt.Errorf("read block body at %d: %w", off, err)
	}

	if compressed {
		fr := flate.NewReader(bytes.NewReader(body))
		data, err = io.ReadAll(fr)
		if cerr := fr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: inflate at %d: %v", ErrCorrupt, off, err)
		}
		if uint32(len(data)) != uncompLen {
			return nil, 0, fmt.Errorf("%w: block at %d inflated to %d bytes, header declares %d", ErrCorrupt, off, len(data), uncompLen)
		}
	} else {
		data = body
	}

	pad := blockPadding - (blockHeaderSize+readLen)%blockPadding
	return data, blockHeaderSize + readLen + pad, nil
}

func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
