// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package sqtest builds synthetic SqPack archives, index files and
// EXH/EXD sheets for tests.  It is a write-only mirror of the read
// path and deliberately shares no code with it.
package sqtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/klauspost/compress/flate"
)

// wire type ids as they appear in EXH column definitions; must match
// the ids the exd package decodes
const (
	TypeString      = 0x0
	TypeBool        = 0x1
	TypeInt8        = 0x2
	TypeUInt8       = 0x3
	TypeInt16       = 0x4
	TypeUInt16      = 0x5
	TypeInt32       = 0x6
	TypeUInt32      = 0x7
	TypeFloat32     = 0x9
	TypeInt64       = 0xA
	TypeUInt64      = 0xB
	TypePackedBool0 = 0x19
)

const (
	blockHeaderSize      = 16
	blockPadding         = 128
	compressionThreshold = 32000
	fileAlign            = 128
)

// HashPath mirrors the reader's CRC-32/JAMCRC over the lower-cased path.
func HashPath(path string) uint32 {
	return ^crc32.ChecksumIEEE([]byte(strings.ToLower(path)))
}

// PackLocator packs a shard id and byte offset the way index entries
// store them.  The offset must be 64-byte aligned to survive the
// round trip.
func PackLocator(dataFileID uint8, offset int64) uint32 {
	if offset%64 != 0 {
		panic(fmt.Sprintf("sqtest: offset %d not representable in a packed locator", offset))
	}
	if dataFileID > 3 {
		panic("sqtest: shard id out of range")
	}
	return uint32(offset>>3) | uint32(dataFileID)<<1
}

// IndexEntry is one logical file in a synthetic index.
type IndexEntry struct {
	Path    string
	Locator uint32
}

const indexTableOff = 0x40

// BuildIndex2 serializes entries as a full-path-hash (".index2") file.
func BuildIndex2(entries []IndexEntry) []byte {
	return buildIndex(entries, false)
}

// BuildIndex1 serializes entries as a segment-pair (".index") file.
func BuildIndex1(entries []IndexEntry) []byte {
	return buildIndex(entries, true)
}

func buildIndex(entries []IndexEntry, pair bool) []byte {
	entrySize := 8
	if pair {
		entrySize = 16
	}
	buf := make([]byte, indexTableOff+len(entries)*entrySize)
	copy(buf, "SqPack\x00\x00")
	const headerPos = 0x20
	binary.LittleEndian.PutUint32(buf[0x0C:], headerPos)
	binary.LittleEndian.PutUint32(buf[headerPos+8:], indexTableOff)
	binary.LittleEndian.PutUint32(buf[headerPos+12:], uint32(len(entries)*entrySize))

	for i, e := range entries {
		out := buf[indexTableOff+i*entrySize:]
		if pair {
			p := strings.ToLower(e.Path)
			j := strings.LastIndex(p, "/")
			if j < 0 {
				panic("sqtest: pair index entries need a directory segment")
			}
			dir, name := p[:j], p[j+1:]
			binary.LittleEndian.PutUint32(out, ^crc32.ChecksumIEEE([]byte(name)))
			binary.LittleEndian.PutUint32(out[4:], ^crc32.ChecksumIEEE([]byte(dir)))
			binary.LittleEndian.PutUint32(out[8:], e.Locator)
		} else {
			binary.LittleEndian.PutUint32(out, HashPath(e.Path))
			binary.LittleEndian.PutUint32(out[4:], e.Locator)
		}
	}
	return buf
}

// DatBuilder accumulates packed file bodies for one synthetic shard.
type DatBuilder struct {
	buf bytes.Buffer
}

func NewDatBuilder() *DatBuilder {
	return &DatBuilder{}
}

// Bytes returns the shard contents written so far.
func (b *DatBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *DatBuilder) align() int64 {
	for b.buf.Len()%fileAlign != 0 {
		b.buf.WriteByte(0)
	}
	return int64(b.buf.Len())
}

// AddEmpty appends an empty-file entry and returns its shard offset.
func (b *DatBuilder) AddEmpty() int64 {
	off := b.align()
	var hdr [24]byte
	binary.LittleEndian.PutUint32(hdr[0:], 24)
	binary.LittleEndian.PutUint32(hdr[4:], 1) // empty
	b.buf.Write(hdr[:])
	return off
}

// AddStandard appends data as a standard block-compressed file, split
// into blocks of at most blockSize decompressed bytes, and returns its
// shard offset.
func (b *DatBuilder) AddStandard(data []byte, blockSize int) int64 {
	if blockSize <= 0 {
		blockSize = len(data)
	}
	var chunks [][]byte
	for len(data) > 0 {
		n := blockSize
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	var blocks []byte
	var offsets []uint32
	total := 0
	for _, c := range chunks {
		offsets = append(offsets, uint32(len(blocks)))
		blocks = appendBlock(blocks, c)
		total += len(c)
	}

	off := b.align()
	headerLen := 24 + 8*len(chunks)
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(hdr[0:], uint32(headerLen))
	binary.LittleEndian.PutUint32(hdr[4:], 2) // standard
	binary.LittleEndian.PutUint32(hdr[8:], uint32(total))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(len(chunks)))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(hdr[24+8*i:], o)
	}
	b.buf.Write(hdr)
	b.buf.Write(blocks)
	return off
}

// AddTexture appends a texture file with the given pixel format,
// dimensions and per-mip payloads, and returns its shard offset.
func (b *DatBuilder) AddTexture(format uint32, width, height uint16, mips [][]byte) int64 {
	type mipRec struct {
		off, compLen, uncompLen, blockStart, blockCount uint32
	}

	// the region after the file header starts with a 16-byte image
	// header, then the mip block runs
	var region []byte
	img := make([]byte, 16)
	binary.LittleEndian.PutUint32(img[4:], format)
	binary.LittleEndian.PutUint16(img[8:], width)
	binary.LittleEndian.PutUint16(img[10:], height)
	binary.LittleEndian.PutUint16(img[12:], 1) // depth
	binary.LittleEndian.PutUint16(img[14:], uint16(len(mips)))
	region = append(region, img...)

	var recs []mipRec
	blockStart := uint32(0)
	total := 0
	for _, mip := range mips {
		start := len(region)
		region = appendBlock(region, mip)
		recs = append(recs, mipRec{
			off:        uint32(start),
			compLen:    uint32(len(region) - start),
			uncompLen:  uint32(len(mip)),
			blockStart: blockStart,
			blockCount: 1,
		})
		blockStart++
		total += len(mip)
	}

	off := b.align()
	headerLen := 24 + 20*len(mips)
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(hdr[0:], uint32(headerLen))
	binary.LittleEndian.PutUint32(hdr[4:], 4) // texture
	binary.LittleEndian.PutUint32(hdr[8:], uint32(total))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(len(mips)))
	for i, r := range recs {
		p := hdr[24+20*i:]
		binary.LittleEndian.PutUint32(p[0:], r.off)
		binary.LittleEndian.PutUint32(p[4:], r.compLen)
		binary.LittleEndian.PutUint32(p[8:], r.uncompLen)
		binary.LittleEndian.PutUint32(p[12:], r.blockStart)
		binary.LittleEndian.PutUint32(p[16:], r.blockCount)
	}
	b.buf.Write(hdr)
	b.buf.Write(region)
	return off
}

// AddModel appends a model file with the given per-part payloads
// (padded with empty parts up to the fixed part count) and returns its
// shard offset.
func (b *DatBuilder) AddModel(parts [][]byte, blockSize int) int64 {
	const partCount = 11
	if len(parts) > partCount {
		panic("sqtest: too many model parts")
	}
	for len(parts) < partCount {
		parts = append(parts, nil)
	}
	if blockSize <= 0 {
		blockSize = 16000
	}

	var region []byte
	var blockLens []uint16
	var chunkLen, chunkOff [partCount]uint32
	var blockStart, blockCount [partCount]uint16
	total := 0
	for i, part := range parts {
		chunkOff[i] = uint32(len(region))
		chunkLen[i] = uint32(len(part))
		blockStart[i] = uint16(len(blockLens))
		for len(part) > 0 {
			n := blockSize
			if n > len(part) {
				n = len(part)
			}
			before := len(region)
			region = appendBlock(region, part[:n])
			blockLens = append(blockLens, uint16(len(region)-before))
			blockCount[i]++
			part = part[n:]
		}
		total += int(chunkLen[i])
	}

	headerLen := 208 + 2*len(blockLens)
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(hdr[0:], uint32(headerLen))
	binary.LittleEndian.PutUint32(hdr[4:], 3) // model
	binary.LittleEndian.PutUint32(hdr[8:], uint32(total))
	for i := 0; i < partCount; i++ {
		binary.LittleEndian.PutUint32(hdr[24+4*i:], chunkLen[i]) // chunk sizes, unused by the reader
		binary.LittleEndian.PutUint32(hdr[68+4*i:], chunkLen[i])
		binary.LittleEndian.PutUint32(hdr[112+4*i:], chunkOff[i])
		binary.LittleEndian.PutUint16(hdr[156+2*i:], blockStart[i])
		binary.LittleEndian.PutUint16(hdr[178+2*i:], blockCount[i])
	}
	binary.LittleEndian.PutUint16(hdr[200:], 1) // meshes
	binary.LittleEndian.PutUint16(hdr[202:], 1) // materials
	for i, l := range blockLens {
		binary.LittleEndian.PutUint16(hdr[208+2*i:], l)
	}

	off := b.align()
	b.buf.Write(hdr)
	b.buf.Write(region)
	return off
}

// appendBlock writes one block (header, body, pad to the 128-byte
// grid) for data, deflating it when that helps.
func appendBlock(dst, data []byte) []byte {
	comp := deflate(data)
	var body []byte
	compSize := uint32(compressionThreshold) // sentinel: stored verbatim
	if len(comp) < len(data) && len(comp) < compressionThreshold {
		body = comp
		compSize = uint32(len(comp))
	} else {
		body = data
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], 0x10)
	binary.LittleEndian.PutUint32(hdr[8:], compSize)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(data)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, body...)

	pad := blockPadding - (blockHeaderSize+len(body))%blockPadding
	dst = append(dst, make([]byte, pad)...)
	return dst
}

func deflate(data []byte) []byte {
	var out bytes.Buffer
	w, err := flate.NewWriter(&out, flate.DefaultCompression)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return out.Bytes()
}
