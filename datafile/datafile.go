// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile reads packed file bodies out of SqPack data-file
// shards.  Each body is a small header plus one or more independently
// deflate-compressed blocks; reads are self-contained (seek, read,
// inflate) and safe to issue concurrently at different offsets of the
// same shard.
package datafile

import "errors"

// Kind is the container type of a packed file.
type Kind uint32

const (
	KindEmpty    Kind = 1
	KindStandard Kind = 2
	KindModel    Kind = 3
	KindTexture  Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindStandard:
		return "standard"
	case KindModel:
		return "model"
	case KindTexture:
		return "texture"
	default:
		return "unknown"
	}
}

var (
	// ErrCorrupt indicates a block whose contents contradict its
	// header: bad block magic, or a decompressed size mismatch.
	ErrCorrupt = errors.New("datafile: corrupt block")
	// ErrKind is returned when a file is not of the requested
	// container type.
	ErrKind = errors.New("datafile: unexpected file type")
)

// Container is the decoded-but-still-structured form of one packed
// file.  Exactly one of Data, Model, Texture is meaningful, selected
// by Kind; Standard and Empty files use Data.
type Container struct {
	Kind    Kind
	Data    []byte
	Model   *Model
	Texture *Texture
}

// Texture is a decoded texture container: raw pixel data per mip
// level plus the pixel-format header needed to interpret it.  Pixel
// decoding itself is left to consumers.
type Texture struct {
	Format   uint32
	Width    uint16
	Height   uint16
	Depth    uint16
	MipCount uint16
	Mips     [][]byte
}

// Model is a decoded model container: the fixed set of decompressed
// vertex/index parts with per-part boundaries preserved.
type Model struct {
	MeshCount     uint16
	MaterialCount uint16
	Parts         [][]byte
}

const (
	fileHeaderSize = 24

	blockMagic           = 0x10
	blockHeaderSize      = 16
	blockPadding         = 128
	compressionThreshold = 32000

	// Blocks hold at most a few tens of KB before the writer splits them.
	// A declared size past this is a corrupt header, not a big block.
	maxBlockSize = 1 << 20

	modelPartCount = 11
)
