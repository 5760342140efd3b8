// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package indexfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSegment(t *testing.T) {
	// Reference values computed with the JAMCRC variant of CRC-32
	// (bitwise NOT of the standard IEEE checksum).
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 0xffffffff},
		{"a", 0x174841bc},
		{"exd", 0xe39b7999},
		{"root.exl", 0x51b57ebc},
		{"race_0_en.exd", 0x4764fbe0},
		{"ui/icon/000000", 0x45c8c92d},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HashSegment(c.in), "HashSegment(%q)", c.in)
	}
}

func TestHashSegmentLowercases(t *testing.T) {
	assert.Equal(t, HashSegment("exd/root.exl"), HashSegment("EXD/Root.EXL"))
	assert.Equal(t, HashSegment("a"), HashSegment("A"))
}

func TestHashPath(t *testing.T) {
	assert.Equal(t, uint32(0x3e16266c), HashPath("exd/root.exl"))
	assert.Equal(t, uint32(0x18b2ad40), HashPath("UI/Icon/000000/000001.tex"))
}

func TestHashPair(t *testing.T) {
	dir, name := HashPair("ui/icon/000000", "000001.tex")
	assert.Equal(t, uint32(0x45c8c92d), dir)
	assert.Equal(t, uint32(0xba63cbba), name)
	assert.Equal(t, uint64(0x45c8c92d)<<32|0xba63cbba, PairKey(dir, name))
}
