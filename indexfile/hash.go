// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package indexfile

import (
	"hash/crc32"
	"strings"
)

// The index lookup key is a CRC-32/JAMCRC checksum of the lower-cased
// path bytes: same polynomial and init value as the standard IEEE CRC,
// but without the final bit inversion.

// HashSegment returns the hash of a single path segment.  Hashing is
// case-insensitive: input is folded to lower case first.
func HashSegment(s string) uint32 {
	return ^crc32.ChecksumIEEE([]byte(strings.ToLower(s)))
}

// HashPath returns the hash of a whole slash-separated logical path,
// as used by the full-path index variant.
func HashPath(path string) uint32 {
	return HashSegment(path)
}

// HashPair returns the (directory, filename) segment hashes used by the
// segment-pair index variant.
func HashPair(dir, name string) (dirHash, nameHash uint32) {
	return HashSegment(dir), HashSegment(name)
}

// PairKey folds a (directory, filename) hash pair into the single
// 64-bit key the segment-pair table is sorted by.
func PairKey(dirHash, nameHash uint32) uint64 {
	return uint64(dirHash)<<32 | uint64(nameHash)
}
