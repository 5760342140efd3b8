// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package indexfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed indicates a structurally invalid index file: bad magic,
// truncated header or entry table, or a hash collision between two
// distinct entries.
var ErrMalformed = errors.New("indexfile: malformed index file")

var magic = []byte("SqPack\x00\x00")

const (
	// offset of the little-endian u32 that holds the position of the
	// second (index) header within the file
	indexHeaderPosOff = 0x0C

	fullPathEntrySize = 8
	pairEntrySize     = 16
)

// Kind selects which of the two on-disk index layouts a file uses.
type Kind int

const (
	// KindFullPath is the ".index2" layout: one 32-bit hash over the
	// whole lower-cased path per entry.
	KindFullPath Kind = iota
	// KindPair is the ".index" layout: separate 32-bit hashes of the
	// filename and directory segments per entry.
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindFullPath:
		return "index2"
	case KindPair:
		return "index"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Locator is a resolved pointer into the category's data-file shards.
type Locator struct {
	DataFileID uint8
	Offset     int64
}

// unpackLocator splits the packed 32-bit locator: the shard id lives in
// the low bits, the rest is the byte offset in 8-byte units.  The exact
// split is dictated by the on-disk format.
func unpackLocator(loc uint32) Locator {
	return Locator{
		DataFileID: uint8((loc & 0x00000007) >> 1),
		Offset:     int64(loc&0xFFFFFFF8) << 3,
	}
}

type entry struct {
	key uint64
	loc uint32
}

// Table is an immutable in-memory index for one category+expansion
// pack: a flat table of (hash key, packed locator) entries sorted by
// key for binary search.  Safe for concurrent lookups once built.
type Table struct {
	kind    Kind
	entries []entry
}

// Parse builds a Table from the raw contents of an index file.
func Parse(data []byte, kind Kind) (*Table, error) {
	entrySize := fullPathEntrySize
	if kind == KindPair {
		entrySize = pairEntrySize
	}

	if len(data) < indexHeaderPosOff+4 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	headerPos := int64(binary.LittleEndian.Uint32(data[indexHeaderPosOff:]))
	if headerPos+16 > int64(len(data)) {
		return nil, fmt.Errorf("%w: index header at %d beyond file end (%d)", ErrMalformed, headerPos, len(data))
	}
	tableOff := int64(binary.LittleEndian.Uint32(data[headerPos+8:]))
	tableSize := int64(binary.LittleEndian.Uint32(data[headerPos+12:]))
	if tableSize%int64(entrySize) != 0 {
		return nil, fmt.Errorf("%w: entry table size %d not a multiple of %d", ErrMalformed, tableSize, entrySize)
	}
	if tableOff < 0 || tableOff+tableSize > int64(len(data)) {
		return nil, fmt.Errorf("%w: entry table %d+%d beyond file end (%d)", ErrMalformed, tableOff, tableSize, len(data))
	}

	n := int(tableSize) / entrySize
	entries := make([]entry, n)
	raw := data[tableOff : tableOff+tableSize]
	for i := 0; i < n; i++ {
		e := raw[i*entrySize:]
		switch kind {
		case KindFullPath:
			entries[i] = entry{
				key: uint64(binary.LittleEndian.Uint32(e)),
				loc: binary.LittleEndian.Uint32(e[4:]),
			}
		case KindPair:
			nameHash := binary.LittleEndian.Uint32(e)
			dirHash := binary.LittleEndian.Uint32(e[4:])
			entries[i] = entry{
				key: PairKey(dirHash, nameHash),
				loc: binary.LittleEndian.Uint32(e[8:]),
			}
		}
	}

	// entries are sorted on disk, but lookups depend on the order, so
	// don't trust the file
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for i := 1; i < len(entries); i++ {
		if entries[i].key == entries[i-1].key {
			// two distinct paths hashing to the same key make every
			// lookup of either ambiguous; refuse the whole table
			return nil, fmt.Errorf("%w: hash collision on key %#x", ErrMalformed, entries[i].key)
		}
	}

	return &Table{kind: kind, entries: entries}, nil
}

// Kind reports which on-disk layout the table was parsed from.
func (t *Table) Kind() Kind { return t.kind }

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.entries) }

// Lookup resolves a hash key to a shard locator.  For KindFullPath
// tables the key is HashPath widened to 64 bits; for KindPair tables it
// is PairKey(HashPair(dir, name)).
func (t *Table) Lookup(key uint64) (Locator, bool) {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].key >= key })
	if i >= len(t.entries) || t.entries[i].key != key {
		return Locator{}, false
	}
	return unpackLocator(t.entries[i].loc), true
}

// LookupPath resolves a logical archive path against the table,
// hashing it according to the table's kind.
func (t *Table) LookupPath(dir, name string) (Locator, bool) {
	switch t.kind {
	case KindPair:
		dirHash, nameHash := HashPair(dir, name)
		return t.Lookup(PairKey(dirHash, nameHash))
	default:
		return t.Lookup(uint64(HashPath(dir + "/" + name)))
	}
}
