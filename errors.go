// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package xivtool

import (
	"errors"

	"github.com/dervus/xivtool/datafile"
	"github.com/dervus/xivtool/indexfile"
)

var (
	// ErrRepositoryUnavailable means the archive root is missing or
	// contains no index files at all.
	ErrRepositoryUnavailable = errors.New("xivtool: repository unavailable")

	// ErrNotFound means the path does not resolve to a file: the
	// category has no pack, or the hashed path has no index entry.
	ErrNotFound = errors.New("xivtool: file not found")

	// ErrMalformedIndex surfaces a structurally invalid index file.
	ErrMalformedIndex = indexfile.ErrMalformed

	// ErrCorruptBlock surfaces a data-file block whose contents
	// contradict its header.
	ErrCorruptBlock = datafile.ErrCorrupt
)
