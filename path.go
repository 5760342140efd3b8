// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package xivtool

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// categoryIDs maps the first segment of a logical archive path to the
// category byte used in pack file names.
var categoryIDs = map[string]uint8{
	"common":       0x00,
	"bgcommon":     0x01,
	"bg":           0x02,
	"cut":          0x03,
	"chara":        0x04,
	"shader":       0x05,
	"ui":           0x06,
	"sound":        0x07,
	"vfx":          0x08,
	"ui_script":    0x09,
	"exd":          0x0A,
	"game_script":  0x0B,
	"music":        0x0C,
	"_sqpack_test": 0x12,
	"_debug":       0x13,
}

var (
	expansionRe = regexp.MustCompile(`^ex([1-9])$`)
	patchRe     = regexp.MustCompile(`^([0-9a-f]{2})_`)
	packFileRe  = regexp.MustCompile(`^([0-9a-f]{2})([0-9a-f]{2})([0-9a-f]{2})\.win32\.(index2?|dat[0-7])$`)
)

// PackID identifies one index + shard set: a (category, expansion,
// patch) triple, rendered as the six hex digits pack files are named
// with.
type PackID struct {
	Category  uint8
	Expansion uint8
	Patch     uint8
}

func (p PackID) String() string {
	return fmt.Sprintf("%02x%02x%02x", p.Category, p.Expansion, p.Patch)
}

// expansionDir is the archive subdirectory holding this pack's files.
func (p PackID) expansionDir() string {
	if p.Expansion == 0 {
		return "ffxiv"
	}
	return fmt.Sprintf("ex%d", p.Expansion)
}

// fileName returns the pack file name for the given extension
// ("index", "index2", "dat0"...), relative to the archive root.
func (p PackID) fileName(ext string) string {
	return path.Join(p.expansionDir(), fmt.Sprintf("%s.win32.%s", p, ext))
}

// parsePackFileName recognizes pack file names like
// "0a0000.win32.index2" and returns the pack id and extension.
func parsePackFileName(name string) (PackID, string, bool) {
	m := packFileRe.FindStringSubmatch(name)
	if m == nil {
		return PackID{}, "", false
	}
	cat, _ := strconv.ParseUint(m[1], 16, 8)
	exp, _ := strconv.ParseUint(m[2], 16, 8)
	patch, _ := strconv.ParseUint(m[3], 16, 8)
	return PackID{Category: uint8(cat), Expansion: uint8(exp), Patch: uint8(patch)}, m[4], true
}

// ArchivePath is a normalized logical file path inside the archive,
// split into the directory and filename segments the index hashes
// separately, plus the pack the path belongs to.
type ArchivePath struct {
	Dir  string
	Name string
	Pack PackID
}

// String reassembles the full normalized path.
func (a ArchivePath) String() string {
	return a.Dir + "/" + a.Name
}

// ParsePath normalizes (case-folds) a logical archive path and derives
// its pack id from the leading segments.  Paths whose first segment is
// not a known category cannot resolve to anything, so they fail with
// ErrNotFound.
func ParsePath(p string) (ArchivePath, error) {
	p = strings.ToLower(p)
	i := strings.LastIndex(p, "/")
	if i <= 0 || i == len(p)-1 {
		return ArchivePath{}, fmt.Errorf("%q: need at least a directory and filename segment: %w", p, ErrNotFound)
	}
	a := ArchivePath{Dir: p[:i], Name: p[i+1:]}

	segs := strings.Split(p, "/")
	cat, ok := categoryIDs[segs[0]]
	if !ok {
		return ArchivePath{}, fmt.Errorf("%q: unknown category %q: %w", p, segs[0], ErrNotFound)
	}
	a.Pack.Category = cat

	// files under "exN/" directories belong to that expansion's packs;
	// within an expansion, a leading two-hex-digit filename prefix
	// selects the patch pack
	if len(segs) > 2 {
		if m := expansionRe.FindStringSubmatch(segs[1]); m != nil {
			n, _ := strconv.Atoi(m[1])
			a.Pack.Expansion = uint8(n)
			if m := patchRe.FindStringSubmatch(segs[2]); m != nil {
				n, _ := strconv.ParseUint(m[1], 16, 8)
				a.Pack.Patch = uint8(n)
			}
		}
	}
	return a, nil
}
