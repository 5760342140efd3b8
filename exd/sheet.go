// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import (
	"fmt"
	"strings"

	"github.com/dervus/xivtool"
)

// Sheet is one opened table: its parsed schema plus the repository
// handle needed to fetch record files page by page.
type Sheet struct {
	repo   *xivtool.Repository
	name   string
	header *Header
	locale Locale
}

// OpenSheet resolves and parses the schema for the named sheet.  The
// requested locale is used when the sheet declares it; otherwise the
// sheet's first declared locale (or the locale-agnostic variant) is
// substituted.  Record files are not touched until rows are read.
func OpenSheet(repo *xivtool.Repository, name string, locale Locale) (*Sheet, error) {
	name = strings.ToLower(name)
	data, err := repo.ReadFile(fmt.Sprintf("exd/%s.exh", name))
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}

	if !h.HasLocale(locale) {
		locale = LocaleNone
		if len(h.Locales) > 0 {
			locale = h.Locales[0]
		}
	}
	return &Sheet{repo: repo, name: name, header: h, locale: locale}, nil
}

// Header returns the sheet's parsed schema.
func (s *Sheet) Header() *Header { return s.header }

// Name returns the normalized sheet name.
func (s *Sheet) Name() string { return s.name }

// Locale returns the locale variant rows are read from.
func (s *Sheet) Locale() Locale { return s.locale }

func (s *Sheet) pagePath(p Page) string {
	return fmt.Sprintf("exd/%s_%d%s.exd", s.name, p.StartID, s.locale.Suffix())
}

// Rows returns a fresh iterator over every row of the sheet, fetching
// one record file per page in ascending page order.  Each call starts
// over from the first page.
func (s *Sheet) Rows() *SheetRows {
	return &SheetRows{sheet: s}
}

// Collect reads the whole sheet into memory, failing on the first bad
// row or page.
func (s *Sheet) Collect() ([]Row, error) {
	it := s.Rows()
	var rows []Row
	for it.Next() {
		row, err := it.Row()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SheetRows iterates rows across a sheet's pages.  Page fetch and
// parse failures are structural: they stop iteration and surface from
// Err.  Per-row decode failures surface from Row and do not stop
// iteration.
type SheetRows struct {
	sheet *Sheet
	page  int
	cur   *Reader
	err   error
}

// Next advances to the next row, fetching the next page's record file
// when the current one is exhausted.
func (it *SheetRows) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.cur != nil && it.cur.Next() {
			return true
		}
		if it.page >= len(it.sheet.header.Pages) {
			return false
		}
		page := it.sheet.header.Pages[it.page]
		it.page++
		data, err := it.sheet.repo.ReadFile(it.sheet.pagePath(page))
		if err != nil {
			it.err = fmt.Errorf("sheet %q: %w", it.sheet.name, err)
			return false
		}
		it.cur, err = NewReader(it.sheet.header, data)
		if err != nil {
			it.err = fmt.Errorf("sheet %q: %w", it.sheet.name, err)
			return false
		}
	}
}

// Row decodes the row the iterator is positioned on.
func (it *SheetRows) Row() (Row, error) {
	if it.cur == nil {
		return Row{}, fmt.Errorf("%w: Row called before Next", ErrMalformedRecord)
	}
	return it.cur.Row()
}

// Err returns the structural failure that stopped iteration, if any.
func (it *SheetRows) Err() error { return it.err }
