// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package exd

import "fmt"

// Locale identifies a language variant of a sheet's record files.
type Locale uint16

const (
	LocaleNone Locale = iota
	LocaleJapanese
	LocaleEnglish
	LocaleGerman
	LocaleFrench
	LocaleChineseSimplified
	LocaleChineseTraditional
	LocaleKorean
)

// Suffix returns the record-file name suffix for the locale, empty for
// the locale-agnostic variant.
func (l Locale) Suffix() string {
	switch l {
	case LocaleNone:
		return ""
	case LocaleJapanese:
		return "_ja"
	case LocaleEnglish:
		return "_en"
	case LocaleGerman:
		return "_de"
	case LocaleFrench:
		return "_fr"
	case LocaleChineseSimplified:
		return "_chs"
	case LocaleChineseTraditional:
		return "_cht"
	case LocaleKorean:
		return "_ko"
	default:
		return fmt.Sprintf("_x%d", uint16(l))
	}
}

func (l Locale) String() string {
	if l == LocaleNone {
		return "none"
	}
	return l.Suffix()[1:]
}

// ParseLocale maps a locale tag like "en" or "ja" (with or without the
// leading underscore) to its Locale.
func ParseLocale(tag string) (Locale, error) {
	if len(tag) > 0 && tag[0] == '_' {
		tag = tag[1:]
	}
	for l := LocaleJapanese; l <= LocaleKorean; l++ {
		if l.Suffix()[1:] == tag {
			return l, nil
		}
	}
	if tag == "" || tag == "none" {
		return LocaleNone, nil
	}
	return LocaleNone, fmt.Errorf("exd: unknown locale tag %q", tag)
}
