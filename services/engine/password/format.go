// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package password

import "fmt"

// FontSize is a pixel size from the surface's fixed menu. The value is the
// size in px, so the digit-square constraint (font size of digit d equals
// d*d) is a direct comparison.
type FontSize int

// The surface offers exactly these sizes: the ten digit squares plus the
// regular menu steps 12, 28, 32 and 42.
const (
	Px0  FontSize = 0
	Px1  FontSize = 1
	Px4  FontSize = 4
	Px9  FontSize = 9
	Px12 FontSize = 12
	Px16 FontSize = 16
	Px25 FontSize = 25
	Px28 FontSize = 28
	Px32 FontSize = 32
	Px36 FontSize = 36
	Px42 FontSize = 42
	Px49 FontSize = 49
	Px64 FontSize = 64
	Px81 FontSize = 81

	// DefaultFontSize is what the surface renders before any formatting.
	DefaultFontSize = Px28
)

// FontSizes lists every supported size in menu order: the default 28 first,
// then the larger steps, then wrapping to the small sizes. Solvers iterate
// this slice, never a map, so candidate order is deterministic, and the menu
// order means the first size handed to any letter is the default.
var FontSizes = []FontSize{
	Px28, Px32, Px36, Px42, Px49, Px64, Px81, Px0, Px1, Px4, Px9, Px12, Px16, Px25,
}

// MenuIndex returns the position of s in the size menu, or -1 when s is not
// a supported size.
func (s FontSize) MenuIndex() int {
	for i, v := range FontSizes {
		if s == v {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the supported sizes.
func (s FontSize) Valid() bool {
	for _, v := range FontSizes {
		if s == v {
			return true
		}
	}
	return false
}

// FontSizeFromSquare returns the size equal to digit*digit.
// digit must be 0 through 9.
func FontSizeFromSquare(digit int) (FontSize, error) {
	if digit < 0 || digit > 9 {
		return DefaultFontSize, fmt.Errorf("%w: square of digit %d", ErrUnknownFontSize, digit)
	}
	return FontSize(digit * digit), nil
}

// FontFamily is one of the surface's font choices.
type FontFamily int

const (
	// Monospace is the surface default.
	Monospace FontFamily = iota
	// ComicSans is selectable but no rule demands it.
	ComicSans
	// Wingdings satisfies the thirty-percent rule.
	Wingdings
	// TimesNewRoman is demanded for roman numerals.
	TimesNewRoman
)

// String returns the menu label of the family.
func (f FontFamily) String() string {
	switch f {
	case Monospace:
		return "Monospace"
	case ComicSans:
		return "Comic Sans"
	case Wingdings:
		return "Wingdings"
	case TimesNewRoman:
		return "Times New Roman"
	default:
		return fmt.Sprintf("FontFamily(%d)", int(f))
	}
}

// Format holds the formatting of one grapheme cluster.
type Format struct {
	// Bold weight.
	Bold bool
	// Italic slant.
	Italic bool
	// Size in px.
	Size FontSize
	// Family of the glyph.
	Family FontFamily
}

// DefaultFormat is what every grapheme starts with.
func DefaultFormat() Format {
	return Format{Size: DefaultFontSize, Family: Monospace}
}

// String renders a compact debug form, e.g. "B-i-28-Monospace".
func (f Format) String() string {
	b, i := "b", "i"
	if f.Bold {
		b = "B"
	}
	if f.Italic {
		i = "I"
	}
	return fmt.Sprintf("%s-%s-%d-%s", b, i, int(f.Size), f.Family)
}

// FormatField selects which property a format change sets.
type FormatField int

const (
	// FieldBold turns bold on. The surface has no bold-off action.
	FieldBold FormatField = iota
	// FieldItalic turns italic on. The surface has no italic-off action.
	FieldItalic
	// FieldSize sets the font size.
	FieldSize
	// FieldFamily sets the font family.
	FieldFamily
)

// FormatChange is one formatting mutation of a single grapheme.
type FormatChange struct {
	// Field selects the property.
	Field FormatField
	// Size applies when Field == FieldSize.
	Size FontSize
	// Family applies when Field == FieldFamily.
	Family FontFamily
}

// apply mutates fmt in place.
func (c FormatChange) apply(f *Format) {
	switch c.Field {
	case FieldBold:
		f.Bold = true
	case FieldItalic:
		f.Italic = true
	case FieldSize:
		f.Size = c.Size
	case FieldFamily:
		f.Family = c.Family
	}
}
