// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

// Sponsors are the brand names accepted by the sponsor rule. Matching is
// case-insensitive.
var Sponsors = []string{"pepsi", "starbucks", "shell"}

// Months are the full month names accepted by the month rule.
// Abbreviations do not count.
var Months = []string{
	"january",
	"february",
	"march",
	"april",
	"may",
	"june",
	"july",
	"august",
	"september",
	"october",
	"november",
	"december",
}

// Affirmations are the accepted affirmation phrases. The surface also
// accepts each phrase with every space removed, but not with only some
// spaces removed.
var Affirmations = []string{"i am loved", "i am worthy", "i am enough"}

// Vowels are the grapheme clusters the bold-vowel rule covers. The surface
// counts y as a vowel.
var Vowels = []string{"a", "e", "i", "o", "u", "y", "A", "E", "I", "O", "U", "Y"}

// MoonPhase is one of the eight phases the moon rule can demand.
type MoonPhase int

const (
	NewMoon MoonPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

// String returns the phase name.
func (p MoonPhase) String() string {
	switch p {
	case NewMoon:
		return "new"
	case WaxingCrescent:
		return "waxing crescent"
	case FirstQuarter:
		return "first quarter"
	case WaxingGibbous:
		return "waxing gibbous"
	case FullMoon:
		return "full"
	case WaningGibbous:
		return "waning gibbous"
	case LastQuarter:
		return "last quarter"
	case WaningCrescent:
		return "waning crescent"
	default:
		return "unknown"
	}
}

// Emojis returns every emoji the surface accepts for the phase. The surface
// is generous: mirrored phases share a set, and the quarter sets include the
// face variants.
func (p MoonPhase) Emojis() []string {
	switch p {
	case NewMoon:
		return []string{"🌑", "🌚"}
	case WaxingCrescent, WaningCrescent:
		return []string{"🌒", "🌘"}
	case FirstQuarter, LastQuarter:
		return []string{"🌓", "🌗", "🌛", "🌜"}
	case WaxingGibbous, WaningGibbous:
		return []string{"🌔", "🌖"}
	case FullMoon:
		return []string{"🌕", "🌝"}
	default:
		return nil
	}
}
