// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules holds the constraint catalogue of the password surface: the
// thirty-six rule families, the parameters some of them carry, and pure
// validation of a password document against a rule given a snapshot of
// external facts.
//
// Validation never performs I/O. Anything a rule needs from the outside
// world (the wordle answer, the moon phase, a video's duration) is resolved
// ahead of time into a Facts snapshot, so the same document and snapshot
// always validate the same way.
package rules

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Rule Families
// =============================================================================

// Kind identifies a rule family. The zero value is KindUnknown; the
// remaining kinds are declared in surface order, so int(k) is the rule's
// number.
type Kind int

const (
	KindUnknown Kind = iota
	KindMinLength
	KindNumber
	KindUppercase
	KindSpecial
	KindDigits
	KindMonth
	KindRoman
	KindSponsors
	KindRomanMultiply
	KindCaptcha
	KindWordle
	KindPeriodicTable
	KindMoonPhase
	KindGeo
	KindLeapYear
	KindChess
	KindEgg
	KindAtomicNumber
	KindBoldVowels
	KindFire
	KindStrength
	KindAffirmation
	KindHatch
	KindYoutube
	KindSacrifice
	KindTwiceItalic
	KindWingdings
	KindHex
	KindTimesNewRoman
	KindDigitFontSize
	KindLetterFontSize
	KindIncludeLength
	KindPrimeLength
	KindSkip
	KindTime
	KindFinal

	kindCount
)

// kindSlugs are the wire names of the families, indexed by Kind. The
// sacrifice slug is misspelled on the surface itself, so the misspelling is
// part of the protocol.
var kindSlugs = [kindCount]string{
	KindUnknown:        "unknown",
	KindMinLength:      "min-length",
	KindNumber:         "number",
	KindUppercase:      "uppercase",
	KindSpecial:        "special",
	KindDigits:         "digits",
	KindMonth:          "month",
	KindRoman:          "roman",
	KindSponsors:       "sponsors",
	KindRomanMultiply:  "roman-multiply",
	KindCaptcha:        "captcha",
	KindWordle:         "wordle",
	KindPeriodicTable:  "periodic-table",
	KindMoonPhase:      "moon-phase",
	KindGeo:            "geo",
	KindLeapYear:       "leap-year",
	KindChess:          "chess",
	KindEgg:            "egg",
	KindAtomicNumber:   "atomic-number",
	KindBoldVowels:     "bold-vowels",
	KindFire:           "fire",
	KindStrength:       "strength",
	KindAffirmation:    "affirmation",
	KindHatch:          "hatch",
	KindYoutube:        "youtube",
	KindSacrifice:      "sacrafice",
	KindTwiceItalic:    "twice-italic",
	KindWingdings:      "wingdings",
	KindHex:            "hex",
	KindTimesNewRoman:  "times-new-roman",
	KindDigitFontSize:  "digit-font-size",
	KindLetterFontSize: "letter-font-size",
	KindIncludeLength:  "include-length",
	KindPrimeLength:    "prime-length",
	KindSkip:           "skip",
	KindTime:           "time",
	KindFinal:          "final",
}

// Slug returns the wire name of the family.
func (k Kind) Slug() string {
	if k <= KindUnknown || k >= kindCount {
		return kindSlugs[KindUnknown]
	}
	return kindSlugs[k]
}

// String returns the wire name of the family.
func (k Kind) String() string { return k.Slug() }

// Number returns the family's one-based position on the surface, or 0 for
// KindUnknown.
func (k Kind) Number() int {
	if k <= KindUnknown || k >= kindCount {
		return 0
	}
	return int(k)
}

// KindFromSlug resolves a wire name to its family.
func KindFromSlug(slug string) (Kind, error) {
	for k := KindMinLength; k < kindCount; k++ {
		if kindSlugs[k] == slug {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedRule, slug)
}

// Catalogue returns all thirty-six families in surface order.
func Catalogue() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindMinLength; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// =============================================================================
// Rule Parameters
// =============================================================================

// Coords is a latitude/longitude pair carried by the geo rule. It is
// comparable so it can key a facts map.
type Coords struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// String renders the pair for logs.
func (c Coords) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Long)
}

// Color is the RGB color carried by the hex rule.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// DigitSum returns the sum of the decimal digits in the color's hex form.
// Keeping it small matters because every digit in the password counts
// against the digit-sum rule.
func (c Color) DigitSum() int {
	sum := 0
	for _, r := range c.Hex() {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum
}

// =============================================================================
// Rule
// =============================================================================

// Rule is one constraint from the surface: a family plus the instance
// parameters five of the families carry.
type Rule struct {
	// Kind is the rule family.
	Kind Kind
	// Captcha is the token for KindCaptcha. Matching is case-sensitive.
	Captcha string
	// Coords is the location for KindGeo.
	Coords Coords
	// FEN is the chess position for KindChess.
	FEN string
	// Seconds is the demanded video length for KindYoutube.
	Seconds int
	// Color is the demanded color for KindHex.
	Color Color
	// Letters holds the two sacrificed letters for KindSacrifice once
	// the surface has acknowledged a choice, concatenated lowercase.
	// Empty until then.
	Letters string
}

// New returns a parameterless rule of the given family.
func New(kind Kind) Rule { return Rule{Kind: kind} }

// NewCaptcha returns the captcha rule for the given token.
func NewCaptcha(token string) Rule { return Rule{Kind: KindCaptcha, Captcha: token} }

// NewGeo returns the geo rule for the given location.
func NewGeo(coords Coords) Rule { return Rule{Kind: KindGeo, Coords: coords} }

// NewChess returns the chess rule for the given position.
func NewChess(fen string) Rule { return Rule{Kind: KindChess, FEN: fen} }

// NewYoutube returns the video rule for the given length in seconds.
func NewYoutube(seconds int) Rule { return Rule{Kind: KindYoutube, Seconds: seconds} }

// NewHex returns the hex color rule for the given color.
func NewHex(color Color) Rule { return Rule{Kind: KindHex, Color: color} }

// NewSacrifice returns the sacrifice rule carrying acknowledged letters,
// or the bare rule when letters is empty.
func NewSacrifice(letters string) Rule { return Rule{Kind: KindSacrifice, Letters: letters} }

// Number returns the rule's one-based position on the surface.
func (r Rule) Number() int { return r.Kind.Number() }

// String renders the rule for logs, parameters included.
func (r Rule) String() string {
	switch r.Kind {
	case KindCaptcha:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Captcha)
	case KindGeo:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Coords)
	case KindChess:
		return fmt.Sprintf("%s(%s)", r.Kind, r.FEN)
	case KindYoutube:
		return fmt.Sprintf("%s(%ds)", r.Kind, r.Seconds)
	case KindHex:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Color.Hex())
	case KindSacrifice:
		if r.Letters != "" {
			return fmt.Sprintf("%s(%s)", r.Kind, r.Letters)
		}
		return r.Kind.String()
	default:
		return r.Kind.String()
	}
}

// checkParams verifies the parameters required by the rule's family are
// present.
func (r Rule) checkParams() error {
	switch r.Kind {
	case KindCaptcha:
		if r.Captcha == "" {
			return fmt.Errorf("%w: captcha token missing", ErrMalformedParameters)
		}
	case KindChess:
		if r.FEN == "" {
			return fmt.Errorf("%w: chess position missing", ErrMalformedParameters)
		}
	case KindYoutube:
		if r.Seconds <= 0 {
			return fmt.Errorf("%w: video length %d", ErrMalformedParameters, r.Seconds)
		}
	case KindSacrifice:
		if r.Letters != "" && len(r.Letters) != 2 {
			return fmt.Errorf("%w: sacrificed letters %q", ErrMalformedParameters, r.Letters)
		}
	}
	return nil
}

// =============================================================================
// Wire Codec
// =============================================================================

// ruleJSON is the wire shape of a rule. Parameter fields are omitted for the
// families that do not carry them.
type ruleJSON struct {
	Rule    string   `json:"rule"`
	Number  int      `json:"number"`
	Captcha string   `json:"captcha,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Long    *float64 `json:"long,omitempty"`
	FEN     string   `json:"fen,omitempty"`
	Seconds int      `json:"seconds,omitempty"`
	Color   string   `json:"color,omitempty"`
	Letters string   `json:"letters,omitempty"`
}

// MarshalJSON renders the rule with its slug and any parameters.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Rule: r.Kind.Slug(), Number: r.Number()}
	switch r.Kind {
	case KindCaptcha:
		out.Captcha = r.Captcha
	case KindGeo:
		lat, long := r.Coords.Lat, r.Coords.Long
		out.Lat, out.Long = &lat, &long
	case KindChess:
		out.FEN = r.FEN
	case KindYoutube:
		out.Seconds = r.Seconds
	case KindHex:
		out.Color = r.Color.Hex()
	case KindSacrifice:
		out.Letters = r.Letters
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire form and validates required parameters.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedParameters, err)
	}
	kind, err := KindFromSlug(in.Rule)
	if err != nil {
		return err
	}
	parsed := Rule{Kind: kind}
	switch kind {
	case KindCaptcha:
		parsed.Captcha = in.Captcha
	case KindGeo:
		if in.Lat == nil || in.Long == nil {
			return fmt.Errorf("%w: geo coordinates missing", ErrMalformedParameters)
		}
		parsed.Coords = Coords{Lat: *in.Lat, Long: *in.Long}
	case KindChess:
		parsed.FEN = in.FEN
	case KindYoutube:
		parsed.Seconds = in.Seconds
	case KindHex:
		color, err := ParseHexColor(in.Color)
		if err != nil {
			return err
		}
		parsed.Color = color
	case KindSacrifice:
		parsed.Letters = in.Letters
	}
	if err := parsed.checkParams(); err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseHexColor parses "#rrggbb" or "rrggbb", case-insensitively.
func ParseHexColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: hex color %q", ErrMalformedParameters, s)
	}
	var c Color
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("%w: hex color %q", ErrMalformedParameters, s)
	}
	return c, nil
}
