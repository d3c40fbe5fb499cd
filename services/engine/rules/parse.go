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

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// Feed Entry Parsing
// =============================================================================

// textPhrases maps distinguishing phrases from displayed rule text to
// families. Walked in order, first hit wins; every phrase in an entry must
// be present. The specific entries sit above the general ones so "times
// new roman" never reads as a bare numeral rule and "atomic numbers that
// add up" never reads as the digit sum rule.
var textPhrases = []struct {
	kind    Kind
	phrases []string
}{
	{KindWingdings, []string{"wingdings"}},
	{KindTimesNewRoman, []string{"times new roman"}},
	{KindRomanMultiply, []string{"multiply"}},
	{KindRoman, []string{"roman numeral"}},
	{KindEgg, []string{"chicken paul"}},
	{KindHatch, []string{"feed him"}},
	{KindFire, []string{"on fire"}},
	{KindStrength, []string{"strong enough"}},
	{KindSacrifice, []string{"sacrifice"}},
	{KindSacrifice, []string{"sacrafice"}},
	{KindTwiceItalic, []string{"twice as many italic"}},
	{KindBoldVowels, []string{"vowel", "bold"}},
	{KindCaptcha, []string{"captcha"}},
	{KindWordle, []string{"wordle"}},
	{KindSponsors, []string{"sponsor"}},
	{KindPeriodicTable, []string{"periodic table"}},
	{KindMoonPhase, []string{"phase of the moon"}},
	{KindGeo, []string{"name of this country"}},
	{KindLeapYear, []string{"leap year"}},
	{KindChess, []string{"chess notation"}},
	{KindAtomicNumber, []string{"atomic number"}},
	{KindAffirmation, []string{"affirmation"}},
	{KindYoutube, []string{"youtube video"}},
	{KindHex, []string{"color in hex"}},
	{KindDigitFontSize, []string{"font size", "digit"}},
	{KindLetterFontSize, []string{"same letter"}},
	{KindIncludeLength, []string{"include the length"}},
	{KindPrimeLength, []string{"prime"}},
	{KindSkip, []string{"skip"}},
	{KindTime, []string{"current time"}},
	{KindFinal, []string{"final password"}},
	{KindMonth, []string{"month"}},
	{KindDigits, []string{"digits", "add up"}},
	{KindUppercase, []string{"uppercase"}},
	{KindSpecial, []string{"special character"}},
	{KindNumber, []string{"include a number"}},
	{KindMinLength, []string{"at least", "characters"}},
}

// Parameter extraction patterns. Each runs over the whole feed entry, so
// the same pattern serves the slug shape ("captcha: d22bau") and the
// displayed text ("Your password must include this CAPTCHA: d22bau").
var (
	captchaTokenPattern = regexp.MustCompile(`(?i)captcha\W*([0-9a-z]+)`)
	coordsPattern       = regexp.MustCompile(`(-?\d+\.\d+)[,\s]+(-?\d+\.\d+)`)
	fenPattern          = regexp.MustCompile(`[rnbqkpRNBQKP1-8]+(?:/[rnbqkpRNBQKP1-8]+){7} [wb] (?:-|[KQkq]+) (?:-|[a-h][36])(?: \d+ \d+)?`)
	minSecPattern       = regexp.MustCompile(`(?i)(\d+)\s*min(?:ute)?s?(?:\s*(?:and\s+)?(\d+)\s*sec(?:ond)?s?)?`)
	clockPattern        = regexp.MustCompile(`\b(?:(\d+):)?(\d{1,2}):([0-5]\d)\b`)
	bareNumberPattern   = regexp.MustCompile(`\b(\d+)\W*$`)
	hexColorPattern     = regexp.MustCompile(`#([0-9a-fA-F]{6})\b`)
	sacrificedPattern   = regexp.MustCompile(`(?i:sacr[ai]fice[ds]?)\W+([a-z])\b\W+([a-z])\b`)
)

// Parse resolves one feed entry to a rule.
//
// Two shapes are accepted: the kebab-case family slug the surface DOM
// uses, parameters trailing ("captcha: d22bau"), and the English rule
// text as displayed ("The digits in your password must add up to 25").
// Matching is case-insensitive and tolerant of minor punctuation drift.
// Parameterized families must carry their parameters inside the entry in
// either shape; the sacrifice letters are optional because the surface
// only shows them once a choice has been acknowledged.
func Parse(raw string) (Rule, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Rule{}, &ParseError{Raw: truncate(raw), Reason: "empty entry", err: ErrUnrecognizedRule}
	}
	if kind, ok := slugKind(trimmed); ok {
		return withParams(kind, trimmed)
	}
	norm := normalizeEntry(trimmed)
	for _, entry := range textPhrases {
		if containsAll(norm, entry.phrases) {
			return withParams(entry.kind, trimmed)
		}
	}
	return Rule{}, &ParseError{Raw: truncate(trimmed), Reason: "no known rule family matches", err: ErrUnrecognizedRule}
}

// slugKind resolves the entry's first token as a family slug.
func slugKind(s string) (Kind, bool) {
	head := s
	if i := strings.IndexAny(s, ": \t"); i >= 0 {
		head = s[:i]
	}
	kind, err := KindFromSlug(strings.ToLower(head))
	return kind, err == nil
}

// withParams fills in the parameters the family requires from the entry.
func withParams(kind Kind, src string) (Rule, error) {
	r := Rule{Kind: kind}
	switch kind {
	case KindCaptcha:
		m := captchaTokenPattern.FindStringSubmatch(src)
		if m == nil {
			return Rule{}, malformed(src, "captcha token missing")
		}
		r.Captcha = m[1]

	case KindGeo:
		m := coordsPattern.FindStringSubmatch(src)
		if m == nil {
			return Rule{}, malformed(src, "coordinates missing")
		}
		lat, errLat := strconv.ParseFloat(m[1], 64)
		long, errLong := strconv.ParseFloat(m[2], 64)
		if errLat != nil || errLong != nil {
			return Rule{}, malformed(src, "coordinates unparseable")
		}
		r.Coords = Coords{Lat: lat, Long: long}

	case KindChess:
		fen := fenPattern.FindString(src)
		if fen == "" {
			return Rule{}, malformed(src, "chess position missing")
		}
		r.FEN = fen

	case KindYoutube:
		seconds, ok := extractSeconds(src)
		if !ok || seconds <= 0 {
			return Rule{}, malformed(src, "video length missing")
		}
		r.Seconds = seconds

	case KindHex:
		m := hexColorPattern.FindStringSubmatch(src)
		if m == nil {
			return Rule{}, malformed(src, "hex color missing")
		}
		color, err := ParseHexColor(m[1])
		if err != nil {
			return Rule{}, malformed(src, "hex color unparseable")
		}
		r.Color = color

	case KindSacrifice:
		if m := sacrificedPattern.FindStringSubmatch(src); m != nil {
			r.Letters = m[1] + m[2]
		}
	}
	return r, nil
}

// extractSeconds reads a duration as "13 minute 37 second" prose, a
// "13:37" clock, or a bare trailing number of seconds, in that order.
func extractSeconds(src string) (int, bool) {
	if m := minSecPattern.FindStringSubmatch(src); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		seconds := 0
		if m[2] != "" {
			if seconds, err = strconv.Atoi(m[2]); err != nil {
				return 0, false
			}
		}
		return mins*60 + seconds, true
	}
	if m := clockPattern.FindStringSubmatch(src); m != nil {
		total := 0
		if m[1] != "" {
			hours, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, false
			}
			total += hours * 3600
		}
		mins, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		return total + mins*60 + seconds, true
	}
	if m := bareNumberPattern.FindStringSubmatch(src); m != nil {
		seconds, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return seconds, true
	}
	return 0, false
}

func normalizeEntry(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsAll(s string, phrases []string) bool {
	for _, p := range phrases {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func malformed(src, reason string) error {
	return &ParseError{Raw: truncate(src), Reason: reason, err: ErrMalformedParameters}
}

// rawLogLimit bounds how much of a feed entry error messages carry.
const rawLogLimit = 80

func truncate(s string) string {
	if len(s) <= rawLogLimit {
		return s
	}
	cut := rawLogLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
