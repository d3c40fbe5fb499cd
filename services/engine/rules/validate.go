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

	"github.com/AleutianAI/passmith/services/engine/password"
)

var yearRunPattern = regexp.MustCompile(`\d+`)

// Validate reports whether the document satisfies the rule under the given
// facts snapshot. It is pure: no I/O, no clock reads, no mutation.
func (r Rule) Validate(doc *password.Document, facts *Facts) bool {
	text := doc.String()

	switch r.Kind {
	case KindMinLength:
		return doc.Len() >= 5

	case KindNumber:
		return strings.ContainsAny(text, "0123456789")

	case KindUppercase:
		return strings.ContainsAny(text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")

	case KindSpecial:
		// Anything outside ASCII letters and digits counts, runes not
		// clusters, so every byte of an emoji qualifies.
		for _, ru := range text {
			if !isASCIIAlnum(ru) {
				return true
			}
		}
		return false

	case KindDigits:
		sum := 0
		for _, d := range password.Digits(text) {
			sum += d.Value
		}
		return sum == 25

	case KindMonth:
		return containsAnyFold(text, Months)

	case KindRoman:
		return len(password.RomanNumerals(text)) > 0

	case KindSponsors:
		return containsAnyFold(text, Sponsors)

	case KindRomanMultiply:
		numerals := password.RomanNumerals(text)
		if len(numerals) == 0 {
			return false
		}
		product := 1
		for _, n := range numerals {
			product *= n.Value
		}
		return product == 35

	case KindCaptcha:
		return r.Captcha != "" && strings.Contains(text, r.Captcha)

	case KindWordle:
		return facts.WordleAnswer != "" &&
			strings.Contains(strings.ToLower(text), facts.WordleAnswer)

	case KindPeriodicTable:
		for _, occ := range password.Elements(text) {
			if len(occ.Element.Symbol) == 2 {
				return true
			}
		}
		return false

	case KindMoonPhase:
		for _, cluster := range doc.Clusters() {
			for _, emoji := range facts.MoonEmojis {
				if cluster == emoji {
					return true
				}
			}
		}
		return false

	case KindGeo:
		country, ok := facts.Country(r.Coords)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(text), country)

	case KindLeapYear:
		for _, run := range yearRunPattern.FindAllString(text, -1) {
			year, err := strconv.ParseUint(run, 10, 64)
			if err != nil {
				continue
			}
			if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
				return true
			}
		}
		return false

	case KindChess:
		san, ok := facts.BestMove(r.FEN)
		if !ok {
			return false
		}
		return strings.Contains(text, san)

	case KindEgg:
		if facts.PaulHatched {
			return password.CountCluster(text, "🐔") > 0
		}
		if facts.EggPlaced {
			return password.CountCluster(text, "🥚") > 0
		}
		return true

	case KindAtomicNumber:
		sum := 0
		for _, occ := range password.Elements(text) {
			sum += occ.Element.Number
		}
		return sum == 200

	case KindBoldVowels:
		for i, cluster := range doc.Clusters() {
			if isVowel(cluster) && !doc.FormatAt(i).Bold {
				return false
			}
		}
		return true

	case KindFire:
		return facts.FireStarted && password.CountCluster(text, "🔥") == 0

	case KindStrength:
		return password.CountCluster(text, "🏋️‍♂️") >= 3

	case KindAffirmation:
		lower := strings.ToLower(text)
		for _, phrase := range Affirmations {
			if strings.Contains(lower, phrase) ||
				strings.Contains(lower, strings.ReplaceAll(phrase, " ", "")) {
				return true
			}
		}
		return false

	case KindHatch:
		if !facts.PaulHatched {
			return true
		}
		return facts.PaulEating || password.CountCluster(text, "🐛") > 0

	case KindYoutube:
		id, ok := password.FirstYouTubeID(text)
		if !ok {
			return false
		}
		duration, ok := facts.VideoDuration(id)
		if !ok {
			return false
		}
		return duration >= r.Seconds-1 && duration <= r.Seconds+1

	case KindSacrifice:
		if len(facts.Sacrificed) != 2 {
			return false
		}
		lower := strings.ToLower(text)
		for _, letter := range facts.Sacrificed {
			if strings.Contains(lower, letter) {
				return false
			}
		}
		return true

	case KindTwiceItalic:
		italic, bold := 0, 0
		for _, f := range doc.Formats() {
			if f.Italic {
				italic++
			}
			if f.Bold {
				bold++
			}
		}
		return italic >= 2*bold

	case KindWingdings:
		n := doc.Len()
		if n == 0 {
			return false
		}
		wingdings := 0
		for _, f := range doc.Formats() {
			if f.Family == password.Wingdings {
				wingdings++
			}
		}
		return float64(wingdings)/float64(n) >= 0.3

	case KindHex:
		hex := strings.TrimPrefix(r.Color.Hex(), "#")
		return strings.Contains(strings.ToLower(text), hex)

	case KindTimesNewRoman:
		for _, numeral := range password.RomanNumerals(text) {
			for i := numeral.Index; i < numeral.Index+numeral.Length; i++ {
				if doc.FormatAt(i).Family != password.TimesNewRoman {
					return false
				}
			}
		}
		return true

	case KindDigitFontSize:
		for _, d := range password.Digits(text) {
			if doc.FormatAt(d.Index).Size != password.FontSize(d.Value*d.Value) {
				return false
			}
		}
		return true

	case KindLetterFontSize:
		seen := make(map[byte]map[password.FontSize]bool)
		for _, letter := range password.Letters(text) {
			lower := lowerLetter(letter.Char)
			size := doc.FormatAt(letter.Index).Size
			if seen[lower] == nil {
				seen[lower] = make(map[password.FontSize]bool)
			}
			if seen[lower][size] {
				return false
			}
			seen[lower][size] = true
		}
		return true

	case KindIncludeLength:
		return strings.Contains(text, strconv.Itoa(doc.Len()))

	case KindPrimeLength:
		return IsPrime(doc.Len())

	case KindSkip:
		return true

	case KindTime:
		return strings.Contains(text, ClockString(facts.Now))

	case KindFinal:
		return true

	default:
		return false
	}
}

// IsPrime reports whether n is prime by trial division.
func IsPrime(n int) bool {
	if n <= 1 {
		return false
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func lowerLetter(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func isVowel(cluster string) bool {
	for _, v := range Vowels {
		if cluster == v {
			return true
		}
	}
	return false
}

func containsAnyFold(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
