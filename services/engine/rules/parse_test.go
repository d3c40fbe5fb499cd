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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayTexts(t *testing.T) {
	cases := []struct {
		raw  string
		want Rule
	}{
		{"Your password must be at least 5 characters.", New(KindMinLength)},
		{"Your password must include a number.", New(KindNumber)},
		{"Your password must include an uppercase letter.", New(KindUppercase)},
		{"Your password must include a special character.", New(KindSpecial)},
		{"The digits in your password must add up to 25.", New(KindDigits)},
		{"Your password must include a month of the year.", New(KindMonth)},
		{"Your password must include a roman numeral.", New(KindRoman)},
		{"Your password must include one of our sponsors.", New(KindSponsors)},
		{"The roman numerals in your password should multiply to 35.", New(KindRomanMultiply)},
		{"Your password must include this CAPTCHA: pd9bf", NewCaptcha("pd9bf")},
		{"Your password must include today's Wordle answer.", New(KindWordle)},
		{"Your password must include a two letter symbol from the periodic table.", New(KindPeriodicTable)},
		{"Your password must include the current phase of the moon as an emoji.", New(KindMoonPhase)},
		{"Your password must include the name of this country: -25.344375, 131.034401", NewGeo(Coords{Lat: -25.344375, Long: 131.034401})},
		{"Your password must include a leap year.", New(KindLeapYear)},
		{
			"Your password must include the best move in algebraic chess notation: r1b1kbnr/pppp1ppp/2n1p3/6q1/3PP3/5N2/PPP1QPPP/RNB1KB1R b KQkq - 0 1",
			NewChess("r1b1kbnr/pppp1ppp/2n1p3/6q1/3PP3/5N2/PPP1QPPP/RNB1KB1R b KQkq - 0 1"),
		},
		{"🥚 This my chicken Paul. He hasn't hatched yet. Please put him in your password and keep him safe.", New(KindEgg)},
		{"The elements in your password must have atomic numbers that add up to 200.", New(KindAtomicNumber)},
		{"All the vowels in your password must be bolded.", New(KindBoldVowels)},
		{"Oh no! Your password is on fire 🔥. Quick, put it out!", New(KindFire)},
		{"Your password is not strong enough 🏋️‍♂️.", New(KindStrength)},
		{"Your password must contain one of the following affirmations: I am loved, I am worthy, I am enough.", New(KindAffirmation)},
		{"Paul has hatched 🐔! Please don't forget to feed him. He eats three 🐛 every minute.", New(KindHatch)},
		{"Your password must include the URL of a 13 minute 37 second YouTube video.", NewYoutube(817)},
		{"A sacrifice must be made. Pick 2 letters that you will no longer be able to use.", New(KindSacrifice)},
		{"Your password must contain twice as many italic characters as bold.", New(KindTwiceItalic)},
		{"At least 30% of your password must be in the Wingdings font.", New(KindWingdings)},
		{"Your password must include this color in hex: #2f1e40", NewHex(Color{R: 0x2f, G: 0x1e, B: 0x40})},
		{"All roman numerals must be in Times New Roman.", New(KindTimesNewRoman)},
		{"The font size of every digit must be equal to its square.", New(KindDigitFontSize)},
		{"Every instance of the same letter must have a different font size.", New(KindLetterFontSize)},
		{"Your password must include the length of your password.", New(KindIncludeLength)},
		{"The length of your password must be a prime number.", New(KindPrimeLength)},
		{"Uhhh let's skip this one.", New(KindSkip)},
		{"Your password must include the current time.", New(KindTime)},
		{"Is this your final password?", New(KindFinal)},
	}
	for _, tc := range cases {
		got, err := Parse(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParseSlugs(t *testing.T) {
	parameterized := map[Kind]bool{
		KindCaptcha: true,
		KindGeo:     true,
		KindChess:   true,
		KindYoutube: true,
		KindHex:     true,
	}
	for _, k := range Catalogue() {
		if parameterized[k] {
			continue
		}
		got, err := Parse(k.Slug())
		require.NoError(t, err, k.Slug())
		assert.Equal(t, New(k), got, k.Slug())
	}
}

func TestParseSlugPayloads(t *testing.T) {
	cases := []struct {
		raw  string
		want Rule
	}{
		{"captcha: d22bau", NewCaptcha("d22bau")},
		{"geo: 48.8584, 2.2945", NewGeo(Coords{Lat: 48.8584, Long: 2.2945})},
		{
			"chess: r1b1kbnr/pppp1ppp/2n1p3/6q1/3PP3/5N2/PPP1QPPP/RNB1KB1R b KQkq - 0 1",
			NewChess("r1b1kbnr/pppp1ppp/2n1p3/6q1/3PP3/5N2/PPP1QPPP/RNB1KB1R b KQkq - 0 1"),
		},
		{"youtube: 754", NewYoutube(754)},
		{"youtube: 12:34", NewYoutube(754)},
		{"hex: #f76bf6", NewHex(Color{R: 247, G: 107, B: 246})},
		{"sacrafice: t, z", NewSacrifice("tz")},
	}
	for _, tc := range cases {
		got, err := Parse(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParseCaseAndWhitespace(t *testing.T) {
	got, err := Parse("YOUR PASSWORD MUST INCLUDE A NUMBER")
	require.NoError(t, err)
	assert.Equal(t, KindNumber, got.Kind)

	got, err = Parse("The digits in your\n  password must add up to 25")
	require.NoError(t, err)
	assert.Equal(t, KindDigits, got.Kind)

	// Slug heads fold, captcha tokens do not.
	got, err = Parse("Captcha: XK9P2")
	require.NoError(t, err)
	assert.Equal(t, KindCaptcha, got.Kind)
	assert.Equal(t, "XK9P2", got.Captcha)
}

func TestParseSacrificeLetters(t *testing.T) {
	// Before the surface acknowledges a choice the rule shows no letters.
	got, err := Parse("A sacrifice must be made. Pick 2 letters that you will no longer be able to use.")
	require.NoError(t, err)
	assert.Equal(t, KindSacrifice, got.Kind)
	assert.Empty(t, got.Letters)

	// After acknowledgement the displayed text carries them.
	got, err = Parse("A sacrifice must be made. Pick 2 letters that you will no longer be able to use. Sacrificed: t, z")
	require.NoError(t, err)
	assert.Equal(t, "tz", got.Letters)

	got, err = Parse("sacrafice")
	require.NoError(t, err)
	assert.Empty(t, got.Letters)
}

func TestParseMissingParameters(t *testing.T) {
	cases := []struct {
		raw    string
		reason string
	}{
		{"captcha", "captcha token missing"},
		{"Your password must include this CAPTCHA.", "captcha token missing"},
		{"geo", "coordinates missing"},
		{"geo: somewhere nice", "coordinates missing"},
		{"chess", "chess position missing"},
		{"chess: e4 e5", "chess position missing"},
		{"youtube", "video length missing"},
		{"youtube: 0:00", "video length missing"},
		{"hex", "hex color missing"},
		{"hex: f76bf6", "hex color missing"},
	}
	for _, tc := range cases {
		_, err := Parse(tc.raw)
		require.Error(t, err, tc.raw)
		assert.ErrorIs(t, err, ErrMalformedParameters, tc.raw)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr, tc.raw)
		assert.Equal(t, tc.reason, parseErr.Reason, tc.raw)
	}
}

func TestParseUnrecognized(t *testing.T) {
	_, err := Parse("Please rotate your password by 90 degrees.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedRule)
	assert.NotErrorIs(t, err, ErrMalformedParameters)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Raw, "rotate your password")

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnrecognizedRule)
	_, err = Parse("   \n\t")
	assert.ErrorIs(t, err, ErrUnrecognizedRule)
}

func TestParseErrorTruncatesRaw(t *testing.T) {
	long := strings.Repeat("z", 200)
	_, err := Parse(long)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.True(t, strings.HasSuffix(parseErr.Raw, "..."))
	assert.Less(t, len(parseErr.Raw), 100)
}
