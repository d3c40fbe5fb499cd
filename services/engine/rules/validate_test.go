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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/services/engine/password"
)

func doc(text string) *password.Document { return password.New(text) }

func formatted(t *testing.T, text string, changes ...password.Change) *password.Document {
	t.Helper()
	d := password.New(text)
	for _, ch := range changes {
		require.NoError(t, d.Queue(ch))
	}
	require.NoError(t, d.Commit())
	return d
}

// -----------------------------------------------------------------------------
// Text Rules
// -----------------------------------------------------------------------------

func TestValidate_MinLength(t *testing.T) {
	r := New(KindMinLength)
	f := &Facts{}

	assert.True(t, r.Validate(doc("12345"), f))
	assert.True(t, r.Validate(doc("123456789"), f))

	// Two clusters despite eight bytes.
	assert.False(t, r.Validate(doc("😀😀"), f))
	// One cluster despite five codepoints.
	assert.False(t, r.Validate(doc("🏋️‍♂️"), f))
}

func TestValidate_Number(t *testing.T) {
	r := New(KindNumber)
	f := &Facts{}

	for i := 0; i <= 9; i++ {
		assert.True(t, r.Validate(doc(fmt.Sprintf("%d", i)), f))
	}
	assert.False(t, r.Validate(doc("one"), f))
}

func TestValidate_Uppercase(t *testing.T) {
	r := New(KindUppercase)
	f := &Facts{}

	assert.True(t, r.Validate(doc("Hello"), f))
	assert.False(t, r.Validate(doc("hello"), f))
}

func TestValidate_Special(t *testing.T) {
	r := New(KindSpecial)
	f := &Facts{}

	assert.True(t, r.Validate(doc("$"), f))
	// Anything non-ascii-alphanumeric counts.
	assert.True(t, r.Validate(doc("😀"), f))
	assert.False(t, r.Validate(doc("hello123"), f))
}

func TestValidate_Digits(t *testing.T) {
	r := New(KindDigits)
	f := &Facts{}

	assert.True(t, r.Validate(doc("55555"), f))

	// Each digit is considered individually.
	assert.False(t, r.Validate(doc("25"), f))
	assert.False(t, r.Validate(doc("hello"), f))
}

func TestValidate_Month(t *testing.T) {
	r := New(KindMonth)
	f := &Facts{}

	for _, month := range Months {
		assert.True(t, r.Validate(doc(month), f), month)
	}
	assert.True(t, r.Validate(doc("May"), f))
	assert.True(t, r.Validate(doc("aUgUst"), f))

	// Abbreviations not accepted.
	assert.False(t, r.Validate(doc("dec"), f))
}

func TestValidate_Roman(t *testing.T) {
	r := New(KindRoman)
	f := &Facts{}

	assert.True(t, r.Validate(doc("V"), f))
	assert.True(t, r.Validate(doc("M"), f))
	assert.True(t, r.Validate(doc("CII"), f))

	// Case sensitive.
	assert.False(t, r.Validate(doc("i"), f))
	assert.False(t, r.Validate(doc("hello"), f))
}

func TestValidate_Sponsors(t *testing.T) {
	r := New(KindSponsors)
	f := &Facts{}

	assert.True(t, r.Validate(doc("pepsicola"), f))
	assert.True(t, r.Validate(doc("starbucks"), f))
	assert.True(t, r.Validate(doc("shell"), f))

	assert.False(t, r.Validate(doc("coke"), f))
	assert.False(t, r.Validate(doc("exxon"), f))
}

func TestValidate_RomanMultiply(t *testing.T) {
	r := New(KindRomanMultiply)
	f := &Facts{}

	assert.True(t, r.Validate(doc("VII V"), f))
	assert.True(t, r.Validate(doc("XXXV"), f))
	// Ones are free factors.
	assert.True(t, r.Validate(doc("VII V I"), f))
	assert.True(t, r.Validate(doc("VII V I I"), f))

	assert.False(t, r.Validate(doc("xxxv"), f))
	assert.False(t, r.Validate(doc("VII V C"), f))
	assert.False(t, r.Validate(doc("no numerals"), f))
}

func TestValidate_Captcha(t *testing.T) {
	r := NewCaptcha("d22bd")
	f := &Facts{}

	assert.True(t, r.Validate(doc("d22bd"), f))
	assert.True(t, r.Validate(doc("food22bdbar"), f))

	// Case sensitive.
	assert.False(t, r.Validate(doc("D22bd"), f))
	assert.False(t, r.Validate(doc("hello"), f))
}

func TestValidate_Affirmation(t *testing.T) {
	r := New(KindAffirmation)
	f := &Facts{}

	assert.True(t, r.Validate(doc("i am loved123"), f))
	// Missing whitespace is allowed...
	assert.True(t, r.Validate(doc("iamloved"), f))
	assert.True(t, r.Validate(doc("i am worthy456"), f))
	assert.True(t, r.Validate(doc("789i am enough"), f))

	assert.False(t, r.Validate(doc("i am not loved"), f))
	// ...but only if it's all missing.
	assert.False(t, r.Validate(doc("iam loved"), f))
	assert.False(t, r.Validate(doc("i amloved"), f))
	assert.False(t, r.Validate(doc("i am not enough"), f))
}

// -----------------------------------------------------------------------------
// Scanner Rules
// -----------------------------------------------------------------------------

func TestValidate_PeriodicTable(t *testing.T) {
	r := New(KindPeriodicTable)
	f := &Facts{}

	assert.True(t, r.Validate(doc("Au"), f))
	// "He" counts as helium, not hydrogen with an unrelated "e".
	assert.True(t, r.Validate(doc("He"), f))

	// One-letter symbols don't satisfy this rule.
	assert.False(t, r.Validate(doc("I"), f))
	// Case sensitive.
	assert.False(t, r.Validate(doc("ag"), f))
}

func TestValidate_LeapYear(t *testing.T) {
	r := New(KindLeapYear)
	f := &Facts{}

	assert.True(t, r.Validate(doc("2000"), f))
	assert.True(t, r.Validate(doc("0"), f))

	// 1900 is divisible by four, but 100 and not 400.
	assert.False(t, r.Validate(doc("1900"), f))
	assert.False(t, r.Validate(doc("1990"), f))
}

func TestValidate_AtomicNumber(t *testing.T) {
	r := New(KindAtomicNumber)
	f := &Facts{}

	// Nd(60) + Zr(40) + Fm(100) = 200
	assert.True(t, r.Validate(doc("Nd Zr Fm"), f))
	assert.True(t, r.Validate(doc("FmFm"), f))

	assert.False(t, r.Validate(doc("He"), f))
	assert.False(t, r.Validate(doc("fmfm"), f))
}

func TestValidate_IncludeLength(t *testing.T) {
	r := New(KindIncludeLength)
	f := &Facts{}

	assert.True(t, r.Validate(doc("12345"), f))
	assert.True(t, r.Validate(doc("14 hello there"), f))

	assert.False(t, r.Validate(doc("12346"), f))
}

func TestValidate_PrimeLength(t *testing.T) {
	r := New(KindPrimeLength)
	f := &Facts{}

	assert.True(t, r.Validate(doc("12"), f))
	assert.True(t, r.Validate(doc("1234567"), f))

	assert.False(t, r.Validate(doc(""), f))
	assert.False(t, r.Validate(doc("1"), f))
	assert.False(t, r.Validate(doc("123456789"), f))
}

// -----------------------------------------------------------------------------
// Fact-Backed Rules
// -----------------------------------------------------------------------------

func TestValidate_Wordle(t *testing.T) {
	r := New(KindWordle)
	f := &Facts{WordleAnswer: "enter"}

	assert.True(t, r.Validate(doc("enter"), f))
	assert.True(t, r.Validate(doc("123enterfoo"), f))
	// Case insensitive.
	assert.True(t, r.Validate(doc("enTeR"), f))

	assert.False(t, r.Validate(doc(""), f))
	assert.False(t, r.Validate(doc("hello"), f))

	// An unresolved answer never passes.
	assert.False(t, r.Validate(doc("anything"), &Facts{}))
}

func TestValidate_MoonPhase(t *testing.T) {
	r := New(KindMoonPhase)
	full := &Facts{MoonEmojis: FullMoon.Emojis()}

	assert.True(t, r.Validate(doc("🌕"), full))
	assert.True(t, r.Validate(doc("🌝"), full))
	assert.False(t, r.Validate(doc("🌑🌗"), full))

	crescent := &Facts{MoonEmojis: WaningCrescent.Emojis()}
	assert.True(t, r.Validate(doc("🌒"), crescent))
	assert.True(t, r.Validate(doc("🌘"), crescent))
	assert.False(t, r.Validate(doc("🌕🌑🌖🌗"), crescent))
}

func TestValidate_Geo(t *testing.T) {
	coords := Coords{Lat: -25.35068396746521, Long: 131.0463222711639}
	r := NewGeo(coords)
	f := &Facts{}
	f.SetCountry(coords, "australia")

	assert.True(t, r.Validate(doc("australia"), f))
	assert.True(t, r.Validate(doc("ausTraLiA"), f))

	assert.False(t, r.Validate(doc("austria"), f))
	assert.False(t, r.Validate(doc("australia"), &Facts{}))
}

func TestValidate_Chess(t *testing.T) {
	fen := "r2qkb1r/pp2nppp/3p4/2pNN1B1/2BnP3/3P4/PPP2PPP/R2bK2R w KQkq - 0 1"
	r := NewChess(fen)
	f := &Facts{}
	f.SetBestMove(fen, "Nf6+")

	assert.True(t, r.Validate(doc("Nf6+"), f))

	// Missing "+" for check.
	assert.False(t, r.Validate(doc("Nf6"), f))
	// Case sensitive.
	assert.False(t, r.Validate(doc("nf6"), f))
	assert.False(t, r.Validate(doc("Nf6+"), &Facts{}))
}

func TestValidate_Youtube(t *testing.T) {
	r := NewYoutube(14)
	f := &Facts{}
	f.SetVideoDuration("Hc6J5rlKhIc", 15)
	f.SetVideoDuration("FiARsQSlzDc", 754)

	// Within one second of the demanded length.
	assert.True(t, r.Validate(doc("youtube.com/watch?v=Hc6J5rlKhIc"), f))
	assert.False(t, r.Validate(doc("youtube.com/watch?v=FiARsQSlzDc"), f))
	// Unknown video never passes.
	assert.False(t, r.Validate(doc("youtube.com/watch?v=aaaaaaaaaaa"), f))
	assert.False(t, r.Validate(doc("no url"), f))
}

func TestValidate_Time(t *testing.T) {
	r := New(KindTime)
	f := &Facts{Now: time.Date(2023, 7, 12, 4, 8, 20, 0, time.UTC)}

	assert.True(t, r.Validate(doc("4:08"), f))
	assert.False(t, r.Validate(doc("12:34"), f))
}

// -----------------------------------------------------------------------------
// Surface-State Rules
// -----------------------------------------------------------------------------

func TestValidate_Egg(t *testing.T) {
	r := New(KindEgg)

	f := &Facts{}
	assert.True(t, r.Validate(doc("egg: 🥚"), f))
	assert.True(t, r.Validate(doc("no egg"), f))

	f.EggPlaced = true
	assert.True(t, r.Validate(doc("egg: 🥚"), f))
	assert.False(t, r.Validate(doc("no egg"), f))

	f.PaulHatched = true
	assert.True(t, r.Validate(doc("paul: 🐔"), f))
	assert.False(t, r.Validate(doc("no paul"), f))
}

func TestValidate_Fire(t *testing.T) {
	r := New(KindFire)

	// Fire is not satisfiable before the surface starts it.
	f := &Facts{}
	assert.False(t, r.Validate(doc("hello🔥"), f))

	f.FireStarted = true
	assert.True(t, r.Validate(doc("hello"), f))
	assert.False(t, r.Validate(doc("hello🔥"), f))
}

func TestValidate_Strength(t *testing.T) {
	r := New(KindStrength)
	f := &Facts{}

	assert.True(t, r.Validate(doc("🏋️‍♂️🏋️‍♂️🏋️‍♂️"), f))
	assert.True(t, r.Validate(doc("foo🏋️‍♂️🏋️‍♂️🏋️‍♂️🏋️‍♂️🏋️‍♂️"), f))

	assert.False(t, r.Validate(doc("hello"), f))
	assert.False(t, r.Validate(doc("🏋️‍♂️🏋️‍♂️bar"), f))
}

func TestValidate_Hatch(t *testing.T) {
	r := New(KindHatch)

	f := &Facts{}
	assert.True(t, r.Validate(doc("🐛"), f))
	assert.True(t, r.Validate(doc("nobugs"), f))

	f.PaulHatched = true
	assert.True(t, r.Validate(doc("🐛"), f))
	assert.True(t, r.Validate(doc("bugs🐛🐛🐛"), f))
	assert.False(t, r.Validate(doc(""), f))

	f.PaulEating = true
	assert.True(t, r.Validate(doc("🐛"), f))
	assert.True(t, r.Validate(doc("nobugs"), f))
}

func TestValidate_Sacrifice(t *testing.T) {
	r := New(KindSacrifice)

	// No letters sacrificed yet, which is a failure.
	assert.False(t, r.Validate(doc("abcdefghijklmnopqrstuvwxyz"), &Facts{}))

	f := &Facts{Sacrificed: []string{"a", "b"}}
	assert.True(t, r.Validate(doc("cdefghijklmnopqrstuvwxyz"), f))
	assert.False(t, r.Validate(doc("a"), f))
	assert.False(t, r.Validate(doc("b"), f))
}

func TestValidate_Hex(t *testing.T) {
	r := NewHex(Color{R: 247, G: 107, B: 246})
	f := &Facts{}

	assert.True(t, r.Validate(doc("#f76bf6"), f))
	// Case insensitive, and no hash required.
	assert.True(t, r.Validate(doc("f76BF6"), f))

	assert.False(t, r.Validate(doc("f7 6b f6"), f))
	assert.False(t, r.Validate(doc("247,107,246"), f))
}

func TestValidate_SkipAndFinal(t *testing.T) {
	f := &Facts{}
	for _, r := range []Rule{New(KindSkip), New(KindFinal)} {
		assert.True(t, r.Validate(doc(""), f))
		assert.True(t, r.Validate(doc("12345"), f))
		assert.True(t, r.Validate(doc("hello😀"), f))
	}
}

// -----------------------------------------------------------------------------
// Formatting Rules
// -----------------------------------------------------------------------------

func TestValidate_BoldVowels(t *testing.T) {
	r := New(KindBoldVowels)
	f := &Facts{}

	var bolds []password.Change
	for i := 1; i < 6; i++ {
		bolds = append(bolds, password.FormatAt(i, password.FormatChange{Field: password.FieldBold}))
	}
	assert.True(t, r.Validate(formatted(t, "bueioak", bolds...), f))

	// No vowels at all.
	assert.True(t, r.Validate(doc("bcdmnp"), f))

	assert.False(t, r.Validate(doc("ueioa"), f))
}

func TestValidate_TwiceItalic(t *testing.T) {
	r := New(KindTwiceItalic)
	f := &Facts{}

	// No bold or italic characters.
	assert.True(t, r.Validate(doc("foobar"), f))

	// italic == 2 * bold
	d := formatted(t, "foobar",
		password.FormatAt(0, password.FormatChange{Field: password.FieldItalic}),
		password.FormatAt(1, password.FormatChange{Field: password.FieldItalic}),
		password.FormatAt(2, password.FormatChange{Field: password.FieldBold}),
	)
	assert.True(t, r.Validate(d, f))

	// italic < 2 * bold
	require.NoError(t, d.Queue(password.FormatAt(0, password.FormatChange{Field: password.FieldBold})))
	require.NoError(t, d.Commit())
	assert.False(t, r.Validate(d, f))
}

func TestValidate_Wingdings(t *testing.T) {
	r := New(KindWingdings)
	f := &Facts{}

	// 1/6 < 0.3
	d := formatted(t, "foobar",
		password.FormatAt(0, password.FormatChange{Field: password.FieldFamily, Family: password.Wingdings}),
	)
	assert.False(t, r.Validate(d, f))

	// 2/6 >= 0.3
	require.NoError(t, d.Queue(password.FormatAt(3, password.FormatChange{Field: password.FieldFamily, Family: password.Wingdings})))
	require.NoError(t, d.Commit())
	assert.True(t, r.Validate(d, f))
}

func TestValidate_TimesNewRoman(t *testing.T) {
	r := New(KindTimesNewRoman)
	f := &Facts{}

	var tnr []password.Change
	for i := 0; i < 3; i++ {
		tnr = append(tnr, password.FormatAt(i, password.FormatChange{Field: password.FieldFamily, Family: password.TimesNewRoman}))
	}
	assert.True(t, r.Validate(formatted(t, "MCM", tnr...), f))

	// No roman numerals.
	assert.True(t, r.Validate(doc("foo"), f))

	assert.False(t, r.Validate(doc("VII"), f))
}

func TestValidate_DigitFontSize(t *testing.T) {
	r := New(KindDigitFontSize)
	f := &Facts{}

	// No digits.
	assert.True(t, r.Validate(doc("foo"), f))

	// Default font size is not a square.
	d := doc("023")
	assert.False(t, r.Validate(d, f))

	for i, size := range []password.FontSize{password.Px0, password.Px4, password.Px9} {
		require.NoError(t, d.Queue(password.FormatAt(i, password.FormatChange{Field: password.FieldSize, Size: size})))
	}
	require.NoError(t, d.Commit())
	assert.True(t, r.Validate(d, f))
}

func TestValidate_LetterFontSize(t *testing.T) {
	r := New(KindLetterFontSize)
	f := &Facts{}

	// Both a's have the same font size (the default). Case folds.
	d := doc("aAb")
	assert.False(t, r.Validate(d, f))

	require.NoError(t, d.Queue(password.FormatAt(0, password.FormatChange{Field: password.FieldSize, Size: password.Px16})))
	require.NoError(t, d.Commit())
	assert.True(t, r.Validate(d, f))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func TestIsPrime(t *testing.T) {
	primes := []int{2, 3, 5, 7, 11, 13, 101, 103}
	for _, n := range primes {
		assert.True(t, IsPrime(n), n)
	}
	composites := []int{-1, 0, 1, 4, 9, 100, 102}
	for _, n := range composites {
		assert.False(t, IsPrime(n), n)
	}
}

func TestClockString(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         string
	}{
		{4, 8, "4:08"},
		{0, 5, "12:05"},
		{12, 34, "12:34"},
		{23, 59, "11:59"},
		{13, 0, "1:00"},
	}
	for _, tc := range cases {
		got := ClockString(time.Date(2026, 1, 2, tc.hour, tc.minute, 0, 0, time.UTC))
		assert.Equal(t, tc.want, got)
	}
}
