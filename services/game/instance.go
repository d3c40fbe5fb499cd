// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/facts"
)

// =============================================================================
// Rule Instances
// =============================================================================

// captchaPool holds the five-character tokens the captcha rule draws
// from, mirroring the tiles the surface serves.
var captchaPool = []string{
	"pd9bf", "d9wez", "w2bnx", "y5nce", "k7xta", "b3dmu",
	"rq6zs", "m8yhd", "u4pfk", "ne5gj", "x2vqa", "h6wrn",
	"t9kcs", "zd4em", "c7qyu", "sg3hx", "a8nwd", "v5jtb",
	"q2mfe", "ly7pk", "ew6sb", "jn9rv", "fb24m", "p3xzh",
}

// wordlePool holds answers the wordle rule draws from. The live surface
// asks neal.fun for today's word; the simulation keeps its own.
var wordlePool = []string{
	"crane", "slate", "pride", "motel", "bluff", "gravy",
	"whisk", "plumb", "joust", "fable", "disco", "rerun",
	"night", "ochre", "study", "lemon",
}

// maxColorDigitSum keeps the dealt color's decimal digits inside the
// digit rule's budget of 25 for the whole password.
const maxColorDigitSum = 10

// Deal pins the randomized rule instances for one game. Zero fields are
// drawn from the pools when the game starts, so tests can fix exactly
// the instances they care about. A server hands the deal to remote
// drivers, which build their fact providers from it.
type Deal struct {
	// Captcha is the token the captcha rule demands.
	Captcha string `json:"captcha"`

	// Coords is the location the geo rule shows.
	Coords rules.Coords `json:"coords"`

	// FEN is the chess rule's position.
	FEN string `json:"fen"`

	// Seconds is the video length the youtube rule asks for.
	Seconds int `json:"seconds"`

	// Color is the hex rule's color.
	Color *rules.Color `json:"color,omitempty"`

	// Wordle is today's answer as far as this game is concerned.
	Wordle string `json:"wordle"`
}

// complete fills the zero fields from the pools.
func (d Deal) complete(rng *rand.Rand, geo *facts.GeoTable, videos *facts.VideoTable) Deal {
	if d.Captcha == "" {
		d.Captcha = captchaPool[rng.Intn(len(captchaPool))]
	}
	if d.Coords == (rules.Coords{}) {
		locs := geo.Locations()
		d.Coords = locs[rng.Intn(len(locs))]
	}
	if d.FEN == "" {
		puzzles := facts.ChessPuzzles()
		fens := make([]string, 0, len(puzzles))
		for fen := range puzzles {
			fens = append(fens, fen)
		}
		sort.Strings(fens)
		d.FEN = fens[rng.Intn(len(fens))]
	}
	if d.Seconds == 0 {
		durations := videos.Durations()
		ids := make([]string, 0, len(durations))
		for id := range durations {
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			sort.Strings(ids)
			d.Seconds = durations[ids[rng.Intn(len(ids))]]
		} else {
			d.Seconds = rng.Intn(2000) + 180
		}
	}
	if d.Color == nil {
		c := rollColor(rng)
		d.Color = &c
	}
	if d.Wordle == "" {
		d.Wordle = wordlePool[rng.Intn(len(wordlePool))]
	}
	return d
}

// rollColor draws colors until one's hex digits stay cheap.
func rollColor(rng *rand.Rand) rules.Color {
	for i := 0; i < 64; i++ {
		c := rules.Color{
			R: uint8(rng.Intn(256)),
			G: uint8(rng.Intn(256)),
			B: uint8(rng.Intn(256)),
		}
		if c.DigitSum() <= maxColorDigitSum {
			return c
		}
	}
	return rules.Color{}
}

// dealtRules builds the full gauntlet in surface order with the deal's
// instances bound to the parameterized families.
func dealtRules(d Deal) []rules.Rule {
	kinds := rules.Catalogue()
	out := make([]rules.Rule, 0, len(kinds))
	for _, k := range kinds {
		switch k {
		case rules.KindCaptcha:
			out = append(out, rules.NewCaptcha(d.Captcha))
		case rules.KindGeo:
			out = append(out, rules.NewGeo(d.Coords))
		case rules.KindChess:
			out = append(out, rules.NewChess(d.FEN))
		case rules.KindYoutube:
			out = append(out, rules.NewYoutube(d.Seconds))
		case rules.KindHex:
			out = append(out, rules.NewHex(*d.Color))
		default:
			out = append(out, rules.New(k))
		}
	}
	return out
}

// =============================================================================
// Displayed Text
// =============================================================================

// staticTexts are the rule sentences with no per-game parameters,
// verbatim from the surface.
var staticTexts = map[rules.Kind]string{
	rules.KindMinLength:      "Your password must be at least 5 characters.",
	rules.KindNumber:         "Your password must include a number.",
	rules.KindUppercase:      "Your password must include an uppercase letter.",
	rules.KindSpecial:        "Your password must include a special character.",
	rules.KindDigits:         "The digits in your password must add up to 25.",
	rules.KindMonth:          "Your password must include a month of the year.",
	rules.KindRoman:          "Your password must include a roman numeral.",
	rules.KindSponsors:       "Your password must include one of our sponsors.",
	rules.KindRomanMultiply:  "The roman numerals in your password should multiply to 35.",
	rules.KindWordle:         "Your password must include today's Wordle answer.",
	rules.KindPeriodicTable:  "Your password must include a two letter symbol from the periodic table.",
	rules.KindMoonPhase:      "Your password must include the current phase of the moon as an emoji.",
	rules.KindLeapYear:       "Your password must include a leap year.",
	rules.KindEgg:            "🥚 This my chicken Paul. He hasn't hatched yet. Please put him in your password and keep him safe.",
	rules.KindAtomicNumber:   "The elements in your password must have atomic numbers that add up to 200.",
	rules.KindBoldVowels:     "All the vowels in your password must be bolded.",
	rules.KindFire:           "Oh no! Your password is on fire 🔥. Quick, put it out!",
	rules.KindStrength:       "Your password is not strong enough 🏋️‍♂️.",
	rules.KindAffirmation:    "Your password must contain one of the following affirmations: I am loved, I am worthy, I am enough.",
	rules.KindHatch:          "Paul has hatched 🐔! Please don't forget to feed him. He eats three 🐛 every minute.",
	rules.KindSacrifice:      "A sacrifice must be made. Pick 2 letters that you will no longer be able to use.",
	rules.KindTwiceItalic:    "Your password must contain twice as many italic characters as bold.",
	rules.KindWingdings:      "At least 30% of your password must be in the Wingdings font.",
	rules.KindTimesNewRoman:  "All roman numerals must be in Times New Roman.",
	rules.KindDigitFontSize:  "The font size of every digit must be equal to its square.",
	rules.KindLetterFontSize: "Every instance of the same letter must have a different font size.",
	rules.KindIncludeLength:  "Your password must include the length of your password.",
	rules.KindPrimeLength:    "The length of your password must be a prime number.",
	rules.KindSkip:           "Uhhh let's skip this one.",
	rules.KindTime:           "Your password must include the current time.",
	rules.KindFinal:          "Is this your final password?",
}

// CatalogueTexts renders every rule of a complete deal the way the
// surface would show it, sacrifice slots unfilled. The CLI uses it to
// print a deal without playing one.
func CatalogueTexts(d Deal) []string {
	dealt := dealtRules(d)
	out := make([]string, 0, len(dealt))
	for _, r := range dealt {
		out = append(out, displayText(r, nil))
	}
	return out
}

// displayText renders the rule the way the surface shows it. The
// sacrifice rule grows its acknowledgement tail once letters are chosen.
func displayText(r rules.Rule, sacrificed []string) string {
	switch r.Kind {
	case rules.KindCaptcha:
		return "Your password must include this CAPTCHA: " + r.Captcha
	case rules.KindGeo:
		return fmt.Sprintf(
			"Your password must include the name of this country: %.6f, %.6f",
			r.Coords.Lat, r.Coords.Long)
	case rules.KindChess:
		return "Your password must include the best move in algebraic chess notation: " + r.FEN
	case rules.KindYoutube:
		return fmt.Sprintf(
			"Your password must include the URL of a %d minute %d second YouTube video.",
			r.Seconds/60, r.Seconds%60)
	case rules.KindHex:
		return "Your password must include this color in hex: " + r.Color.Hex()
	case rules.KindSacrifice:
		base := staticTexts[rules.KindSacrifice]
		if len(sacrificed) == 2 {
			return fmt.Sprintf("%s Sacrificed: %s, %s", base, sacrificed[0], sacrificed[1])
		}
		return base
	default:
		return staticTexts[r.Kind]
	}
}
