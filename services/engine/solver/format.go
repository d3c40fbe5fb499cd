// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"math"

	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// solveBoldVowels bolds every vowel that is not bold yet.
func (s *Solver) solveBoldVowels(doc *password.Document, rule rules.Rule) Outcome {
	var changes []password.Change
	for i, cluster := range doc.Clusters() {
		if isVowel(cluster) && !doc.FormatAt(i).Bold {
			changes = append(changes, password.FormatAt(i, password.FormatChange{Field: password.FieldBold}))
		}
	}
	return propose(rule, "embolden the vowels", changes...)
}

// solveTwiceItalic slants graphemes front to back until the italic count
// reaches twice the bold count.
func (s *Solver) solveTwiceItalic(doc *password.Document, rule rules.Rule) Outcome {
	formats := doc.Formats()
	bold, italic := 0, 0
	for _, f := range formats {
		if f.Bold {
			bold++
		}
		if f.Italic {
			italic++
		}
	}

	needed := 2*bold - italic
	var changes []password.Change
	for i := 0; len(changes) < needed; i++ {
		if i == len(formats) {
			return infeasible(rule, "not enough upright graphemes to slant", false)
		}
		if !formats[i].Italic {
			changes = append(changes, password.FormatAt(i, password.FormatChange{Field: password.FieldItalic}))
		}
	}
	return propose(rule, "double the italics", changes...)
}

// solveWingdings converts graphemes front to back until thirty percent of
// the password, bug reserve included, renders in wingdings. Roman numeral
// cells are skipped; those must stay Times New Roman.
func (s *Solver) solveWingdings(doc *password.Document, rule rules.Rule) Outcome {
	text := doc.String()
	numeralCell := make(map[int]bool)
	for _, n := range password.RomanNumerals(text) {
		for j := 0; j < n.Length; j++ {
			numeralCell[n.Index+j] = true
		}
	}

	formats := doc.Formats()
	current := 0
	for _, f := range formats {
		if f.Family == password.Wingdings {
			current++
		}
	}

	// The reserve bugs ride at the end of the password, so they count
	// toward the length the threshold is computed over.
	needed := int(math.Ceil(0.3*float64(doc.Len()+s.bugReserve))) - current
	if needed <= 0 {
		return Outcome{Status: StatusAlreadySatisfied}
	}

	var changes []password.Change
	for i := 0; len(changes) < needed; i++ {
		if i == len(formats) {
			return infeasible(rule, "not enough graphemes left to convert", false)
		}
		if numeralCell[i] {
			continue
		}
		if formats[i].Family != password.Wingdings {
			changes = append(changes, password.FormatAt(i, password.FormatChange{
				Field:  password.FieldFamily,
				Family: password.Wingdings,
			}))
		}
	}
	return propose(rule, "push wingdings over thirty percent", changes...)
}

// solveTimesNewRoman sets every roman numeral cell in Times New Roman.
func (s *Solver) solveTimesNewRoman(doc *password.Document, rule rules.Rule) Outcome {
	var changes []password.Change
	for _, n := range password.RomanNumerals(doc.String()) {
		for i := n.Index; i < n.Index+n.Length; i++ {
			if doc.FormatAt(i).Family != password.TimesNewRoman {
				changes = append(changes, password.FormatAt(i, password.FormatChange{
					Field:  password.FieldFamily,
					Family: password.TimesNewRoman,
				}))
			}
		}
	}
	return propose(rule, "set the numerals in times new roman", changes...)
}

// solveDigitFontSize sizes every digit at the square of its value.
func (s *Solver) solveDigitFontSize(doc *password.Document, rule rules.Rule) Outcome {
	var changes []password.Change
	for _, d := range password.Digits(doc.String()) {
		size, err := password.FontSizeFromSquare(d.Value)
		if err != nil {
			continue
		}
		if doc.FormatAt(d.Index).Size != size {
			changes = append(changes, password.FormatAt(d.Index, password.FormatChange{
				Field: password.FieldSize,
				Size:  size,
			}))
		}
	}
	return propose(rule, "square the digit sizes", changes...)
}

// solveLetterFontSize walks the size menu per letter so repeated letters
// get distinct sizes. The menu starts at the default 28, so a letter's
// first occurrence usually needs no change at all.
func (s *Solver) solveLetterFontSize(doc *password.Document, rule rules.Rule) Outcome {
	next := make(map[byte]int)
	var changes []password.Change
	for _, l := range password.Letters(doc.String()) {
		lower := lowerASCII(l.Char)
		i := next[lower]
		if i >= len(password.FontSizes) {
			return infeasible(rule, "a letter repeats more often than there are sizes", false)
		}
		next[lower] = i + 1

		size := password.FontSizes[i]
		if doc.FormatAt(l.Index).Size != size {
			changes = append(changes, password.FormatAt(l.Index, password.FormatChange{
				Field: password.FieldSize,
				Size:  size,
			}))
		}
	}
	return propose(rule, "give repeated letters distinct sizes", changes...)
}

func isVowel(cluster string) bool {
	for _, v := range rules.Vowels {
		if cluster == v {
			return true
		}
	}
	return false
}
