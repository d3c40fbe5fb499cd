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
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/passmith/services/engine/chem"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// romanLetters are the characters a symbol must avoid once the numeral
// rules are live.
const romanLetters = "IVXLCDM"

// sacrificeAlphabet is every letter the sacrifice strategy may give up:
// g through z, minus v and x which the roman rules need. Starting at g
// spares the hex digits a through f.
const sacrificeAlphabet = "ghijklmnopqrstuwyz"

// solveDigits steers the digit sum to 25. Under the target it appends
// nines and a remainder digit; over it, it drops the largest unprotected
// digits and shaves the rest off one survivor.
func (s *Solver) solveDigits(doc *password.Document, rule rules.Rule) Outcome {
	var digits []password.Digit
	sum := 0
	for _, d := range password.Digits(doc.String()) {
		// Zeroes never move the sum.
		if d.Value == 0 {
			continue
		}
		digits = append(digits, d)
		sum += d.Value
	}

	if sum < 25 {
		var b strings.Builder
		for sum < 25 {
			next := 25 - sum
			if next > 9 {
				next = 9
			}
			b.WriteByte(byte('0' + next))
			sum += next
		}
		return propose(rule, "top up the digit sum", password.Append(b.String()))
	}

	var unprotected []password.Digit
	unprotectedSum := 0
	for _, d := range digits {
		if !doc.ProtectedAt(d.Index) {
			unprotected = append(unprotected, d)
			unprotectedSum += d.Value
		}
	}
	if sum-unprotectedSum > 25 {
		return infeasible(rule, "protected digits alone sum past 25", false)
	}

	sort.SliceStable(unprotected, func(i, j int) bool {
		return unprotected[i].Value > unprotected[j].Value
	})

	toReduce := sum - 25
	var changes []password.Change
	var kept []password.Digit
	for _, d := range unprotected {
		if toReduce > 0 && d.Value <= toReduce {
			changes = append(changes, password.Remove(d.Index))
			toReduce -= d.Value
			continue
		}
		kept = append(kept, d)
	}
	if toReduce > 0 {
		// Every kept digit exceeds the remainder, so the largest one can
		// absorb it without going negative.
		d := kept[0]
		changes = append(changes, password.Replace(d.Index, strconv.Itoa(d.Value-toReduce)))
	}
	return propose(rule, "trim the digit sum", changes...)
}

// solveRomanMultiply settles the numeral product at 35. With any number
// of free I tokens, that means keeping a single XXXV, or a V and a VII,
// and stripping every other numeral.
func (s *Solver) solveRomanMultiply(doc *password.Document, rule rules.Rule) Outcome {
	numerals := password.RomanNumerals(doc.String())

	goals := []int{5, 7}
	for _, n := range numerals {
		if n.Value == 35 {
			goals = []int{35}
			break
		}
	}

	var changes []password.Change
	for _, n := range numerals {
		if n.Value == 1 {
			continue
		}
		if i := indexOfInt(goals, n.Value); i >= 0 {
			goals = append(goals[:i], goals[i+1:]...)
			continue
		}
		for j := 0; j < n.Length; j++ {
			if doc.ProtectedAt(n.Index + j) {
				return infeasible(rule, "a stray numeral is locked in place", false)
			}
			changes = append(changes, password.Remove(n.Index+j))
		}
	}

	for _, goal := range goals {
		numeral, err := password.RomanString(goal)
		if err != nil {
			return infeasible(rule, "cannot render goal numeral", false)
		}
		// The leading space keeps the new token from fusing with a
		// numeral already sitting at the end.
		changes = append(changes, password.Append(" "+numeral))
	}
	return propose(rule, "settle the numeral product at 35", changes...)
}

// solveAtomicNumber balances the element sum at 200: strip the heaviest
// unprotected occurrences while over, then greedily append the heaviest
// roman-free symbols that fit. Symbols carrying numeral letters are never
// touched in either direction, so this strategy cannot fight rule nine.
func (s *Solver) solveAtomicNumber(doc *password.Document, rule rules.Rule) Outcome {
	occurrences := password.Elements(doc.String())
	sum := 0
	for _, occ := range occurrences {
		sum += occ.Element.Number
	}

	var changes []password.Change
	if sum > 200 {
		var removable []password.ElementOccurrence
		for _, occ := range occurrences {
			if doc.ProtectedAt(occ.Index) {
				continue
			}
			if len(occ.Element.Symbol) == 2 && doc.ProtectedAt(occ.Index+1) {
				continue
			}
			if strings.ContainsAny(occ.Element.Symbol, romanLetters) {
				continue
			}
			removable = append(removable, occ)
		}
		sort.SliceStable(removable, func(i, j int) bool {
			return removable[i].Element.Number > removable[j].Element.Number
		})

		for _, occ := range removable {
			if sum <= 200 {
				break
			}
			changes = append(changes, password.Remove(occ.Index))
			if len(occ.Element.Symbol) == 2 {
				changes = append(changes, password.Remove(occ.Index+1))
			}
			sum -= occ.Element.Number
		}
		if sum > 200 {
			return infeasible(rule, "element sum stuck above 200", false)
		}
	}

	for toAdd := 200 - sum; toAdd > 0; {
		symbol, number := heaviestRomanFree(toAdd)
		if number == 0 {
			return infeasible(rule, "no element small enough to close the gap", false)
		}
		changes = append(changes, password.Append(symbol))
		toAdd -= number
	}
	return propose(rule, "balance the element sum at 200", changes...)
}

// heaviestRomanFree returns the heaviest element at or under limit whose
// symbol carries no roman-numeral letter, or ("", 0) when none fits.
func heaviestRomanFree(limit int) (string, int) {
	symbol, number := "", 0
	for _, e := range chem.Elements() {
		if e.Number > limit {
			break
		}
		if strings.ContainsAny(e.Symbol, romanLetters) {
			continue
		}
		symbol, number = e.Symbol, e.Number
	}
	return symbol, number
}

// solveSacrifice chooses two letters to give up and purges them. Absent
// letters cost nothing, so they go first; otherwise the rarest letters
// with no protected occurrence. Once chosen the pair is fixed for the
// attempt, and the session submits it to the surface.
func (s *Solver) solveSacrifice(doc *password.Document, rule rules.Rule, facts *rules.Facts) Outcome {
	if len(facts.Sacrificed) == 2 {
		// The surface already acknowledged a pair; adopt it.
		s.sacrificed = []string{facts.Sacrificed[0], facts.Sacrificed[1]}
	}

	letters := password.Letters(doc.String())

	if len(s.sacrificed) < 2 {
		counts := make(map[string]int)
		locked := make(map[string]bool)
		for _, l := range letters {
			lower := string(lowerASCII(l.Char))
			counts[lower]++
			if doc.ProtectedAt(l.Index) {
				locked[lower] = true
			}
		}

		var absent, present []string
		for _, letter := range strings.Split(sacrificeAlphabet, "") {
			switch {
			case counts[letter] == 0:
				absent = append(absent, letter)
			case !locked[letter]:
				present = append(present, letter)
			}
		}
		sort.SliceStable(present, func(i, j int) bool {
			return counts[present[i]] < counts[present[j]]
		})

		candidates := append(absent, present...)
		if len(candidates) < 2 {
			return infeasible(rule, "fewer than two letters can be given up", false)
		}
		s.sacrificed = []string{candidates[0], candidates[1]}
		s.logger.Info("sacrificing letters", "letters", s.sacrificed)
	}

	var changes []password.Change
	for _, l := range letters {
		lower := string(lowerASCII(l.Char))
		if lower != s.sacrificed[0] && lower != s.sacrificed[1] {
			continue
		}
		if doc.ProtectedAt(l.Index) {
			return infeasible(rule, "a sacrificed letter is locked in place", false)
		}
		changes = append(changes, password.Remove(l.Index))
	}
	return propose(rule, "purge the sacrificed letters", changes...)
}

func indexOfInt(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
