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

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brandenc40/romannumeral"

	"github.com/AleutianAI/passmith/services/engine/chem"
)

// Scanners locate rule-relevant substrings and report positions as
// grapheme indices, which is the only addressing solvers understand.

// Digit is one ASCII digit occurrence.
type Digit struct {
	// Value is 0 through 9.
	Value int
	// Index is the grapheme index.
	Index int
}

// Digits returns every ASCII digit with its grapheme index.
func Digits(text string) []Digit {
	var out []Digit
	for i, cluster := range Split(text) {
		if len(cluster) == 1 && cluster[0] >= '0' && cluster[0] <= '9' {
			out = append(out, Digit{Value: int(cluster[0] - '0'), Index: i})
		}
	}
	return out
}

// Letter is one ASCII letter occurrence.
type Letter struct {
	// Char is the letter as it appears (case preserved).
	Char byte
	// Index is the grapheme index.
	Index int
}

// Letters returns every ASCII letter with its grapheme index.
func Letters(text string) []Letter {
	var out []Letter
	for i, cluster := range Split(text) {
		if len(cluster) != 1 {
			continue
		}
		c := cluster[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			out = append(out, Letter{Char: c, Index: i})
		}
	}
	return out
}

// RomanNumeral is one roman numeral token.
type RomanNumeral struct {
	// Value is the decimal value.
	Value int
	// Index is the grapheme index of the first letter.
	Index int
	// Length is the token length in graphemes.
	Length int
}

// romanPattern matches well-formed roman numerals. The same pattern the
// surface uses; it also matches the empty string, which the scanner
// filters out.
var romanPattern = regexp.MustCompile(`M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})`)

// RomanNumerals returns every non-empty roman numeral token with its
// decimal value, grapheme index and grapheme length. Lowercase letters do
// not count.
func RomanNumerals(text string) []RomanNumeral {
	matches := romanPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	// Map byte offsets to grapheme indices.
	byteToGrapheme := make(map[int]int)
	offset := 0
	for i, cluster := range Split(text) {
		byteToGrapheme[offset] = i
		offset += len(cluster)
	}

	var out []RomanNumeral
	for _, m := range matches {
		token := text[m[0]:m[1]]
		if token == "" {
			continue
		}
		value, err := romanValue(token)
		if err != nil {
			continue
		}
		out = append(out, RomanNumeral{
			Value:  value,
			Index:  byteToGrapheme[m[0]],
			Length: m[1] - m[0],
		})
	}
	return out
}

// romanValue decodes token. The codec covers 1..3999; the pattern admits
// up to MMMM-prefixed forms, handled by peeling the extra thousands.
func romanValue(token string) (int, error) {
	if strings.HasPrefix(token, "MMMM") {
		rest := token[4:]
		if rest == "" {
			return 4000, nil
		}
		v, err := romannumeral.StringToInt(rest)
		if err != nil {
			return 0, err
		}
		return 4000 + v, nil
	}
	return romannumeral.StringToInt(token)
}

// RomanString renders n as an uppercase roman numeral. n must be 1..3999.
func RomanString(n int) (string, error) {
	return romannumeral.IntToString(n)
}

var (
	youtubeWatchPattern = regexp.MustCompile(`youtube\.com/watch\?v=(.{11})`)
	youtubeShortPattern = regexp.MustCompile(`youtu\.be/(.{11})`)
)

// FirstYouTubeID returns the video ID of the first YouTube URL in text.
// youtube.com URLs are preferred over youtu.be URLs.
func FirstYouTubeID(text string) (string, bool) {
	if m := youtubeWatchPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := youtubeShortPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// ElementOccurrence is one periodic-table symbol occurrence.
type ElementOccurrence struct {
	// Element is the matched table entry.
	Element chem.Element
	// Index is the grapheme index of the symbol's first letter.
	Index int
}

// Elements returns every periodic-table symbol occurrence with its
// grapheme index, ordered by position. When a one-letter and a two-letter
// symbol start at the same index the two-letter symbol wins, so "Fe"
// scans as iron, not fluorine.
func Elements(text string) []ElementOccurrence {
	boundaries := make(map[int]int)
	offset := 0
	for i, cluster := range Split(text) {
		boundaries[offset] = i
		offset += len(cluster)
	}

	var found []ElementOccurrence
	for _, e := range chem.Elements() {
		for from := 0; ; {
			rel := strings.Index(text[from:], e.Symbol)
			if rel < 0 {
				break
			}
			start := from + rel
			if idx, ok := boundaries[start]; ok {
				found = append(found, ElementOccurrence{Element: e, Index: idx})
			}
			from = start + 1
		}
	}

	// Two-letter symbols claim their start index first; shorter matches
	// at a claimed index are dropped.
	sort.SliceStable(found, func(i, j int) bool {
		return len(found[i].Element.Symbol) > len(found[j].Element.Symbol)
	})
	claimed := make(map[int]bool, len(found))
	kept := found[:0]
	for _, occ := range found {
		if claimed[occ.Index] {
			continue
		}
		claimed[occ.Index] = true
		kept = append(kept, occ)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Index < kept[j].Index
	})
	return kept
}

// CountCluster returns how many times the given cluster occurs.
func CountCluster(text, cluster string) int {
	n := 0
	for _, c := range Split(text) {
		if c == cluster {
			n++
		}
	}
	return n
}

// IndexesOfCluster returns the grapheme indices of every occurrence of
// cluster.
func IndexesOfCluster(text, cluster string) []int {
	var out []int
	for i, c := range Split(text) {
		if c == cluster {
			out = append(out, i)
		}
	}
	return out
}
