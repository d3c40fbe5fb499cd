// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chem carries the periodic table used by the element rules.
package chem

import (
	_ "embed"
	"strconv"
	"strings"
	"sync"
)

//go:embed elements.txt
var elementsData string

// Element is one periodic-table entry.
type Element struct {
	// Number is the atomic number.
	Number int
	// Symbol is the one- or two-letter symbol, e.g. "Fe".
	Symbol string
	// Name is the English element name.
	Name string
}

var (
	loadOnce  sync.Once
	elements  []Element
	bySymbol  map[string]Element
	romanSyms []string
)

func load() {
	loadOnce.Do(func() {
		lines := strings.Split(elementsData, "\n")
		elements = make([]Element, 0, len(lines))
		bySymbol = make(map[string]Element, len(lines))
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			num, err := strconv.Atoi(fields[0])
			if err != nil {
				continue
			}
			e := Element{Number: num, Symbol: fields[1], Name: fields[2]}
			elements = append(elements, e)
			bySymbol[e.Symbol] = e
			if strings.ContainsAny(e.Symbol, "IVXLCDM") {
				romanSyms = append(romanSyms, e.Symbol)
			}
		}
	})
}

// Elements returns the table in atomic-number order. The returned slice
// must not be modified.
func Elements() []Element {
	load()
	return elements
}

// BySymbol looks up an element by its exact symbol.
func BySymbol(symbol string) (Element, bool) {
	load()
	e, ok := bySymbol[symbol]
	return e, ok
}

// AtomicNumber returns the atomic number of symbol, or 0 when unknown.
func AtomicNumber(symbol string) int {
	load()
	return bySymbol[symbol].Number
}

// RomanSymbols returns the symbols that contain a roman-numeral letter
// (I, V, X, L, C, D or M). Solvers avoid splicing these once the
// roman-product rule is active.
func RomanSymbols() []string {
	load()
	return romanSyms
}
