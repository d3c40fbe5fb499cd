// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chem

import "testing"

func TestElements_Count(t *testing.T) {
	if got := len(Elements()); got != 118 {
		t.Fatalf("Elements() returned %d entries, want 118", got)
	}
}

func TestElements_Ordered(t *testing.T) {
	els := Elements()
	for i, el := range els {
		if el.Number != i+1 {
			t.Fatalf("element %d has number %d, want %d", i, el.Number, i+1)
		}
	}
	if els[0].Symbol != "H" || els[117].Symbol != "Og" {
		t.Fatalf("unexpected endpoints: %s .. %s", els[0].Symbol, els[117].Symbol)
	}
}

func TestBySymbol(t *testing.T) {
	el, ok := BySymbol("Fe")
	if !ok {
		t.Fatal("BySymbol(Fe) not found")
	}
	if el.Number != 26 || el.Name != "Iron" {
		t.Fatalf("BySymbol(Fe) = %+v", el)
	}
	if _, ok := BySymbol("Xx"); ok {
		t.Fatal("BySymbol(Xx) should not resolve")
	}
}

func TestAtomicNumber(t *testing.T) {
	if got := AtomicNumber("U"); got != 92 {
		t.Fatalf("AtomicNumber(U) = %d, want 92", got)
	}
	if got := AtomicNumber("nope"); got != 0 {
		t.Fatalf("AtomicNumber(nope) = %d, want 0", got)
	}
}

func TestRomanSymbols(t *testing.T) {
	roman := RomanSymbols()
	if len(roman) == 0 {
		t.Fatal("RomanSymbols() is empty")
	}
	seen := make(map[string]bool, len(roman))
	for _, sym := range roman {
		seen[sym] = true
	}
	for _, want := range []string{"I", "V", "C", "Cd", "Md"} {
		if !seen[want] {
			t.Fatalf("RomanSymbols() missing %s", want)
		}
	}
	if seen["Fe"] {
		t.Fatal("Fe has no roman letters")
	}
}
