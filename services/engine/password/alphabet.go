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

import "fmt"

// Alphabet is the set of grapheme clusters the rendering surface accepts.
// Every candidate edit is checked against the active alphabet before it is
// committed, so the document never carries a glyph the surface would
// reject or mangle.
type Alphabet struct {
	// ascii accepts the printable ASCII range when true.
	ascii bool

	// extra is the allowlist of multi-byte clusters beyond ASCII.
	extra map[string]struct{}
}

// GameGlyphs is the allowlist of non-ASCII clusters the game surface
// renders: the hazard and pet glyphs plus every moon-phase emoji.
var GameGlyphs = []string{
	"🥚", "🐔", "🐛", "🔥", "🏋️‍♂️", "🪦",
	"🌑", "🌚", "🌒", "🌘", "🌓", "🌗", "🌛", "🌜", "🌔", "🌖", "🌕", "🌝",
}

// DefaultAlphabet returns printable ASCII plus GameGlyphs.
func DefaultAlphabet() *Alphabet {
	return NewAlphabet(GameGlyphs)
}

// ASCIIAlphabet returns printable ASCII only.
func ASCIIAlphabet() *Alphabet {
	return NewAlphabet(nil)
}

// NewAlphabet returns printable ASCII plus the given extra clusters.
func NewAlphabet(extra []string) *Alphabet {
	a := &Alphabet{
		ascii: true,
		extra: make(map[string]struct{}, len(extra)),
	}
	for _, g := range extra {
		a.extra[g] = struct{}{}
	}
	return a
}

// Accepts reports whether the alphabet admits the given grapheme cluster.
func (a *Alphabet) Accepts(cluster string) bool {
	if a.ascii && len(cluster) == 1 {
		c := cluster[0]
		return c >= 0x20 && c <= 0x7e
	}
	_, ok := a.extra[cluster]
	return ok
}

// CheckText returns ErrUnsupportedGrapheme (with the offending cluster and
// its index) for the first cluster of text outside the alphabet.
func (a *Alphabet) CheckText(text string) error {
	for i, cluster := range Split(text) {
		if !a.Accepts(cluster) {
			return fmt.Errorf("%w: %q at %d", ErrUnsupportedGrapheme, cluster, i)
		}
	}
	return nil
}

// Check validates every cluster of doc against the alphabet.
func (a *Alphabet) Check(doc *Document) error {
	for i, cluster := range doc.clusters {
		if !a.Accepts(cluster) {
			return fmt.Errorf("%w: %q at %d", ErrUnsupportedGrapheme, cluster, i)
		}
	}
	return nil
}
