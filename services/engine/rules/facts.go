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
	"time"
)

// Facts is a point-in-time snapshot of everything validation needs from
// outside the password: resolved provider answers plus the observed state of
// the surface. The engine resolves a snapshot once per reconcile cycle, so a
// cycle validates against one consistent view of the world.
//
// A missing fact never satisfies a rule. An empty wordle answer, an unknown
// position, or an unknown video ID all leave their rule unsatisfied until
// the fact is resolved.
type Facts struct {
	// Now is the wall-clock instant the snapshot was taken.
	Now time.Time

	// WordleAnswer is the answer for Now's date, lowercase.
	WordleAnswer string

	// MoonEmojis are the accepted emojis for the current moon phase.
	MoonEmojis []string

	// Countries maps geo rule coordinates to the country name, lowercase.
	Countries map[Coords]string

	// BestMoves maps a chess position to its best move in algebraic
	// notation.
	BestMoves map[string]string

	// VideoDurations maps a video ID to its length in seconds.
	VideoDurations map[string]int

	// EggPlaced is set once the surface has demanded the egg.
	EggPlaced bool

	// PaulHatched is set once the egg has hatched.
	PaulHatched bool

	// PaulEating is set while the chicken is consuming a worm.
	PaulEating bool

	// FireStarted is set once the surface has set the password on fire.
	FireStarted bool

	// Sacrificed holds the two letters given up, lowercase. Until exactly
	// two are chosen the sacrifice rule cannot pass.
	Sacrificed []string
}

// Country resolves the country fact for the given coordinates.
func (f *Facts) Country(c Coords) (string, bool) {
	name, ok := f.Countries[c]
	return name, ok
}

// BestMove resolves the best-move fact for the given position.
func (f *Facts) BestMove(fen string) (string, bool) {
	san, ok := f.BestMoves[fen]
	return san, ok
}

// VideoDuration resolves the duration fact for the given video ID.
func (f *Facts) VideoDuration(id string) (int, bool) {
	d, ok := f.VideoDurations[id]
	return d, ok
}

// SetCountry records a resolved country fact.
func (f *Facts) SetCountry(c Coords, name string) {
	if f.Countries == nil {
		f.Countries = make(map[Coords]string)
	}
	f.Countries[c] = name
}

// SetBestMove records a resolved best-move fact.
func (f *Facts) SetBestMove(fen, san string) {
	if f.BestMoves == nil {
		f.BestMoves = make(map[string]string)
	}
	f.BestMoves[fen] = san
}

// SetVideoDuration records a resolved duration fact.
func (f *Facts) SetVideoDuration(id string, seconds int) {
	if f.VideoDurations == nil {
		f.VideoDurations = make(map[string]int)
	}
	f.VideoDurations[id] = seconds
}

// ClockString renders t the way the surface's time rule wants it: 12-hour
// clock, no leading zero on the hour, minutes zero-padded.
func ClockString(t time.Time) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d", h, t.Minute())
}
