// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package facts resolves the outside world into the snapshots rule
// validation runs against.
//
// Several rule families depend on data the password itself cannot supply:
// today's wordle answer, tonight's moon phase, the country at a coordinate
// pair, the best move in a chess position, the length of a video. Each
// dependency lives behind a small provider interface here, and the Resolver
// gathers whatever the active rules need into one rules.Facts value before a
// reconcile cycle starts. Validation itself never talks to a provider.
//
// Providers return ErrNotFound when the answer does not exist and
// ErrUnavailable when it might exist but could not be fetched; the session
// retries the latter on its next cycle.
package facts

import (
	"context"
	"net/http"
	"time"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

// HTTPClient lets tests inject a mock transport into the HTTP-backed
// providers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WordleSource resolves the wordle answer for a date.
type WordleSource interface {
	Answer(ctx context.Context, date time.Time) (string, error)
}

// MoonCalendar resolves the moon phase for an instant.
type MoonCalendar interface {
	Phase(at time.Time) rules.MoonPhase
}

// Geocoder resolves a coordinate pair to the country name the surface
// accepts, already lowercased.
type Geocoder interface {
	Country(coords rules.Coords) (string, error)
}

// ChessOracle resolves a FEN position to the best move in the surface's
// notation.
type ChessOracle interface {
	BestMove(ctx context.Context, fen string) (string, error)
}

// VideoIndex maps between video IDs and their lengths in seconds.
type VideoIndex interface {
	// Duration returns the length of a known video.
	Duration(id string) (int, bool)

	// Durations returns the whole table, id to seconds. The result is a
	// copy the caller may keep.
	Durations() map[string]int
}

// Clock abstracts time.Now so sessions can be replayed at a fixed instant.
type Clock interface {
	Now() time.Time
}
