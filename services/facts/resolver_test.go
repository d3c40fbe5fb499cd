// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

// -----------------------------------------------------------------------------
// Provider Fakes
// -----------------------------------------------------------------------------

type fakeWordle struct {
	answer string
	err    error
	calls  int
}

func (f *fakeWordle) Answer(ctx context.Context, date time.Time) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeMoon struct {
	phase rules.MoonPhase
}

func (f fakeMoon) Phase(at time.Time) rules.MoonPhase { return f.phase }

type fakeGeo map[rules.Coords]string

func (f fakeGeo) Country(coords rules.Coords) (string, error) {
	country, ok := f[coords]
	if !ok {
		return "", ErrNotFound
	}
	return country, nil
}

type fakeChess map[string]string

func (f fakeChess) BestMove(ctx context.Context, fen string) (string, error) {
	move, ok := f[fen]
	if !ok {
		return "", ErrNotFound
	}
	return move, nil
}

type fakeVideos map[string]int

func (f fakeVideos) Duration(id string) (int, bool) {
	seconds, ok := f[id]
	return seconds, ok
}

func (f fakeVideos) Durations() map[string]int {
	out := make(map[string]int, len(f))
	for id, seconds := range f {
		out[id] = seconds
	}
	return out
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

func TestProviders_Snapshot(t *testing.T) {
	now := time.Date(2026, 8, 25, 4, 8, 0, 0, time.UTC)
	coords := rules.Coords{Lat: -25.344428, Long: 131.036882}
	fen := "6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1"

	wordle := &fakeWordle{answer: "shard"}
	providers := &Providers{
		Wordle: wordle,
		Moon:   fakeMoon{phase: rules.FullMoon},
		Geo:    fakeGeo{coords: "australia"},
		Chess:  fakeChess{fen: "Re8+"},
		Videos: fakeVideos{"dQw4w9WgXcQ": 213},
		Clock:  FixedClock{At: now},
		Logger: testLogger(),
	}

	active := []rules.Rule{
		rules.New(rules.KindMinLength),
		rules.New(rules.KindWordle),
		rules.New(rules.KindMoonPhase),
		rules.NewGeo(coords),
		rules.NewChess(fen),
		rules.NewYoutube(213),
	}

	facts, err := providers.Snapshot(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, now, facts.Now)
	assert.Equal(t, "shard", facts.WordleAnswer)
	assert.Equal(t, rules.FullMoon.Emojis(), facts.MoonEmojis)

	country, ok := facts.Country(coords)
	require.True(t, ok)
	assert.Equal(t, "australia", country)

	move, ok := facts.BestMove(fen)
	require.True(t, ok)
	assert.Equal(t, "Re8+", move)

	seconds, ok := facts.VideoDuration("dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, 213, seconds)
}

func TestProviders_SnapshotDedupes(t *testing.T) {
	wordle := &fakeWordle{answer: "shard"}
	providers := &Providers{
		Wordle: wordle,
		Clock:  FixedClock{At: time.Now()},
		Logger: testLogger(),
	}

	active := []rules.Rule{
		rules.New(rules.KindWordle),
		rules.New(rules.KindWordle),
	}

	_, err := providers.Snapshot(context.Background(), active)
	require.NoError(t, err)
	assert.Equal(t, 1, wordle.calls)
}

func TestProviders_SnapshotPartialFailure(t *testing.T) {
	providers := &Providers{
		Wordle: &fakeWordle{err: ErrUnavailable},
		Moon:   fakeMoon{phase: rules.NewMoon},
		Clock:  FixedClock{At: time.Now()},
		Logger: testLogger(),
	}

	active := []rules.Rule{
		rules.New(rules.KindWordle),
		rules.New(rules.KindMoonPhase),
		// No chess provider wired at all.
		rules.NewChess("6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1"),
	}

	facts, err := providers.Snapshot(context.Background(), active)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	// The failures leave their facts unset; the rest still resolved.
	assert.Empty(t, facts.WordleAnswer)
	_, ok := facts.BestMove("6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1")
	assert.False(t, ok)
	assert.Equal(t, rules.NewMoon.Emojis(), facts.MoonEmojis)
}

func TestProviders_SnapshotWithoutProvidersForInertRules(t *testing.T) {
	providers := &Providers{
		Clock:  FixedClock{At: time.Now()},
		Logger: testLogger(),
	}

	active := []rules.Rule{
		rules.New(rules.KindMinLength),
		rules.New(rules.KindDigits),
		rules.New(rules.KindSkip),
	}

	facts, err := providers.Snapshot(context.Background(), active)
	require.NoError(t, err)
	assert.NotNil(t, facts)
}
