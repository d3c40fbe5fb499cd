// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package videotable

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/passmith/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

// fakeSource scripts search pages per query. Page tokens are indices.
type fakeSource struct {
	pages      map[string][][]string
	byID       map[string]Video
	embeddable map[string]bool
}

func (f *fakeSource) Search(ctx context.Context, query string, class Class, pageToken string) ([]string, string, error) {
	pages := f.pages[query]
	idx := 0
	if pageToken != "" {
		idx, _ = strconv.Atoi(pageToken)
	}
	if idx >= len(pages) {
		return nil, "", nil
	}
	next := ""
	if idx+1 < len(pages) {
		next = strconv.Itoa(idx + 1)
	}
	return pages[idx], next, nil
}

func (f *fakeSource) Durations(ctx context.Context, ids []string) ([]Video, error) {
	var out []Video
	for _, id := range ids {
		if v, ok := f.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSource) Embeddable(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if ok, known := f.embeddable[id]; known {
			out[id] = ok
		}
	}
	return out, nil
}

// =============================================================================
// Table
// =============================================================================

func TestUpdateMergesBetterIDs(t *testing.T) {
	table := NewTable(testLogger())

	added, improved := table.Update([]Video{{ID: "abc9", Seconds: 200}})
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, improved)

	// A cheaper id for the same duration replaces the entry.
	added, improved = table.Update([]Video{{ID: "abcd", Seconds: 200}})
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, improved)
	assert.Equal(t, "abcd", table.Videos()[0].ID)

	// Worse on either axis loses, even when better on the other.
	table.Update([]Video{{ID: "zV", Seconds: 200}})
	assert.Equal(t, "abcd", table.Videos()[0].ID)

	// Out of range and duplicate ids are dropped.
	added, _ = table.Update([]Video{
		{ID: "tooshort", Seconds: 10},
		{ID: "toolong", Seconds: 9000},
		{ID: "abcd", Seconds: 500},
	})
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, table.Len())
}

func TestPerfectIDRules(t *testing.T) {
	assert.True(t, PerfectID("q0_wbait"))
	assert.True(t, PerfectID("aIb"))
	assert.False(t, PerfectID("q1w"))
	assert.False(t, PerfectID("aVb"))
	assert.False(t, PerfectID("hY7m"))
}

func TestCoverageCountsPerClass(t *testing.T) {
	table := NewTable(testLogger())
	table.Update([]Video{
		{ID: "short_", Seconds: 200},
		{ID: "med9", Seconds: 500},
		{ID: "long_", Seconds: 1500},
	})

	covered, perfect := table.Coverage(ClassShort)
	assert.Equal(t, 1, covered)
	assert.Equal(t, 1, perfect)

	covered, perfect = table.Coverage(ClassMedium)
	assert.Equal(t, 1, covered)
	assert.Equal(t, 0, perfect)

	covered, _ = table.Coverage(ClassAny)
	assert.Equal(t, 3, covered)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.yaml")
	table := NewTable(testLogger())
	table.Update([]Video{
		{ID: "abcd", Seconds: 234, Title: "some video"},
		{ID: "efgh", Seconds: 240},
	})
	require.NoError(t, table.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Candidate videos"))
	assert.Contains(t, string(data), "PT3M54S")
	assert.Contains(t, string(data), "PT4M")

	loaded, err := LoadTable(testLogger(), path)
	require.NoError(t, err)
	assert.Equal(t, table.Videos(), loaded.Videos())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	table, err := LoadTable(testLogger(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadRejectsDuplicateDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.yaml")
	raw := "videos:\n  - id: one\n    duration: PT4M\n  - id: two\n    duration: PT4M\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := LoadTable(testLogger(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share duration")
}

// =============================================================================
// Builder
// =============================================================================

func TestBuildReachesTarget(t *testing.T) {
	src := &fakeSource{
		pages: map[string][][]string{
			"cat": {{"aa", "bb"}, {"cc"}},
			"dog": {{"dd"}},
		},
		byID: map[string]Video{
			"aa": {ID: "aa", Seconds: 200},
			"bb": {ID: "bb", Seconds: 201},
			"cc": {ID: "cc", Seconds: 202},
			"dd": {ID: "dd", Seconds: 203},
		},
	}
	b, err := NewBuilder(testLogger(), src, Config{
		Target:      4,
		RequestRate: rate.Inf,
		Queries:     []string{"cat", "dog"},
		Seed:        1,
	})
	require.NoError(t, err)

	require.NoError(t, b.Build(context.Background()))
	assert.Equal(t, 4, b.Table().Len())
}

func TestBuildRunsOutOfQueries(t *testing.T) {
	src := &fakeSource{
		pages: map[string][][]string{"cat": {{"aa"}}},
		byID:  map[string]Video{"aa": {ID: "aa", Seconds: 200}},
	}
	b, err := NewBuilder(testLogger(), src, Config{
		Target:      50,
		RequestRate: rate.Inf,
		Queries:     []string{"cat"},
		Seed:        1,
	})
	require.NoError(t, err)

	err = b.Build(context.Background())
	assert.ErrorIs(t, err, ErrOutOfQueries)
	assert.Equal(t, 1, b.Table().Len())
}

func TestBuildPerfectOnlyFiltersSearchHits(t *testing.T) {
	src := &fakeSource{
		pages: map[string][][]string{"cat": {{"good_", "bad9"}}},
		byID: map[string]Video{
			"good_": {ID: "good_", Seconds: 200},
			"bad9":  {ID: "bad9", Seconds: 201},
		},
	}
	b, err := NewBuilder(testLogger(), src, Config{
		Target:      1,
		RequestRate: rate.Inf,
		PerfectOnly: true,
		Queries:     []string{"cat"},
		Seed:        1,
	})
	require.NoError(t, err)

	require.NoError(t, b.Build(context.Background()))
	vids := b.Table().Videos()
	require.Len(t, vids, 1)
	assert.Equal(t, "good_", vids[0].ID)
}

func TestPruneNonEmbeddable(t *testing.T) {
	src := &fakeSource{
		embeddable: map[string]bool{"keep": true, "drop": false},
	}
	b, err := NewBuilder(testLogger(), src, Config{
		RequestRate: rate.Inf,
		Queries:     []string{"unused"},
	})
	require.NoError(t, err)
	b.Table().Update([]Video{
		{ID: "keep", Seconds: 200},
		{ID: "drop", Seconds: 201},
		{ID: "gone", Seconds: 202},
	})

	removed, err := b.PruneNonEmbeddable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	require.Equal(t, 1, b.Table().Len())
	assert.Equal(t, "keep", b.Table().Videos()[0].ID)
}

func TestIsoDurationFormatting(t *testing.T) {
	assert.Equal(t, "PT3M54S", isoDuration(234))
	assert.Equal(t, "PT4M", isoDuration(240))
	assert.Equal(t, "PT36M19S", isoDuration(2179))
}

func TestEmbeddedQueriesParse(t *testing.T) {
	queries := embeddedQueries()
	assert.Greater(t, len(queries), 100)
	for _, q := range queries {
		assert.NotEmpty(t, q)
		assert.False(t, strings.HasPrefix(q, "#"))
	}
}
