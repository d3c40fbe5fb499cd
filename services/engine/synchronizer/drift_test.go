// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synchronizer

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/services/engine/password"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		intended string
		observed string
		want     Drift
	}{
		{"identical", "hunter2", "hunter2", DriftNone},
		{"trailing bugs eaten", "feed🐛🐛", "feed", DriftBugsEaten},
		{"scattered bugs eaten", "a🐛b🐛c", "abc", DriftBugsEaten},
		{"flame inserted", "camp", "ca🔥mp", DriftFire},
		{"character burned", "camp", "c🔥mp", DriftFire},
		{"two flames", "camp", "🔥camp🔥", DriftFire},
		{"egg hatched", "🥚rest", "🐔rest", DriftHatched},
		{"chicken died", "🐔rest", "🪦rest", DriftGameOver},
		{"stranger text", "abc", "xyz", DriftLost},
		{"stray insertion", "abc", "abXc", DriftLost},
		{"plain deletion", "abc", "ab", DriftLost},
		{"both empty sides", "", "", DriftNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.intended, tt.observed))
		})
	}
}

func TestDriftFatal(t *testing.T) {
	assert.True(t, DriftGameOver.Fatal())
	assert.False(t, DriftNone.Fatal())
	assert.False(t, DriftFire.Fatal())
	assert.False(t, DriftLost.Fatal())
}

func TestDriftString(t *testing.T) {
	assert.Equal(t, "none", DriftNone.String())
	assert.Equal(t, "bugs_eaten", DriftBugsEaten.String())
	assert.Equal(t, "game_over", DriftGameOver.String())
	assert.Equal(t, "Drift(42)", Drift(42).String())
}

func adoptText(t *testing.T, doc *password.Document, observed string) *password.Document {
	t.Helper()
	diffs := diffmatchpatch.New().DiffMain(doc.String(), observed, false)
	out, err := adopt(doc, diffs)
	require.NoError(t, err)
	return out
}

func TestAdoptInsertsBareFlame(t *testing.T) {
	doc := password.New("camp")
	require.NoError(t, doc.Protect(0))

	out := adoptText(t, doc, "c🔥amp")
	assert.Equal(t, "c🔥amp", out.String())
	assert.True(t, out.ProtectedAt(0))
	assert.False(t, out.ProtectedAt(1))
	assert.Equal(t, password.DefaultFormat(), out.FormatAt(1))

	// The source document is untouched.
	assert.Equal(t, "camp", doc.String())
}

func TestAdoptBurnsThroughProtection(t *testing.T) {
	doc := password.New("camp")
	require.NoError(t, doc.Protect(1))

	out := adoptText(t, doc, "c🔥mp")
	assert.Equal(t, "c🔥mp", out.String())
	assert.False(t, out.ProtectedAt(1), "a flame cell must stay removable")
}

func TestAdoptCarriesFormatsAcrossInsert(t *testing.T) {
	doc := password.New("ab")
	require.NoError(t, doc.Queue(password.FormatAt(1, password.FormatChange{Field: password.FieldBold})))
	require.NoError(t, doc.Commit())

	out := adoptText(t, doc, "🔥ab")
	assert.Equal(t, "🔥ab", out.String())
	assert.True(t, out.FormatAt(2).Bold)
	assert.False(t, out.FormatAt(0).Bold)
}

func TestAdoptHatchSwap(t *testing.T) {
	doc := password.New("🥚guard")
	require.NoError(t, doc.Protect(0))

	out := adoptText(t, doc, "🐔guard")
	assert.Equal(t, "🐔guard", out.String())
	assert.False(t, out.ProtectedAt(0))
}
