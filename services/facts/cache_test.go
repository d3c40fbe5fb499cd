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
)

func TestCache_RoundTrip(t *testing.T) {
	cache, err := OpenCache("")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	_, ok := cache.Get(ctx, "wordle/2026-08-25")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "wordle/2026-08-25", "shard", time.Hour))

	value, ok := cache.Get(ctx, "wordle/2026-08-25")
	require.True(t, ok)
	assert.Equal(t, "shard", value)

	require.NoError(t, cache.Delete(ctx, "wordle/2026-08-25"))
	_, ok = cache.Get(ctx, "wordle/2026-08-25")
	assert.False(t, ok)

	// Deleting a missing key is fine.
	assert.NoError(t, cache.Delete(ctx, "never-set"))
}

func TestCache_ZeroTTLPersists(t *testing.T) {
	cache, err := OpenCache("")
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "video/abcdefghijk", "213", 0))

	value, ok := cache.Get(ctx, "video/abcdefghijk")
	require.True(t, ok)
	assert.Equal(t, "213", value)
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	cache, err := OpenCache(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "wordle/2026-08-25", "shard", time.Hour))
	require.NoError(t, cache.Close())

	cache2, err := OpenCache(dir)
	require.NoError(t, err)
	defer cache2.Close()

	value, ok := cache2.Get(ctx, "wordle/2026-08-25")
	require.True(t, ok)
	assert.Equal(t, "shard", value)
}
