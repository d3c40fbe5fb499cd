// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(JournalConfig{
		SessionID: uuid.NewString(),
		InMemory:  true,
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// =============================================================================
// JournalConfig Tests
// =============================================================================

func TestJournalConfigValidate(t *testing.T) {
	t.Run("valid in-memory config", func(t *testing.T) {
		cfg := JournalConfig{SessionID: "test-session", InMemory: true}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("valid persistent config", func(t *testing.T) {
		cfg := JournalConfig{SessionID: "test-session", Path: "/tmp/journal"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing session_id", func(t *testing.T) {
		cfg := JournalConfig{InMemory: true}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session_id")
	})

	t.Run("missing path for persistent", func(t *testing.T) {
		cfg := JournalConfig{SessionID: "test-session"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path")
	})
}

// =============================================================================
// Journal Tests
// =============================================================================

func TestJournalAppendAndReplay(t *testing.T) {
	ctx := context.Background()
	j := createTestJournal(t)

	records := []Record{
		{Revision: 3, Text: "🥚0mayXXXVshell", Ordinals: []int{1, 2}},
		{Revision: 5, Text: "🥚0mayXXXVshell9", Ordinals: []int{1, 2, 3}},
		{Revision: 9, Text: "🥚0mayXXXVshell9Z", Ordinals: []int{1, 2, 3, 4}},
	}
	for _, rec := range records {
		require.NoError(t, j.Append(ctx, rec))
	}
	assert.Equal(t, uint64(3), j.LastSeq())

	replayed, err := j.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, replayed, 3)

	for i, rec := range replayed {
		assert.Equal(t, uint64(i+1), rec.Seq)
		assert.Equal(t, records[i].Revision, rec.Revision)
		assert.Equal(t, records[i].Text, rec.Text)
		assert.Equal(t, records[i].Ordinals, rec.Ordinals)
		assert.False(t, rec.At.IsZero())
	}
}

func TestJournalReplayEmpty(t *testing.T) {
	j := createTestJournal(t)

	records, err := j.Replay(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJournalSequenceResumesAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	session := uuid.NewString()

	open := func() *Journal {
		j, err := NewJournal(JournalConfig{
			SessionID:  session,
			Path:       dir,
			SyncWrites: true,
			Logger:     testLogger(),
		})
		require.NoError(t, err)
		return j
	}

	j := open()
	require.NoError(t, j.Append(ctx, Record{Revision: 1, Text: "a"}))
	require.NoError(t, j.Append(ctx, Record{Revision: 2, Text: "ab"}))
	require.NoError(t, j.Close())

	j = open()
	defer j.Close()
	assert.Equal(t, uint64(2), j.LastSeq())

	require.NoError(t, j.Append(ctx, Record{Revision: 3, Text: "abc"}))
	records, err := j.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, uint64(3), records[2].Seq)
}

func TestJournalSessionIsolation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	open := func(session string) *Journal {
		j, err := NewJournal(JournalConfig{
			SessionID: session,
			Path:      dir,
			Logger:    testLogger(),
		})
		require.NoError(t, err)
		return j
	}

	// Two sessions share one on-disk store; the key prefix keeps their
	// records apart.
	first := open("session-a")
	require.NoError(t, first.Append(ctx, Record{Revision: 1, Text: "mine"}))
	require.NoError(t, first.Close())

	second := open("session-b")
	defer second.Close()
	assert.Equal(t, uint64(0), second.LastSeq())
	records, err := second.Replay(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJournalClosed(t *testing.T) {
	ctx := context.Background()
	j := createTestJournal(t)
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Append(ctx, Record{Revision: 1, Text: "x"}), ErrJournalClosed)
	_, err := j.Replay(ctx)
	assert.ErrorIs(t, err, ErrJournalClosed)
	assert.ErrorIs(t, j.Sync(), ErrJournalClosed)

	// Double close is a no-op.
	assert.NoError(t, j.Close())
}

func TestJournalInvalidConfig(t *testing.T) {
	_, err := NewJournal(JournalConfig{})
	assert.Error(t, err)
}

// =============================================================================
// Record Codec Tests
// =============================================================================

func TestRecordCodecDetectsCorruption(t *testing.T) {
	data, err := encodeRecord(Record{Seq: 7, Revision: 12, Text: "🥚abc", Ordinals: []int{1, 2, 3}})
	require.NoError(t, err)

	decoded, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), decoded.Seq)
	assert.Equal(t, "🥚abc", decoded.Text)

	// Flip one payload byte; the checksum must catch it.
	data[len(data)-1] ^= 0xFF
	_, err = decodeRecord(data)
	assert.ErrorIs(t, err, ErrJournalCorrupted)

	_, err = decodeRecord([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrJournalCorrupted)
}
