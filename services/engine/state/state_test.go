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
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func newState(t *testing.T, text string) *State {
	t.Helper()
	return New(testLogger(), password.New(text))
}

// =============================================================================
// Ledger Tests
// =============================================================================

func TestAddRuleAppendsInDiscoveryOrder(t *testing.T) {
	s := newState(t, "seed")

	assert.True(t, s.AddRule(rules.New(rules.KindMinLength)))
	assert.True(t, s.AddRule(rules.New(rules.KindNumber)))
	assert.True(t, s.AddRule(rules.New(rules.KindUppercase)))

	entries := s.Rules()
	require.Len(t, entries, 3)
	assert.Equal(t, rules.KindMinLength, entries[0].Rule.Kind)
	assert.Equal(t, rules.KindNumber, entries[1].Rule.Kind)
	assert.Equal(t, rules.KindUppercase, entries[2].Rule.Kind)
	for i, e := range entries {
		assert.False(t, e.Satisfied, "entry %d starts unsatisfied", i)
	}
}

func TestAddRuleIdenticalIsNoOp(t *testing.T) {
	s := newState(t, "seed")

	require.True(t, s.AddRule(rules.New(rules.KindMinLength)))
	before := s.Revision()

	// Every poll re-parses the whole visible rule list.
	assert.False(t, s.AddRule(rules.New(rules.KindMinLength)))
	assert.Equal(t, before, s.Revision())
	assert.Equal(t, 1, s.Len())
}

func TestAddRuleRefreshedParametersUpdateInPlace(t *testing.T) {
	s := newState(t, "seed")

	require.True(t, s.AddRule(rules.NewCaptcha("d22bd")))
	require.NoError(t, s.Mark(0, true))

	assert.True(t, s.AddRule(rules.NewCaptcha("x9f2a")))

	entries := s.Rules()
	require.Len(t, entries, 1)
	assert.Equal(t, "x9f2a", entries[0].Rule.Captcha)
	assert.False(t, entries[0].Satisfied, "refreshed rule needs re-checking")
}

func TestMark(t *testing.T) {
	s := newState(t, "seed")
	require.True(t, s.AddRule(rules.New(rules.KindMinLength)))
	require.True(t, s.AddRule(rules.New(rules.KindNumber)))

	require.NoError(t, s.Mark(0, true))
	assert.False(t, s.AllSatisfied())
	assert.Equal(t, []int{1}, s.Unsatisfied())

	require.NoError(t, s.Mark(1, true))
	assert.True(t, s.AllSatisfied())
	assert.Empty(t, s.Unsatisfied())

	require.NoError(t, s.Mark(0, false))
	assert.Equal(t, []int{0}, s.Unsatisfied())

	assert.ErrorIs(t, s.Mark(7, true), ErrEntryOutOfRange)
	assert.ErrorIs(t, s.Mark(-1, true), ErrEntryOutOfRange)
}

func TestMarkRecordsRevision(t *testing.T) {
	s := newState(t, "seed")
	require.True(t, s.AddRule(rules.New(rules.KindMinLength)))

	require.NoError(t, s.Mark(0, true))
	entries := s.Rules()
	assert.Equal(t, s.Revision(), entries[0].RevisionChecked)
}

func TestAllSatisfiedOnEmptyLedger(t *testing.T) {
	s := newState(t, "seed")
	assert.True(t, s.AllSatisfied())
}

// =============================================================================
// Document Tests
// =============================================================================

func TestSnapshotReflectsCommits(t *testing.T) {
	s := newState(t, "before")

	text, rev := s.Snapshot()
	assert.Equal(t, "before", text)
	assert.Equal(t, uint64(0), rev)

	require.NoError(t, s.SetDoc(password.New("after")))

	text, rev2 := s.Snapshot()
	assert.Equal(t, "after", text)
	assert.Greater(t, rev2, rev)
}

func TestSetDocRejectsNil(t *testing.T) {
	s := newState(t, "seed")
	assert.ErrorIs(t, s.SetDoc(nil), ErrNilDocument)
}

func TestDocReturnsLiveDocument(t *testing.T) {
	s := newState(t, "seed")
	doc := s.Doc()
	require.NoError(t, doc.Queue(password.Append("!")))
	require.NoError(t, doc.Commit())

	text, _ := s.Snapshot()
	assert.Equal(t, "seed!", text)
}

func TestEveryMutationBumpsRevision(t *testing.T) {
	s := newState(t, "seed")

	r0 := s.Revision()
	require.True(t, s.AddRule(rules.New(rules.KindMinLength)))
	r1 := s.Revision()
	require.NoError(t, s.Mark(0, true))
	r2 := s.Revision()
	require.NoError(t, s.SetDoc(password.New("next")))
	r3 := s.Revision()

	assert.Greater(t, r1, r0)
	assert.Greater(t, r2, r1)
	assert.Greater(t, r3, r2)
}

// The synchronizer reads snapshots while the engine commits; the race
// detector keeps this honest.
func TestSnapshotConcurrentWithCommits(t *testing.T) {
	s := newState(t, "seed")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.SetDoc(password.New("committed"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			text, _ := s.Snapshot()
			assert.NotEmpty(t, text)
		}
	}()
	wg.Wait()
}

// =============================================================================
// Journaled Commits
// =============================================================================

func TestSetDocJournalsCommits(t *testing.T) {
	j, err := NewJournal(JournalConfig{
		SessionID: uuid.NewString(),
		InMemory:  true,
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	s := New(testLogger(), password.New("seed"), WithJournal(j))
	defer s.Close()

	require.True(t, s.AddRule(rules.New(rules.KindMinLength)))
	require.True(t, s.AddRule(rules.New(rules.KindNumber)))
	require.NoError(t, s.SetDoc(password.New("first")))
	require.NoError(t, s.SetDoc(password.New("second")))

	records, err := j.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "first", records[0].Text)
	assert.Equal(t, "second", records[1].Text)
	assert.Equal(t, []int{1, 2}, records[1].Ordinals)
	assert.Greater(t, records[1].Revision, records[0].Revision)
}
