// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package state holds the constraint ledger of one game attempt: the
// revealed rules in discovery order, the current password document, and a
// revision counter bumped on every mutation.
//
// The ledger does no solving and no validation of its own. The repair
// engine owns it for the duration of a reconciliation cycle; the
// synchronizer only ever reads consistent snapshots. A mutex guards the
// snapshot/commit boundary between the two.
//
// An optional badger-backed journal records every document commit so a
// crashed or lost game can be inspected afterwards. The journal is
// bookkeeping, not a source of truth: append failures are logged and the
// attempt keeps going.
package state

import (
	"context"
	"sync"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// =============================================================================
// Ledger Entries
// =============================================================================

// Entry is one revealed rule and its last known verdict.
type Entry struct {
	// Rule is the parsed rule, immutable once revealed.
	Rule rules.Rule

	// Satisfied is the verdict from the most recent validation.
	Satisfied bool

	// RevisionChecked is the state revision at which Satisfied was last
	// recorded. Stale verdicts are re-checked every cycle regardless.
	RevisionChecked uint64
}

// =============================================================================
// State
// =============================================================================

// State is the constraint ledger for one attempt.
//
// Rules are append-only in discovery order. The document is the single
// mutable value; SetDoc is the only commit point. All methods are safe
// for concurrent use, though the intended shape is one writer (the
// repair engine) and one snapshot reader (the synchronizer).
type State struct {
	mu sync.Mutex

	logger  *logging.Logger
	doc     *password.Document
	entries []Entry

	// revision increases on every mutation: rule reveals, verdict marks,
	// and document commits all bump it.
	revision uint64

	// journal, when set, records document commits.
	journal *Journal
}

// Option configures a State.
type Option func(*State)

// WithJournal attaches a commit journal. The State takes ownership and
// closes it with Close.
func WithJournal(j *Journal) Option {
	return func(s *State) { s.journal = j }
}

// New builds a State around doc. A nil doc starts the attempt from an
// empty password; a nil logger falls back to the default.
func New(logger *logging.Logger, doc *password.Document, opts ...Option) *State {
	if logger == nil {
		logger = logging.Default()
	}
	if doc == nil {
		doc = password.New("")
	}
	s := &State{
		logger: logger,
		doc:    doc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRule appends a newly revealed rule to the ledger, unsatisfied.
//
// Re-adding a rule identical to one already revealed is a no-op, because
// the surface re-displays every rule on every poll. When a rule of the
// same family arrives with different parameters (a refreshed captcha),
// the entry is updated in place and its verdict reset; the ledger never
// shrinks and never reorders.
//
// Returns true when the ledger changed.
func (s *State) AddRule(rule rules.Rule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Rule.Kind != rule.Kind {
			continue
		}
		if s.entries[i].Rule == rule {
			return false
		}
		s.revision++
		s.entries[i].Rule = rule
		s.entries[i].Satisfied = false
		s.entries[i].RevisionChecked = 0
		s.logger.Info("rule parameters changed",
			"rule", rule.Kind.Slug(),
			"number", rule.Number(),
			"revision", s.revision)
		return true
	}

	s.revision++
	s.entries = append(s.entries, Entry{Rule: rule})
	s.logger.Info("rule revealed",
		"rule", rule.Kind.Slug(),
		"number", rule.Number(),
		"revealed", len(s.entries),
		"revision", s.revision)
	return true
}

// Mark records the validation verdict for the i-th revealed rule.
func (s *State) Mark(i int, satisfied bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.entries) {
		return ErrEntryOutOfRange
	}
	s.revision++
	s.entries[i].Satisfied = satisfied
	s.entries[i].RevisionChecked = s.revision
	return nil
}

// AllSatisfied reports whether every revealed rule passed its last
// validation. An empty ledger counts as satisfied.
func (s *State) AllSatisfied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if !s.entries[i].Satisfied {
			return false
		}
	}
	return true
}

// Unsatisfied returns the ledger indices of rules that failed their last
// validation, in discovery order.
func (s *State) Unsatisfied() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int
	for i := range s.entries {
		if !s.entries[i].Satisfied {
			out = append(out, i)
		}
	}
	return out
}

// Rules returns a copy of the ledger in discovery order.
func (s *State) Rules() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of revealed rules.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Revision returns the current revision counter.
func (s *State) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Snapshot returns the current password text and the revision it belongs
// to. This is the synchronizer's read point.
func (s *State) Snapshot() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.String(), s.revision
}

// Doc returns the live document. The repair engine owns it for the
// duration of a cycle; nothing else may mutate it.
func (s *State) Doc() *password.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// SetDoc commits doc as the current password and bumps the revision.
// This is the engine's only commit point; when a journal is attached the
// commit is recorded with the revealed rule ordinals.
func (s *State) SetDoc(doc *password.Document) error {
	if doc == nil {
		return ErrNilDocument
	}

	s.mu.Lock()
	s.revision++
	s.doc = doc
	revision := s.revision
	text := doc.String()
	ordinals := make([]int, len(s.entries))
	for i := range s.entries {
		ordinals[i] = s.entries[i].Rule.Number()
	}
	journal := s.journal
	s.mu.Unlock()

	s.logger.Debug("document committed",
		"revision", revision,
		"length", len(password.Split(text)),
		"rules", len(ordinals))

	if journal != nil {
		err := journal.Append(context.Background(), Record{
			Revision: revision,
			Text:     text,
			Ordinals: ordinals,
		})
		if err != nil {
			s.logger.Warn("journal append failed",
				"revision", revision,
				"error", err.Error())
		}
	}
	return nil
}

// Close releases the journal, if any.
func (s *State) Close() error {
	s.mu.Lock()
	journal := s.journal
	s.journal = nil
	s.mu.Unlock()

	if journal != nil {
		return journal.Close()
	}
	return nil
}
