// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repair

import (
	"fmt"
	"sync"
	"time"
)

// Phase names a stage of the reconciliation cycle.
type Phase string

const (
	// PhaseIdle is the rest state between cycles.
	PhaseIdle Phase = "IDLE"

	// PhaseValidating partitions the ledger into satisfied and
	// unsatisfied rules.
	PhaseValidating Phase = "VALIDATING"

	// PhaseSolving picks a target rule and asks its strategy for an edit.
	PhaseSolving Phase = "SOLVING"

	// PhaseApplying commits a proposed edit to the document.
	PhaseApplying Phase = "APPLYING"

	// PhaseVerifying re-validates the ledger after a committed edit.
	PhaseVerifying Phase = "VERIFYING"

	// PhaseBacktracking rolls an edit back and selects an alternate.
	PhaseBacktracking Phase = "BACKTRACKING"
)

func (p Phase) String() string { return string(p) }

// historyLimit bounds the transition ring.
const historyLimit = 64

// TransitionRecord is one entry of the machine's history ring.
type TransitionRecord struct {
	From   Phase
	To     Phase
	Reason string
	At     time.Time
}

// Machine enforces the phase graph of a reconciliation cycle:
//
//	IDLE → VALIDATING          : cycle begins
//	VALIDATING → SOLVING       : unsatisfied rules remain
//	VALIDATING → IDLE          : every rule holds
//	SOLVING → APPLYING         : a strategy proposed an edit
//	SOLVING → IDLE             : no applicable edit this cycle
//	APPLYING → VERIFYING       : edit committed
//	APPLYING → BACKTRACKING    : edit rejected before commit
//	APPLYING → IDLE            : apply abandoned
//	VERIFYING → IDLE           : edit kept
//	VERIFYING → BACKTRACKING   : edit rolled back
//	BACKTRACKING → APPLYING    : alternate edit available
//	BACKTRACKING → SOLVING     : alternates exhausted, new target
//	BACKTRACKING → IDLE        : nothing left to try
//
// Thread Safety: Machine is safe for concurrent use.
type Machine struct {
	mu          sync.Mutex
	transitions map[Phase]map[Phase]bool
	current     Phase

	// history is a ring of the most recent transitions; cursor points at
	// the next slot to overwrite once the ring is full.
	history []TransitionRecord
	cursor  int
}

// NewMachine builds a machine resting at PhaseIdle.
func NewMachine() *Machine {
	m := &Machine{
		transitions: make(map[Phase]map[Phase]bool),
		current:     PhaseIdle,
	}

	m.addTransition(PhaseIdle, PhaseValidating)

	m.addTransition(PhaseValidating, PhaseSolving)
	m.addTransition(PhaseValidating, PhaseIdle)

	m.addTransition(PhaseSolving, PhaseApplying)
	m.addTransition(PhaseSolving, PhaseIdle)

	m.addTransition(PhaseApplying, PhaseVerifying)
	m.addTransition(PhaseApplying, PhaseBacktracking)
	m.addTransition(PhaseApplying, PhaseIdle)

	m.addTransition(PhaseVerifying, PhaseIdle)
	m.addTransition(PhaseVerifying, PhaseBacktracking)

	m.addTransition(PhaseBacktracking, PhaseApplying)
	m.addTransition(PhaseBacktracking, PhaseSolving)
	m.addTransition(PhaseBacktracking, PhaseIdle)

	return m
}

func (m *Machine) addTransition(from, to Phase) {
	if m.transitions[from] == nil {
		m.transitions[from] = make(map[Phase]bool)
	}
	m.transitions[from][to] = true
}

// Current returns the machine's phase.
func (m *Machine) Current() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CanTransition reports whether moving to the given phase is valid from
// the current one.
func (m *Machine) CanTransition(to Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[m.current][to]
}

// Transition moves the machine to the given phase and records the move
// in the history ring. Returns ErrInvalidTransition when the graph has
// no such edge.
func (m *Machine) Transition(to Phase, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.transitions[m.current][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}

	m.record(TransitionRecord{From: m.current, To: to, Reason: reason, At: time.Now()})
	m.current = to
	return nil
}

// Reset forces the machine back to PhaseIdle without walking the graph.
// Used after an abandoned cycle left it mid-phase.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == PhaseIdle {
		return
	}
	m.record(TransitionRecord{From: m.current, To: PhaseIdle, Reason: "reset", At: time.Now()})
	m.current = PhaseIdle
}

// History returns the recorded transitions, oldest first.
func (m *Machine) History() []TransitionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) < historyLimit {
		out := make([]TransitionRecord, len(m.history))
		copy(out, m.history)
		return out
	}
	out := make([]TransitionRecord, 0, historyLimit)
	out = append(out, m.history[m.cursor:]...)
	out = append(out, m.history[:m.cursor]...)
	return out
}

// record appends to the ring. Caller holds mu.
func (m *Machine) record(r TransitionRecord) {
	if len(m.history) < historyLimit {
		m.history = append(m.history, r)
		return
	}
	m.history[m.cursor] = r
	m.cursor = (m.cursor + 1) % historyLimit
}
