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
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

var (
	// ErrInvalidTransition is returned when a phase transition is not in
	// the machine's graph.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrUnsatisfiable is returned when the revealed rules cannot all
	// hold at once, or the budget ran out trying.
	ErrUnsatisfiable = errors.New("rule set is unsatisfiable")

	// ErrFactsPending is returned when repair is blocked on facts the
	// surface has not produced yet.
	ErrFactsPending = errors.New("repair is waiting on surface facts")

	// ErrBudgetExhausted is the generic budget failure.
	ErrBudgetExhausted = errors.New("repair budget exhausted")

	// ErrCycleLimitExceeded is returned when MaxCycles is reached.
	ErrCycleLimitExceeded = errors.New("cycle limit exceeded")

	// ErrEditLimitExceeded is returned when a single rule has consumed
	// MaxEditsPerRule edits.
	ErrEditLimitExceeded = errors.New("per-rule edit limit exceeded")

	// ErrBacktrackLimitExceeded is returned when MaxBacktracks is reached.
	ErrBacktrackLimitExceeded = errors.New("backtrack limit exceeded")

	// ErrFactCallLimitExceeded is returned when MaxFactCalls is reached.
	ErrFactCallLimitExceeded = errors.New("fact call limit exceeded")

	// ErrTimeLimitExceeded is returned when the wall clock limit is hit.
	ErrTimeLimitExceeded = errors.New("time limit exceeded")
)

// UnsatisfiableError reports a reconciliation dead end: the rules named
// in Conflicting cannot all hold at once, or the budget ran out before
// they did.
type UnsatisfiableError struct {
	// Conflicting names the rules implicated in the dead end.
	Conflicting []rules.Kind

	// Exhausted names the budget dimension that tripped, empty when the
	// dead end is structural.
	Exhausted string

	// Reason describes the dead end.
	Reason string
}

func (e *UnsatisfiableError) Error() string {
	var b strings.Builder
	b.WriteString("rule set is unsatisfiable")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Exhausted != "" {
		fmt.Fprintf(&b, " (budget: %s)", e.Exhausted)
	}
	if len(e.Conflicting) > 0 {
		fmt.Fprintf(&b, " (rules: %s)", strings.Join(slugs(e.Conflicting), ", "))
	}
	return b.String()
}

func (e *UnsatisfiableError) Unwrap() error { return ErrUnsatisfiable }

// PendingError lists the rules whose repair is blocked until the surface
// produces facts: a started fire, an acknowledged sacrifice, a fresh
// captcha.
type PendingError struct {
	// Rules names the blocked rules in the order they were tried.
	Rules []rules.Kind
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("repair is waiting on surface facts (rules: %s)",
		strings.Join(slugs(e.Rules), ", "))
}

func (e *PendingError) Unwrap() error { return ErrFactsPending }

func slugs(kinds []rules.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.Slug()
	}
	return out
}
