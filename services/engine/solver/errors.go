// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

var (
	// ErrInfeasible is the sentinel wrapped by every InfeasibleError.
	ErrInfeasible = errors.New("no feasible edit")

	// ErrTimeout is returned when a fact-backed strategy runs out of time.
	// Always retryable.
	ErrTimeout = errors.New("solver timed out")
)

// InfeasibleError reports that a strategy could not produce an edit for a
// rule. Retryable distinguishes a missing fact (resolve it and ask again)
// from a genuine dead end the repair engine should give up on.
type InfeasibleError struct {
	// Rule is the rule the strategy was asked to satisfy.
	Rule rules.Rule

	// Reason is a short human-readable explanation.
	Reason string

	// Retryable is true when a later cycle might succeed, for example
	// once a fact provider has an answer.
	Retryable bool
}

// Error implements the error interface.
func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule.Kind.Slug(), e.Reason)
}

// Unwrap ties the error into the ErrInfeasible sentinel chain.
func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}
