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

import "fmt"

// Policy orders unsatisfied rules for repair.
type Policy int

const (
	// NewestFirst repairs the most recently revealed unsatisfied rule
	// first. A fresh rule is what blocks the game, and the older rules
	// behind it usually regressed as a side effect of new text.
	NewestFirst Policy = iota

	// OldestFirst repairs in reveal order.
	OldestFirst
)

func (p Policy) String() string {
	switch p {
	case NewestFirst:
		return "newest-first"
	case OldestFirst:
		return "oldest-first"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration string to a Policy. The empty string
// selects the default.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "newest-first":
		return NewestFirst, nil
	case "oldest-first":
		return OldestFirst, nil
	default:
		return NewestFirst, fmt.Errorf("unknown conflict policy %q", s)
	}
}

// order returns entry indexes in target priority. unsatisfied arrives in
// ascending reveal order.
func (p Policy) order(unsatisfied []int) []int {
	out := make([]int, 0, len(unsatisfied))
	if p == NewestFirst && len(unsatisfied) > 1 {
		out = append(out, unsatisfied[len(unsatisfied)-1])
		out = append(out, unsatisfied[:len(unsatisfied)-1]...)
		return out
	}
	return append(out, unsatisfied...)
}

// backtrackOrder returns the order to try remaining targets after a
// target's alternates are exhausted: oldest first under either policy.
func (p Policy) backtrackOrder(unsatisfied []int) []int {
	out := make([]int, len(unsatisfied))
	copy(out, unsatisfied)
	return out
}
