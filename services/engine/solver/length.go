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
	"strconv"
	"strings"

	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

const (
	// lengthBudget is the width of the length string, three digits for
	// any goal between 100 and 999.
	lengthBudget = 3

	// timeBudget is the width budgeted for the clock. h:mm is four or
	// five graphemes; budgeting the wide case means Paul at worst eats
	// one extra bug.
	timeBudget = 5
)

// solveIncludeLength runs the length planner once: pick a prime goal of
// at least 100 that leaves room for the length string, the clock and the
// bug reserve, then plant the length and time strings. Paul eats the
// overshoot and feeding covers the undershoot, so the exact length
// converges over the following cycles.
func (s *Solver) solveIncludeLength(doc *password.Document, rule rules.Rule, facts *rules.Facts) Outcome {
	if s.lengthString != nil {
		return Outcome{Status: StatusAlreadySatisfied}
	}

	padding := 0
	goal := doc.Len() + lengthBudget + timeBudget + s.bugReserve
	for goal < 100 || !rules.IsPrime(goal) {
		padding++
		goal++
	}
	s.goalLength = goal
	s.logger.Info("goal length chosen", "length", goal, "padding", padding)

	lengthText := strconv.Itoa(goal)
	var changes []password.Change
	s.lengthString = &InnerString{Index: doc.Len(), Length: len(lengthText)}
	changes = append(changes, password.AppendProtected(lengthText))

	timeText := rules.ClockString(facts.Now)
	s.timeString = &InnerString{Index: doc.Len() + len(lengthText), Length: len(timeText)}
	changes = append(changes, password.AppendProtected(timeText))

	if padding > 0 {
		changes = append(changes, password.Append(strings.Repeat("-", padding)))
	}
	return propose(rule, "plant the length and time strings", changes...)
}

// solveTime keeps the clock current. With a tracked anchor the digits are
// rewritten in place; otherwise the clock is appended and tracked from
// then on.
func (s *Solver) solveTime(doc *password.Document, rule rules.Rule, facts *rules.Facts) Outcome {
	now := rules.ClockString(facts.Now)

	if s.timeString == nil {
		s.timeString = &InnerString{Index: doc.Len(), Length: len(now)}
		return propose(rule, "append the clock", password.AppendProtected(now))
	}

	if s.timeString.Length != len(now) {
		// 9:59 to 10:00 changes the clock's width. Rewriting in place
		// would shift everything after the anchor and drag the length
		// rules with it; restarting the attempt is cheaper.
		return infeasible(rule, "clock width changed mid-game", false)
	}

	changes := make([]password.Change, 0, len(now))
	for i := 0; i < len(now); i++ {
		changes = append(changes, password.Change{
			Op:               password.OpReplace,
			Index:            s.timeString.Index + i,
			Text:             string(now[i]),
			IgnoreProtection: true,
		})
	}
	return propose(rule, "rewrite the clock in place", changes...)
}
