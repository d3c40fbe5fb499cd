// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package solver proposes repairs: for each rule family there is one
// strategy that turns (document, rule, fact snapshot) into a batch of
// password.Change values restoring that rule.
//
// Strategies are deterministic. Candidate orders come from fixed slices,
// never map iteration, so the same inputs always yield the same proposal
// and a failed game can be replayed from its journal.
//
// The Solver carries the little cross-rule state the game forces on us:
// which two letters were sacrificed, where the length and time strings
// live, and the goal length chosen for the prime-length endgame. Anchor
// positions are maintained optimistically, assuming the first edit of
// every proposal is committed; when a commit fails the session discards
// the Solver along with the attempt.
package solver

import (
	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// =============================================================================
// Outcome
// =============================================================================

// Status classifies a proposal.
type Status int

const (
	// StatusAlreadySatisfied means the rule holds and nothing was proposed.
	StatusAlreadySatisfied Status = iota
	// StatusProposed means the strategy produced ranked candidate edits.
	StatusProposed
	// StatusInfeasible means no edit can satisfy the rule right now.
	StatusInfeasible
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusAlreadySatisfied:
		return "already-satisfied"
	case StatusProposed:
		return "proposed"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Edit is one candidate repair: the changes to queue plus rationale.
type Edit struct {
	// Rule is the kind the edit targets.
	Rule rules.Kind

	// Rank orders candidates; 0 is the preferred edit.
	Rank int

	// Note is a short human-readable rationale for logs.
	Note string

	// Changes are queued against the document the strategy saw.
	Changes []password.Change
}

// Outcome is the result of asking the solver for a repair.
//
// When Status is StatusProposed, Edits holds at least one candidate in
// rank order. The engine must apply the first edit or abandon the attempt;
// alternates are always append-only so anchor bookkeeping stays valid
// whichever one lands. An edit with no changes means the document needs
// nothing but the rule is waiting on a surface action (for example the
// sacrifice acknowledgement).
type Outcome struct {
	// Status classifies the result.
	Status Status

	// Edits holds ranked candidates when Status is StatusProposed.
	Edits []Edit

	// Err carries the reason when Status is StatusInfeasible.
	Err *InfeasibleError
}

// InnerString locates a tracked substring of the password by grapheme
// index. The solver keeps one for the length string and one for the time
// string so later edits can rewrite them in place.
type InnerString struct {
	// Index is the grapheme index of the first cluster.
	Index int
	// Length is the length in grapheme clusters.
	Length int
}

// =============================================================================
// Solver
// =============================================================================

// defaultBugReserve is how many 🐛 the engine keeps appended for Paul.
// Nine or more overfeeds him, so eight is the ceiling.
const defaultBugReserve = 8

// Solver proposes edits and tracks cross-rule choices for one attempt.
//
// Not safe for concurrent use. The repair engine owns the Solver for the
// lifetime of an attempt.
type Solver struct {
	logger *logging.Logger

	// bugReserve is the bug count length planning accounts for.
	bugReserve int

	// sacrificed holds the two lowercase letters given up, once chosen.
	sacrificed []string

	// lengthString locates the password-length digits, once placed.
	lengthString *InnerString

	// timeString locates the h:mm string, once placed.
	timeString *InnerString

	// goalLength is the prime total length chosen by the length planner.
	goalLength int
}

// Option configures a Solver.
type Option func(*Solver)

// WithBugReserve overrides how many bugs length planning reserves for
// Paul. n is clamped to [0, 8].
func WithBugReserve(n int) Option {
	return func(s *Solver) {
		if n < 0 {
			n = 0
		}
		if n > defaultBugReserve {
			n = defaultBugReserve
		}
		s.bugReserve = n
	}
}

// New builds a Solver.
func New(logger *logging.Logger, opts ...Option) *Solver {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Solver{
		logger:     logger,
		bugReserve: defaultBugReserve,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SacrificedLetters returns the letters chosen for the sacrifice rule,
// lowercase, or nil while none are chosen. The session submits these to
// the surface.
func (s *Solver) SacrificedLetters() []string {
	if s.sacrificed == nil {
		return nil
	}
	out := make([]string, len(s.sacrificed))
	copy(out, s.sacrificed)
	return out
}

// GoalLength returns the total length the planner committed to, or 0
// before the include-length rule has been solved.
func (s *Solver) GoalLength() int {
	return s.goalLength
}

// TimeAnchor returns the tracked location of the time string, or nil.
func (s *Solver) TimeAnchor() *InnerString {
	if s.timeString == nil {
		return nil
	}
	anchor := *s.timeString
	return &anchor
}

// StartingPassword returns the protected seed the session plants before
// the first rule arrives: egg, leap-year zero, month, roman 35, sponsor,
// the current moon emoji, a two-letter element and digits summing to 25.
// Everything but the reworkable digits is protected.
func (s *Solver) StartingPassword(facts *rules.Facts) []password.Change {
	changes := []password.Change{
		password.AppendProtected("🥚0mayXXXVshell"),
	}
	if len(facts.MoonEmojis) > 0 {
		changes = append(changes, password.AppendProtected(facts.MoonEmojis[0]))
	}
	changes = append(changes, password.Append("He997"))
	return changes
}

// =============================================================================
// Propose
// =============================================================================

// Propose asks the strategy for rule to repair doc under facts.
//
// Rules whose validation depends on the final length (wingdings,
// include-length, prime-length) skip the satisfied check: the bug reserve
// appended for Paul shifts the length after this cycle, so their
// strategies always run and report nothing to do themselves.
func (s *Solver) Propose(doc *password.Document, rule rules.Rule, facts *rules.Facts) Outcome {
	switch rule.Kind {
	case rules.KindWingdings, rules.KindIncludeLength, rules.KindPrimeLength:
	default:
		if rule.Validate(doc, facts) {
			return Outcome{Status: StatusAlreadySatisfied}
		}
	}

	s.logger.Debug("proposing repair", "rule", rule.Kind.Slug())

	var out Outcome
	switch rule.Kind {
	case rules.KindMinLength:
		out = s.solveMinLength(doc, rule)
	case rules.KindNumber:
		out = propose(rule, "append a nine", password.Append("9"))
	case rules.KindUppercase:
		out = propose(rule, "append an uppercase letter", password.Append("Z"))
	case rules.KindSpecial:
		out = propose(rule, "append a special character", password.Append("!"))
	case rules.KindDigits:
		out = s.solveDigits(doc, rule)
	case rules.KindMonth:
		out = rankedTokens(rule, "splice a month", rules.Months, false)
	case rules.KindRoman:
		out = propose(rule, "append roman thirty-five", password.Append("XXXV"))
	case rules.KindSponsors:
		out = rankedTokens(rule, "splice a sponsor", rules.Sponsors, false)
	case rules.KindRomanMultiply:
		out = s.solveRomanMultiply(doc, rule)
	case rules.KindCaptcha:
		out = s.solveCaptcha(rule)
	case rules.KindWordle:
		out = s.solveWordle(rule, facts)
	case rules.KindPeriodicTable:
		out = propose(rule, "append a two-letter element", password.AppendProtected("He"))
	case rules.KindMoonPhase:
		out = s.solveMoonPhase(rule, facts)
	case rules.KindGeo:
		out = s.solveGeo(rule, facts)
	case rules.KindLeapYear:
		out = propose(rule, "append year zero", password.AppendProtected("0"))
	case rules.KindChess:
		out = s.solveChess(rule, facts)
	case rules.KindEgg:
		out = propose(rule, "shelter the egg up front", password.PrependProtected("🥚"))
	case rules.KindAtomicNumber:
		out = s.solveAtomicNumber(doc, rule)
	case rules.KindBoldVowels:
		out = s.solveBoldVowels(doc, rule)
	case rules.KindFire:
		out = s.solveFire(doc, rule)
	case rules.KindStrength:
		out = propose(rule, "append three lifters", password.AppendProtected("🏋️‍♂️🏋️‍♂️🏋️‍♂️"))
	case rules.KindAffirmation:
		out = rankedTokens(rule, "splice an affirmation", rules.Affirmations, true)
	case rules.KindHatch:
		out = s.solveHatch(rule)
	case rules.KindYoutube:
		out = s.solveYoutube(rule, facts)
	case rules.KindSacrifice:
		out = s.solveSacrifice(doc, rule, facts)
	case rules.KindTwiceItalic:
		out = s.solveTwiceItalic(doc, rule)
	case rules.KindWingdings:
		out = s.solveWingdings(doc, rule)
	case rules.KindHex:
		out = propose(rule, "append the hex color", password.AppendProtected(rule.Color.Hex()))
	case rules.KindTimesNewRoman:
		out = s.solveTimesNewRoman(doc, rule)
	case rules.KindDigitFontSize:
		out = s.solveDigitFontSize(doc, rule)
	case rules.KindLetterFontSize:
		out = s.solveLetterFontSize(doc, rule)
	case rules.KindIncludeLength:
		out = s.solveIncludeLength(doc, rule, facts)
	case rules.KindPrimeLength:
		// The length planner picked a prime goal while solving
		// include-length; proposing anything here would fight it.
		out = Outcome{Status: StatusAlreadySatisfied}
	case rules.KindTime:
		out = s.solveTime(doc, rule, facts)
	default:
		out = infeasible(rule, "no strategy for rule", false)
	}

	if out.Status == StatusProposed && len(out.Edits) > 0 {
		s.shiftAnchors(out.Edits[0].Changes)
	}
	return out
}

// propose wraps changes as a single-candidate StatusProposed outcome.
func propose(rule rules.Rule, note string, changes ...password.Change) Outcome {
	return Outcome{
		Status: StatusProposed,
		Edits:  []Edit{{Rule: rule.Kind, Note: note, Changes: changes}},
	}
}

// proposeRanked wraps pre-ranked edits as a StatusProposed outcome.
func proposeRanked(edits []Edit) Outcome {
	return Outcome{Status: StatusProposed, Edits: edits}
}

// infeasible wraps a dead end as a StatusInfeasible outcome.
func infeasible(rule rules.Rule, reason string, retryable bool) Outcome {
	return Outcome{
		Status: StatusInfeasible,
		Err:    &InfeasibleError{Rule: rule, Reason: reason, Retryable: retryable},
	}
}

// =============================================================================
// Anchor bookkeeping
// =============================================================================

// shiftAnchors adjusts the tracked length and time string locations for
// changes about to be committed. Splices before an anchor shift it; a
// removal inside an anchor invalidates it so a later cycle re-plants the
// string instead of rewriting clobbered cells.
func (s *Solver) shiftAnchors(changes []password.Change) {
	s.lengthString = shiftAnchor(s.lengthString, changes)
	s.timeString = shiftAnchor(s.timeString, changes)
}

// shiftAnchor computes the net shift in one pass. Change indices all
// refer to the pre-commit document, so every compare is against the
// anchor's original position, not a partially shifted one.
func shiftAnchor(anchor *InnerString, changes []password.Change) *InnerString {
	if anchor == nil {
		return nil
	}
	shift := 0
	for _, ch := range changes {
		switch ch.Op {
		case password.OpPrepend:
			shift += len(password.Split(ch.Text))
		case password.OpInsert:
			if ch.Index <= anchor.Index {
				shift += len(password.Split(ch.Text))
			}
		case password.OpRemove:
			switch {
			case ch.Index < anchor.Index:
				shift--
			case ch.Index < anchor.Index+anchor.Length:
				return nil
			}
		}
	}
	anchor.Index += shift
	return anchor
}
