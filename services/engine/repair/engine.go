// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repair reconciles the revealed rule set against the document.
// Each cycle validates every rule, picks the blocking one under the
// conflict policy, asks the planner for an edit, commits it, and
// verifies the fallout, rolling back through ranked alternates when an
// edit breaks rules that already held. The loop runs to the fixed point
// where the whole ledger holds at once, or reports why it cannot get
// there.
package repair

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/engine/solver"
	"github.com/AleutianAI/passmith/services/engine/state"
)

// Engine drives reconciliation cycles over a constraint ledger.
//
// Not safe for concurrent use; the session loop owns it.
type Engine struct {
	logger    *logging.Logger
	solver    *solver.Solver
	machine   *Machine
	policy    Policy
	budgetCfg BudgetConfig
	alphabet  *password.Alphabet
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy overrides the conflict policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithBudget overrides the per-run budget limits.
func WithBudget(cfg BudgetConfig) Option {
	return func(e *Engine) { e.budgetCfg = cfg }
}

// WithAlphabet overrides the alphabet edits are checked against.
func WithAlphabet(a *password.Alphabet) Option {
	return func(e *Engine) {
		if a != nil {
			e.alphabet = a
		}
	}
}

// New builds an Engine around a planner.
func New(logger *logging.Logger, sv *solver.Solver, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		logger:    logger,
		solver:    sv,
		machine:   NewMachine(),
		policy:    NewestFirst,
		budgetCfg: DefaultBudgetConfig(),
		alphabet:  password.DefaultAlphabet(),
		tracer:    otel.Tracer("repair"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the machine's current phase.
func (e *Engine) Phase() Phase { return e.machine.Current() }

// PhaseHistory returns recent phase transitions, oldest first.
func (e *Engine) PhaseHistory() []TransitionRecord { return e.machine.History() }

// Report summarizes a reconciliation run.
type Report struct {
	Cycles       int
	EditsApplied int
	Backtracks   int
	Elapsed      time.Duration

	// Revision is the ledger revision after the run.
	Revision uint64
}

// cycleResult is the outcome of one reconciliation cycle.
type cycleResult struct {
	converged bool
	progress  bool
	pending   []rules.Kind
	err       error
}

// Reconcile runs repair cycles until every revealed rule holds, the
// surface owes facts, or the attempt is hopeless.
//
// A nil error means the ledger converged. ErrFactsPending (as
// *PendingError) means the caller should refresh facts and call again;
// edits already committed stay committed. ErrUnsatisfiable (as
// *UnsatisfiableError) means this attempt cannot converge.
func (e *Engine) Reconcile(ctx context.Context, st *state.State, facts *rules.Facts) (report Report, err error) {
	ctx, span := e.tracer.Start(ctx, "repair.Reconcile")
	defer span.End()

	if e.machine.Current() != PhaseIdle {
		e.machine.Reset()
	}

	budget := NewBudget(e.budgetCfg)
	accepted := make(map[int]bool)
	start := time.Now()
	defer func() {
		report.Cycles = int(budget.Cycles())
		report.Elapsed = time.Since(start)
		_, report.Revision = st.Snapshot()
		span.SetAttributes(
			attribute.Int("cycles", report.Cycles),
			attribute.Int("edits_applied", report.EditsApplied),
			attribute.Int("backtracks", report.Backtracks),
		)
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return report, cerr
		}
		if berr := budget.RecordCycle(); berr != nil {
			unsatisfiableTotal.Inc()
			return report, &UnsatisfiableError{
				Conflicting: e.unsatisfiedKinds(st, facts, accepted),
				Exhausted:   budget.ExhaustedBy(),
				Reason:      berr.Error(),
			}
		}

		res := e.cycle(ctx, st, facts, budget, accepted, &report)
		switch {
		case res.err != nil:
			return report, res.err
		case res.converged:
			e.logger.Info("reconciliation converged",
				"edits", report.EditsApplied,
				"budget", budget.String())
			return report, nil
		case res.progress:
			continue
		case len(res.pending) > 0:
			e.logger.Info("reconciliation waiting on facts",
				"rules", slugs(res.pending))
			return report, &PendingError{Rules: res.pending}
		default:
			unsatisfiableTotal.Inc()
			return report, &UnsatisfiableError{
				Conflicting: e.unsatisfiedKinds(st, facts, accepted),
				Reason:      "no strategy makes progress",
			}
		}
	}
}

// cycle runs one reconciliation cycle: validate, pick a target, apply
// its proposal, verify.
func (e *Engine) cycle(ctx context.Context, st *state.State, facts *rules.Facts,
	budget *Budget, accepted map[int]bool, report *Report) cycleResult {

	cycleStart := time.Now()
	_, span := e.tracer.Start(ctx, "repair.cycle",
		trace.WithAttributes(attribute.Int64("cycle", budget.Cycles())))
	defer span.End()
	defer func() { cycleDuration.Observe(time.Since(cycleStart).Seconds()) }()
	cyclesTotal.Inc()

	// Validating: partition the ledger against the current document.
	// Rules that became satisfied as a side effect of earlier edits are
	// accepted here without ever running their strategy.
	e.step(span, PhaseValidating, "cycle begins")
	entries := st.Rules()
	doc := st.Doc()
	satisfied := make([]bool, len(entries))
	var unsat []int
	for i, en := range entries {
		ok := accepted[i] || en.Rule.Validate(doc, facts)
		satisfied[i] = ok
		if merr := st.Mark(i, ok); merr != nil {
			e.logger.Warn("mark failed", "entry", i, "error", merr)
		}
		if !ok {
			unsat = append(unsat, i)
		}
	}
	if len(unsat) == 0 {
		e.step(span, PhaseIdle, "every rule holds")
		return cycleResult{converged: true}
	}
	e.step(span, PhaseSolving, fmt.Sprintf("%d rules unsatisfied", len(unsat)))

	// Solving: walk candidate targets in policy order until one yields
	// an edit that survives verification.
	candidates := e.policy.order(unsat)
	deferred := make(map[int]bool)
	var pending []rules.Kind

	for len(candidates) > 0 {
		idx := candidates[0]
		candidates = candidates[1:]
		if deferred[idx] {
			continue
		}
		target := entries[idx].Rule

		out := e.solver.Propose(st.Doc(), target, facts)
		switch out.Status {
		case solver.StatusAlreadySatisfied:
			accepted[idx] = true
			if merr := st.Mark(idx, true); merr != nil {
				e.logger.Warn("mark failed", "entry", idx, "error", merr)
			}
			e.logger.Debug("rule accepted without edit", "rule", target.Kind.Slug())
			e.step(span, PhaseIdle, "planner satisfied without edits")
			return cycleResult{progress: true}

		case solver.StatusInfeasible:
			reason := "no proposal"
			retryable := false
			if out.Err != nil {
				reason = out.Err.Reason
				retryable = out.Err.Retryable
			}
			infeasibleTotal.WithLabelValues(target.Kind.Slug(), strconv.FormatBool(retryable)).Inc()
			if retryable {
				pending = append(pending, target.Kind)
				continue
			}
			e.step(span, PhaseIdle, "strategy dead end")
			unsatisfiableTotal.Inc()
			return cycleResult{err: &UnsatisfiableError{
				Conflicting: []rules.Kind{target.Kind},
				Reason:      reason,
			}}

		case solver.StatusProposed:
			if len(out.Edits) == 0 || len(out.Edits[0].Changes) == 0 {
				// The strategy already set everything up and is waiting
				// for the surface to acknowledge it.
				pending = append(pending, target.Kind)
				continue
			}
			res, nextTarget := e.applyProposal(span, st, facts, budget, accepted, report,
				entries, satisfied, idx, out)
			if !nextTarget {
				return res
			}
			deferred[idx] = true
			candidates = e.policy.backtrackOrder(remaining(unsat, deferred))
		}
	}

	if len(pending) > 0 {
		e.step(span, PhaseIdle, "waiting on facts")
		return cycleResult{pending: pending}
	}
	e.step(span, PhaseIdle, "no candidate made progress")
	return cycleResult{}
}

// applyProposal walks the ranked edits for one target: commit, verify,
// and either keep the document or roll it back and try the next rank.
// The boolean result asks the caller to move on to another target.
func (e *Engine) applyProposal(span trace.Span, st *state.State, facts *rules.Facts,
	budget *Budget, accepted map[int]bool, report *Report,
	entries []state.Entry, satisfied []bool, idx int, out solver.Outcome) (cycleResult, bool) {

	target := entries[idx].Rule
	before := st.Doc()

	e.step(span, PhaseApplying, "edit for "+target.Kind.Slug())
	for rank := 0; rank < len(out.Edits); rank++ {
		edit := out.Edits[rank]
		if berr := budget.RecordEdit(edit.Rule); berr != nil {
			e.step(span, PhaseIdle, "budget exhausted")
			unsatisfiableTotal.Inc()
			return cycleResult{err: &UnsatisfiableError{
				Conflicting: []rules.Kind{edit.Rule},
				Exhausted:   budget.ExhaustedBy(),
				Reason:      berr.Error(),
			}}, false
		}

		if aerr := e.applyEdit(st, edit); aerr != nil {
			// Nothing was committed, but a splice proposal already moved
			// the planner's anchors, so only non-splicing edits may shop
			// for another rank.
			if shiftsAnchors(edit) {
				e.step(span, PhaseIdle, "apply failed")
				unsatisfiableTotal.Inc()
				return cycleResult{err: &UnsatisfiableError{
					Conflicting: []rules.Kind{edit.Rule},
					Reason:      fmt.Sprintf("edit could not be applied: %v", aerr),
				}}, false
			}
			e.logger.Warn("edit rejected",
				"rule", edit.Rule.Slug(), "rank", rank, "error", aerr)
			e.step(span, PhaseBacktracking, "edit rejected before commit")
			if rank+1 < len(out.Edits) {
				e.step(span, PhaseApplying, "alternate edit available")
				continue
			}
			e.step(span, PhaseSolving, "alternates exhausted")
			return cycleResult{}, true
		}

		editsAppliedTotal.WithLabelValues(edit.Rule.Slug()).Inc()
		report.EditsApplied++
		e.logger.Debug("edit committed",
			"rule", edit.Rule.Slug(), "rank", rank,
			"note", edit.Note, "changes", len(edit.Changes))

		// Verifying: the target must now hold and nothing that held
		// before may break.
		e.step(span, PhaseVerifying, "edit committed")
		after := st.Doc()
		targetOK := target.Validate(after, facts)
		if !targetOK && planGated(target.Kind) {
			// Length-plan rules verify against the final length; the
			// committed plan stands in for them until the endgame.
			accepted[idx] = true
			targetOK = true
		}
		var regressed []rules.Kind
		for i, en := range entries {
			if i == idx || !satisfied[i] || accepted[i] {
				continue
			}
			if !en.Rule.Validate(after, facts) {
				regressed = append(regressed, en.Rule.Kind)
				regressionsTotal.WithLabelValues(en.Rule.Kind.Slug()).Inc()
			}
		}

		if targetOK && len(regressed) == 0 {
			if merr := st.Mark(idx, true); merr != nil {
				e.logger.Warn("mark failed", "entry", idx, "error", merr)
			}
			e.step(span, PhaseIdle, "edit kept")
			return cycleResult{progress: true}, false
		}

		if !appendOnly(edit) {
			// A splice or rewrite cannot be rolled back without fighting
			// the planner's anchors. Keep it; the fallout is next
			// cycle's work.
			if len(regressed) > 0 {
				e.logger.Info("edit kept despite regressions",
					"rule", edit.Rule.Slug(), "regressed", slugs(regressed))
			}
			if merr := st.Mark(idx, targetOK); merr != nil {
				e.logger.Warn("mark failed", "entry", idx, "error", merr)
			}
			e.step(span, PhaseIdle, "edit kept, fallout deferred")
			return cycleResult{progress: true}, false
		}

		// Roll back and try the next rank.
		if berr := budget.RecordBacktrack(); berr != nil {
			e.step(span, PhaseIdle, "budget exhausted")
			unsatisfiableTotal.Inc()
			return cycleResult{err: &UnsatisfiableError{
				Conflicting: append(regressed, target.Kind),
				Exhausted:   budget.ExhaustedBy(),
				Reason:      berr.Error(),
			}}, false
		}
		if serr := st.SetDoc(before); serr != nil {
			return cycleResult{err: fmt.Errorf("rollback failed: %w", serr)}, false
		}
		backtracksTotal.Inc()
		report.Backtracks++
		reason := "target rule still fails"
		if len(regressed) > 0 {
			reason = fmt.Sprintf("%d rules regressed", len(regressed))
		}
		e.logger.Debug("edit rolled back",
			"rule", edit.Rule.Slug(), "rank", rank, "reason", reason)
		e.step(span, PhaseBacktracking, reason)
		if rank+1 < len(out.Edits) {
			e.step(span, PhaseApplying, "alternate edit available")
			continue
		}
		e.step(span, PhaseSolving, "alternates exhausted")
		return cycleResult{}, true
	}

	// Unreachable: the last rank always returns above.
	return cycleResult{}, true
}

// applyEdit rehearses the edit on a copy so a rejected change never
// touches the live document, then commits through the ledger.
func (e *Engine) applyEdit(st *state.State, edit solver.Edit) error {
	scratch := st.Doc().Snapshot()
	for _, ch := range edit.Changes {
		if ch.Text != "" {
			if err := e.alphabet.CheckText(ch.Text); err != nil {
				return err
			}
		}
		if err := scratch.Queue(ch); err != nil {
			return err
		}
	}
	if err := scratch.Commit(); err != nil {
		return err
	}
	return st.SetDoc(scratch)
}

// step moves the phase machine and mirrors the move onto the cycle span.
func (e *Engine) step(span trace.Span, to Phase, reason string) {
	if err := e.machine.Transition(to, reason); err != nil {
		e.logger.Warn("phase transition rejected",
			"to", to.String(), "error", err)
		return
	}
	span.AddEvent(to.String(), trace.WithAttributes(attribute.String("reason", reason)))
}

// unsatisfiedKinds re-validates the ledger for error reporting.
func (e *Engine) unsatisfiedKinds(st *state.State, facts *rules.Facts, accepted map[int]bool) []rules.Kind {
	doc := st.Doc()
	var kinds []rules.Kind
	for i, en := range st.Rules() {
		if accepted[i] || en.Rule.Validate(doc, facts) {
			continue
		}
		kinds = append(kinds, en.Rule.Kind)
	}
	return kinds
}

// planGated mirrors the planner's skip list: rules whose validation
// depends on the final length.
func planGated(k rules.Kind) bool {
	switch k {
	case rules.KindWingdings, rules.KindIncludeLength, rules.KindPrimeLength:
		return true
	default:
		return false
	}
}

// appendOnly reports whether every change leaves existing graphemes
// alone. Only such edits may be rolled back.
func appendOnly(edit solver.Edit) bool {
	for _, ch := range edit.Changes {
		switch ch.Op {
		case password.OpAppend, password.OpFormat:
		default:
			return false
		}
	}
	return true
}

// shiftsAnchors reports whether the edit splices cells the planner
// tracks by position.
func shiftsAnchors(edit solver.Edit) bool {
	for _, ch := range edit.Changes {
		switch ch.Op {
		case password.OpPrepend, password.OpInsert, password.OpRemove:
			return true
		}
	}
	return false
}

// remaining filters deferred targets out of the unsatisfied list.
func remaining(unsat []int, deferred map[int]bool) []int {
	var out []int
	for _, i := range unsat {
		if !deferred[i] {
			out = append(out, i)
		}
	}
	return out
}
