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
	"sync/atomic"
	"time"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

// BudgetConfig contains the limits for a single reconciliation run.
// A zero value disables the corresponding limit.
type BudgetConfig struct {
	MaxCycles       int           // Maximum reconciliation cycles
	MaxEditsPerRule int           // Maximum edits committed per rule
	MaxBacktracks   int           // Maximum rolled-back edits
	MaxFactCalls    int           // Maximum surface fact refreshes
	TimeLimit       time.Duration // Wall clock limit
}

// DefaultBudgetConfig returns sensible defaults.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxCycles:       150,
		MaxEditsPerRule: 12, // the month picker carries twelve candidates
		MaxBacktracks:   40,
		MaxFactCalls:    250,
		TimeLimit:       2 * time.Minute,
	}
}

// Budget tracks resource consumption during a reconciliation run.
//
// Thread Safety: Safe for concurrent use.
type Budget struct {
	config    BudgetConfig
	startTime time.Time

	cycles     atomic.Int64
	backtracks atomic.Int64
	factCalls  atomic.Int64

	mu          sync.RWMutex
	editsByRule map[rules.Kind]int
	exhausted   bool
	exhaustedBy string // Which limit was hit
}

// NewBudget creates a budget tracker. The time limit runs from now.
func NewBudget(config BudgetConfig) *Budget {
	return &Budget{
		config:      config,
		startTime:   time.Now(),
		editsByRule: make(map[rules.Kind]int),
	}
}

// Config returns the budget configuration.
func (b *Budget) Config() BudgetConfig {
	return b.config
}

// Cycles returns the number of cycles recorded.
func (b *Budget) Cycles() int64 {
	return b.cycles.Load()
}

// RecordCycle records the start of a cycle.
func (b *Budget) RecordCycle() error {
	b.cycles.Add(1)
	return b.checkLimits()
}

// EditsFor returns the number of edits committed for a rule.
func (b *Budget) EditsFor(kind rules.Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.editsByRule[kind]
}

// EditsApplied returns the total edits committed across all rules.
func (b *Budget) EditsApplied() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, n := range b.editsByRule {
		total += n
	}
	return total
}

// RecordEdit records an edit committed for a rule.
func (b *Budget) RecordEdit(kind rules.Kind) error {
	b.mu.Lock()
	b.editsByRule[kind]++
	b.mu.Unlock()

	return b.checkLimits()
}

// Backtracks returns the number of rolled-back edits.
func (b *Budget) Backtracks() int64 {
	return b.backtracks.Load()
}

// RecordBacktrack records a rolled-back edit.
func (b *Budget) RecordBacktrack() error {
	b.backtracks.Add(1)
	return b.checkLimits()
}

// FactCalls returns the number of surface fact refreshes.
func (b *Budget) FactCalls() int64 {
	return b.factCalls.Load()
}

// RecordFactCall records a surface fact refresh.
func (b *Budget) RecordFactCall() error {
	b.factCalls.Add(1)
	return b.checkLimits()
}

// Elapsed returns time elapsed since the budget was created.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Exhausted returns whether the budget has been exhausted.
func (b *Budget) Exhausted() bool {
	b.mu.RLock()
	if b.exhausted {
		b.mu.RUnlock()
		return true
	}
	b.mu.RUnlock()

	return b.checkLimits() != nil
}

// ExhaustedBy returns which limit caused exhaustion (empty if not
// exhausted).
func (b *Budget) ExhaustedBy() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhaustedBy
}

// checkLimits checks all limits and returns an error if any is exceeded.
func (b *Budget) checkLimits() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exhausted {
		return ErrBudgetExhausted
	}

	if b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit {
		b.exhausted = true
		b.exhaustedBy = "time"
		return ErrTimeLimitExceeded
	}

	if b.config.MaxCycles > 0 && b.cycles.Load() >= int64(b.config.MaxCycles) {
		b.exhausted = true
		b.exhaustedBy = "cycles"
		return ErrCycleLimitExceeded
	}

	if b.config.MaxEditsPerRule > 0 {
		for kind, n := range b.editsByRule {
			if n >= b.config.MaxEditsPerRule {
				b.exhausted = true
				b.exhaustedBy = "edits:" + kind.Slug()
				return ErrEditLimitExceeded
			}
		}
	}

	if b.config.MaxBacktracks > 0 && b.backtracks.Load() >= int64(b.config.MaxBacktracks) {
		b.exhausted = true
		b.exhaustedBy = "backtracks"
		return ErrBacktrackLimitExceeded
	}

	if b.config.MaxFactCalls > 0 && b.factCalls.Load() >= int64(b.config.MaxFactCalls) {
		b.exhausted = true
		b.exhaustedBy = "fact_calls"
		return ErrFactCallLimitExceeded
	}

	return nil
}

// String returns a human-readable budget status.
func (b *Budget) String() string {
	exhaustedStatus := ""
	if b.Exhausted() {
		exhaustedStatus = fmt.Sprintf(" [EXHAUSTED by %s]", b.ExhaustedBy())
	}

	return fmt.Sprintf("Budget{cycles=%d/%d, edits=%d (max %d/rule), backtracks=%d/%d, facts=%d/%d, time=%v/%v}%s",
		b.Cycles(), b.config.MaxCycles,
		b.EditsApplied(), b.config.MaxEditsPerRule,
		b.Backtracks(), b.config.MaxBacktracks,
		b.FactCalls(), b.config.MaxFactCalls,
		b.Elapsed().Round(time.Millisecond), b.config.TimeLimit,
		exhaustedStatus)
}
