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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level: engines come and go with every attempt, but
// a collector may only register once per process.
var (
	// cyclesTotal counts reconciliation cycles.
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "cycles_total",
		Help:      "Total reconciliation cycles run",
	})

	// editsAppliedTotal counts committed edits by rule.
	editsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "edits_applied_total",
		Help:      "Total edits committed to the document, by rule",
	}, []string{"rule"})

	// backtracksTotal counts rolled-back edits.
	backtracksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "backtracks_total",
		Help:      "Total edits rolled back after verification failed",
	})

	// regressionsTotal counts previously satisfied rules broken by an
	// edit, by the rule that broke.
	regressionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "regressions_total",
		Help:      "Total regressions of previously satisfied rules, by rule",
	}, []string{"rule"})

	// infeasibleTotal counts strategy dead ends by rule and whether the
	// dead end clears once facts arrive.
	infeasibleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "infeasible_total",
		Help:      "Total infeasible proposals, by rule and retryability",
	}, []string{"rule", "retryable"})

	// unsatisfiableTotal counts abandoned reconciliation runs.
	unsatisfiableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "unsatisfiable_total",
		Help:      "Total reconciliation runs abandoned as unsatisfiable",
	})

	// cycleDuration measures wall time per cycle.
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "passmith",
		Subsystem: "repair",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time per reconciliation cycle",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
)
