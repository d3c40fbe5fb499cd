// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synchronizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level: synchronizers come and go with every
// attempt, but a collector may only register once per process.
var (
	// driftTotal counts classified syncs by drift class.
	driftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "sync",
		Name:      "drift_total",
		Help:      "Total sync rounds, by drift class",
	}, []string{"drift"})

	// pushFailuresTotal counts pushes abandoned after retries.
	pushFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "sync",
		Name:      "push_failures_total",
		Help:      "Total injections abandoned after retries",
	})

	// observeFailuresTotal counts read-backs abandoned after retries.
	observeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "sync",
		Name:      "observe_failures_total",
		Help:      "Total read-backs abandoned after retries",
	})

	// resyncsTotal counts re-pushes forced by lost drift.
	resyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "sync",
		Name:      "resyncs_total",
		Help:      "Total re-pushes after the surface lost the text",
	})
)
