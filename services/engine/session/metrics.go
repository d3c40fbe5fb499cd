// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level: sessions come and go, but a collector may
// only register once per process.
var (
	// attemptsTotal counts game attempts started.
	attemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "session",
		Name:      "attempts_total",
		Help:      "Total game attempts started",
	})

	// restartsTotal counts attempts abandoned for a fresh start, by
	// failure class.
	restartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "session",
		Name:      "restarts_total",
		Help:      "Total attempts restarted, by failure class",
	}, []string{"class"})

	// winsTotal counts sessions that sealed a final password.
	winsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "session",
		Name:      "wins_total",
		Help:      "Total sessions that confirmed a final password",
	})

	// rulesRevealed tracks how many rules the current attempt has seen.
	rulesRevealed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passmith",
		Subsystem: "session",
		Name:      "rules_revealed",
		Help:      "Rules revealed in the current attempt",
	})
)
