// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level: games come and go, but a collector may only
// register once per process.
var (
	// gamesStarted counts simulated games created.
	gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "game",
		Name:      "games_started_total",
		Help:      "Total simulated games created",
	})

	// revealsTotal counts rules revealed across all games.
	revealsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "game",
		Name:      "reveals_total",
		Help:      "Total rules revealed across all games",
	})

	// hazardsTotal counts hazard applications by kind.
	hazardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "game",
		Name:      "hazards_total",
		Help:      "Total hazard applications, by hazard",
	}, []string{"hazard"})

	// outcomesTotal counts finished games by outcome.
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passmith",
		Subsystem: "game",
		Name:      "outcomes_total",
		Help:      "Total game outcomes, by outcome",
	}, []string{"outcome"})
)
