// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are package-level: servers are usually one per process, and a
// collector may only register once.
var (
	activeGames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passmith",
		Subsystem: "game_server",
		Name:      "active_games",
		Help:      "Games currently registered.",
	})

	eventStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passmith",
		Subsystem: "game_server",
		Name:      "event_streams",
		Help:      "Open WebSocket event streams.",
	})
)
