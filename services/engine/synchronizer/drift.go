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
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// The surface mutates text with a small bestiary.
const (
	bugEmoji     = "🐛"
	flameEmoji   = "🔥"
	eggEmoji     = "🥚"
	chickenEmoji = "🐔"
	graveEmoji   = "🪦"
)

// Drift classifies how the observed surface text diverges from the
// intended text.
type Drift int

const (
	// DriftNone means the surface shows exactly the intended text.
	DriftNone Drift = iota

	// DriftBugsEaten means the only losses are 🐛 graphemes: Paul ate.
	DriftBugsEaten

	// DriftFire means the surface inserted 🔥 graphemes, possibly over
	// burned characters.
	DriftFire

	// DriftHatched means the 🥚 became a 🐔.
	DriftHatched

	// DriftGameOver means the 🐔 became a 🪦.
	DriftGameOver

	// DriftLost is any divergence the other classes do not explain.
	DriftLost
)

// String returns the drift class name.
func (d Drift) String() string {
	switch d {
	case DriftNone:
		return "none"
	case DriftBugsEaten:
		return "bugs_eaten"
	case DriftFire:
		return "fire"
	case DriftHatched:
		return "hatched"
	case DriftGameOver:
		return "game_over"
	case DriftLost:
		return "lost"
	default:
		return fmt.Sprintf("Drift(%d)", int(d))
	}
}

// Fatal reports whether the drift ends the attempt.
func (d Drift) Fatal() bool {
	return d == DriftGameOver
}

// Classify compares the intended text with what the surface shows.
func Classify(intended, observed string) Drift {
	if intended == observed {
		return DriftNone
	}
	dmp := diffmatchpatch.New()
	return classifyDiffs(dmp.DiffMain(intended, observed, false))
}

// classifyDiffs buckets a semantic diff into a drift class. The checks
// run from most to least specific; anything mixed or unexplained is
// lost sync.
func classifyDiffs(diffs []diffmatchpatch.Diff) Drift {
	var inserted, deleted strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted.WriteString(d.Text)
		}
	}
	ins, del := inserted.String(), deleted.String()

	switch {
	case ins == "" && del == "":
		return DriftNone
	case strings.Contains(ins, graveEmoji) && strings.Contains(del, chickenEmoji):
		return DriftGameOver
	case strings.Contains(ins, chickenEmoji) && strings.Contains(del, eggEmoji):
		return DriftHatched
	case ins != "" && strings.ReplaceAll(ins, flameEmoji, "") == "":
		return DriftFire
	case ins == "" && strings.ReplaceAll(del, bugEmoji, "") == "":
		return DriftBugsEaten
	default:
		return DriftLost
	}
}
