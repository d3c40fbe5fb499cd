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
	"fmt"
	"sort"

	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// Hazard edits rewrite graphemes in place with IgnoreProtection set, the
// one caller the password package grants that to. Callers hold the game
// lock throughout.

// fireClearance is how many graphemes of clearance the ignition leaves
// around the egg.
const fireClearance = 5

// startFire swaps one random grapheme for a flame. The pick stays clear
// of the egg so Paul survives the ignition.
func (g *Game) startFire() {
	clusters := g.doc.Clusters()
	eggAt := -1
	for i, c := range clusters {
		if c == "🥚" {
			eggAt = i
			break
		}
	}
	eligible := make([]int, 0, len(clusters))
	for i, c := range clusters {
		if eggAt >= 0 && abs(i-eggAt) < fireClearance {
			continue
		}
		if c == "🥚" || c == "🔥" {
			continue
		}
		eligible = append(eligible, i)
	}
	if len(eligible) == 0 {
		g.logger.Info("nothing to ignite", "length", len(clusters))
		return
	}

	at := eligible[g.rng.Intn(len(eligible))]
	if err := g.doc.Queue(password.Change{
		Op: password.OpReplace, Index: at, Text: "🔥", IgnoreProtection: true,
	}); err != nil {
		g.logger.Warn("hazard edit failed", "hazard", "fire", "error", err)
		return
	}
	g.commitHazard("fire")
	hazardsTotal.WithLabelValues("fire_started").Inc()
	g.note(EventFire, rules.KindFire.Number(), "ignited")
	g.logger.Info("password ignited", "index", at)
}

// spreadFire grows every flame run one grapheme in each direction. It
// returns false once there is nothing new to burn.
func (g *Game) spreadFire() bool {
	clusters := g.doc.Clusters()
	targets := make(map[int]bool)
	for i, c := range clusters {
		if c != "🔥" {
			continue
		}
		for _, j := range []int{i - 1, i + 1} {
			if j >= 0 && j < len(clusters) && clusters[j] != "🔥" {
				targets[j] = true
			}
		}
	}
	if len(targets) == 0 {
		return false
	}

	at := make([]int, 0, len(targets))
	for i := range targets {
		at = append(at, i)
	}
	sort.Ints(at)
	for _, i := range at {
		if err := g.doc.Queue(password.Change{
			Op: password.OpReplace, Index: i, Text: "🔥", IgnoreProtection: true,
		}); err != nil {
			g.logger.Warn("hazard edit failed", "hazard", "fire", "error", err)
		}
	}
	g.commitHazard("fire")
	hazardsTotal.WithLabelValues("fire_spread").Inc()
	g.note(EventFire, rules.KindFire.Number(), fmt.Sprintf("spread to %d more", len(at)))
	return true
}

// hatchEgg swaps the egg for the chicken.
func (g *Game) hatchEgg() {
	changed := false
	for i, c := range g.doc.Clusters() {
		if c != "🥚" {
			continue
		}
		if err := g.doc.Queue(password.Change{
			Op: password.OpReplace, Index: i, Text: "🐔", IgnoreProtection: true,
		}); err != nil {
			g.logger.Warn("hazard edit failed", "hazard", "hatch", "error", err)
			continue
		}
		changed = true
	}
	if changed {
		g.commitHazard("hatch")
	}
	hazardsTotal.WithLabelValues("hatched").Inc()
	g.note(EventHatched, rules.KindHatch.Number(), "")
	g.logger.Info("paul hatched")
}

// mealtime feeds Paul one bug, or ends the game when the bowl is empty.
func (g *Game) mealtime() {
	clusters := g.doc.Clusters()
	at := -1
	left := 0
	for i, c := range clusters {
		if c == "🐛" {
			if at < 0 {
				at = i
			}
			left++
		}
	}
	if at < 0 {
		g.fail("paul starved")
		return
	}

	if err := g.doc.Queue(password.Change{
		Op: password.OpRemove, Index: at, IgnoreProtection: true,
	}); err != nil {
		g.logger.Warn("hazard edit failed", "hazard", "meal", "error", err)
		return
	}
	g.commitHazard("meal")
	hazardsTotal.WithLabelValues("meal").Inc()
	g.note(EventMeal, rules.KindHatch.Number(), fmt.Sprintf("%d 🐛 left", left-1))
}

// fail ends the game. Paul, if hatched, gets his gravestone; the 🪦 in
// the password is what tells a remote driver the game ended.
func (g *Game) fail(reason string) {
	g.over = true
	g.outcome = reason
	if g.paulHatched {
		g.bury()
	}
	outcomesTotal.WithLabelValues(reason).Inc()
	g.note(EventGameOver, 0, reason)
	g.logger.Error("game over", "reason", reason)
}

// bury swaps every chicken for a gravestone.
func (g *Game) bury() {
	changed := false
	for i, c := range g.doc.Clusters() {
		if c != "🐔" {
			continue
		}
		if err := g.doc.Queue(password.Change{
			Op: password.OpReplace, Index: i, Text: "🪦", IgnoreProtection: true,
		}); err != nil {
			g.logger.Warn("hazard edit failed", "hazard", "bury", "error", err)
			continue
		}
		changed = true
	}
	if changed {
		g.commitHazard("bury")
	}
}

// commitHazard lands queued hazard edits. A failure drops the queue and
// is logged rather than wedging the game.
func (g *Game) commitHazard(what string) {
	if err := g.doc.Commit(); err != nil {
		g.doc.DiscardQueue()
		g.logger.Warn("hazard commit failed", "hazard", what, "error", err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
