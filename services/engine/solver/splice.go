// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// =============================================================================
// Text splices
// =============================================================================

// solveMinLength pads the password to five graphemes.
func (s *Solver) solveMinLength(doc *password.Document, rule rules.Rule) Outcome {
	toAdd := 5 - doc.Len()
	return propose(rule, "pad to five graphemes", password.Append(strings.Repeat("z", toAdd)))
}

// rankedTokens proposes one protected append per catalogue entry, shortest
// token first so the cheapest splice ranks highest. Ties keep catalogue
// order, which keeps the choice deterministic.
func rankedTokens(rule rules.Rule, note string, catalogue []string, stripSpaces bool) Outcome {
	tokens := make([]string, len(catalogue))
	copy(tokens, catalogue)
	if stripSpaces {
		for i, token := range tokens {
			tokens[i] = strings.ReplaceAll(token, " ", "")
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return len(tokens[i]) < len(tokens[j])
	})

	edits := make([]Edit, 0, len(tokens))
	for rank, token := range tokens {
		edits = append(edits, Edit{
			Rule:    rule.Kind,
			Rank:    rank,
			Note:    fmt.Sprintf("%s %q", note, token),
			Changes: []password.Change{password.AppendProtected(token)},
		})
	}
	return proposeRanked(edits)
}

// =============================================================================
// Fact-backed splices
// =============================================================================

// solveCaptcha appends the rule's token verbatim.
func (s *Solver) solveCaptcha(rule rules.Rule) Outcome {
	if rule.Captcha == "" {
		return infeasible(rule, "captcha token missing from rule", false)
	}
	return propose(rule, "append the captcha token", password.AppendProtected(rule.Captcha))
}

// solveWordle appends today's answer once the provider has it.
func (s *Solver) solveWordle(rule rules.Rule, facts *rules.Facts) Outcome {
	if facts.WordleAnswer == "" {
		return infeasible(rule, "wordle answer not resolved yet", true)
	}
	return propose(rule, "append the wordle answer", password.AppendProtected(facts.WordleAnswer))
}

// solveMoonPhase appends the snapshot's first accepted emoji.
func (s *Solver) solveMoonPhase(rule rules.Rule, facts *rules.Facts) Outcome {
	if len(facts.MoonEmojis) == 0 {
		return infeasible(rule, "moon phase not resolved yet", true)
	}
	return propose(rule, "append the moon", password.AppendProtected(facts.MoonEmojis[0]))
}

// solveGeo appends the geocoded country, spaces removed so the sacrifice
// and length rules have fewer cells to fight over.
func (s *Solver) solveGeo(rule rules.Rule, facts *rules.Facts) Outcome {
	country, ok := facts.Country(rule.Coords)
	if !ok {
		return infeasible(rule, "country not resolved yet", true)
	}
	return propose(rule, "append the country", password.AppendProtected(strings.ReplaceAll(country, " ", "")))
}

// solveChess appends the oracle's best move.
func (s *Solver) solveChess(rule rules.Rule, facts *rules.Facts) Outcome {
	san, ok := facts.BestMove(rule.FEN)
	if !ok {
		return infeasible(rule, "best move not resolved yet", true)
	}
	return propose(rule, "append the best move", password.AppendProtected(san))
}

// solveYoutube ranks every video within a second of the demanded length,
// exact matches first. IDs are walked in sorted order so the ranking never
// depends on map iteration.
func (s *Solver) solveYoutube(rule rules.Rule, facts *rules.Facts) Outcome {
	if len(facts.VideoDurations) == 0 {
		return infeasible(rule, "video table not resolved yet", true)
	}

	ids := make([]string, 0, len(facts.VideoDurations))
	for id := range facts.VideoDurations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var edits []Edit
	for _, offset := range []int{0, -1, 1} {
		want := rule.Seconds + offset
		for _, id := range ids {
			if facts.VideoDurations[id] != want {
				continue
			}
			edits = append(edits, Edit{
				Rule:    rule.Kind,
				Rank:    len(edits),
				Note:    fmt.Sprintf("video %s runs %ds", id, want),
				Changes: []password.Change{password.AppendProtected("youtu.be/" + id)},
			})
		}
	}
	if len(edits) == 0 {
		return infeasible(rule, fmt.Sprintf("no video within a second of %ds", rule.Seconds), false)
	}
	return proposeRanked(edits)
}

// =============================================================================
// Hazard upkeep
// =============================================================================

// solveHatch tops up Paul's food. Never append past the reserve: nine bugs
// in view overfeeds him and ends the game.
func (s *Solver) solveHatch(rule rules.Rule) Outcome {
	n := s.bugReserve
	if n < 1 {
		n = 1
	}
	return propose(rule, "feed Paul", password.Append(strings.Repeat("🐛", n)))
}

// solveFire removes every flame. The synchronizer unprotects burned cells
// when it patches them in, so plain removes are enough here.
func (s *Solver) solveFire(doc *password.Document, rule rules.Rule) Outcome {
	indexes := password.IndexesOfCluster(doc.String(), "🔥")
	if len(indexes) == 0 {
		return propose(rule, "no flames to douse")
	}
	changes := make([]password.Change, 0, len(indexes))
	for _, i := range indexes {
		changes = append(changes, password.Remove(i))
	}
	return propose(rule, fmt.Sprintf("douse %d flames", len(indexes)), changes...)
}
