// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/rules"
)

// Providers bundles every fact source the session wires in. Nil fields are
// reported as unavailable when a rule actually needs them, so a driver that
// never reveals the chess rule can run without an oracle.
type Providers struct {
	Wordle WordleSource
	Moon   MoonCalendar
	Geo    Geocoder
	Chess  ChessOracle
	Videos VideoIndex
	Clock  Clock

	Logger *logging.Logger
}

// Snapshot resolves everything the active rules need into one immutable
// rules.Facts value.
//
// Resolution is best-effort: a failed provider leaves its fact unset (an
// unset fact never satisfies a rule) and contributes to the joined error,
// so the caller can log, reconcile with what it has, and retry on the next
// cycle. Surface flags (egg placed, fire started, Paul's state, sacrificed
// letters) are owned by the session and merged in after this call.
func (p *Providers) Snapshot(ctx context.Context, active []rules.Rule) (*rules.Facts, error) {
	if p.Logger == nil {
		p.Logger = logging.Default()
	}

	facts := &rules.Facts{}
	if p.Clock != nil {
		facts.Now = p.Clock.Now()
	} else {
		facts.Now = time.Now()
	}

	var errs []error
	for _, rule := range active {
		switch rule.Kind {
		case rules.KindWordle:
			if facts.WordleAnswer != "" {
				continue
			}
			if p.Wordle == nil {
				errs = append(errs, fmt.Errorf("wordle: %w", ErrUnavailable))
				continue
			}
			answer, err := p.Wordle.Answer(ctx, facts.Now)
			if err != nil {
				errs = append(errs, fmt.Errorf("wordle: %w", err))
				continue
			}
			facts.WordleAnswer = answer

		case rules.KindMoonPhase:
			if facts.MoonEmojis != nil {
				continue
			}
			if p.Moon == nil {
				errs = append(errs, fmt.Errorf("moon: %w", ErrUnavailable))
				continue
			}
			phase := p.Moon.Phase(facts.Now)
			facts.MoonEmojis = phase.Emojis()
			p.Logger.Debug("moon phase resolved", "phase", phase.String())

		case rules.KindGeo:
			if _, ok := facts.Country(rule.Coords); ok {
				continue
			}
			if p.Geo == nil {
				errs = append(errs, fmt.Errorf("geo: %w", ErrUnavailable))
				continue
			}
			country, err := p.Geo.Country(rule.Coords)
			if err != nil {
				errs = append(errs, fmt.Errorf("geo %s: %w", rule.Coords, err))
				continue
			}
			facts.SetCountry(rule.Coords, country)

		case rules.KindChess:
			if _, ok := facts.BestMove(rule.FEN); ok {
				continue
			}
			if p.Chess == nil {
				errs = append(errs, fmt.Errorf("chess: %w", ErrUnavailable))
				continue
			}
			move, err := p.Chess.BestMove(ctx, rule.FEN)
			if err != nil {
				errs = append(errs, fmt.Errorf("chess: %w", err))
				continue
			}
			facts.SetBestMove(rule.FEN, move)

		case rules.KindYoutube:
			if facts.VideoDurations != nil {
				continue
			}
			if p.Videos == nil {
				errs = append(errs, fmt.Errorf("videos: %w", ErrUnavailable))
				continue
			}
			for id, seconds := range p.Videos.Durations() {
				facts.SetVideoDuration(id, seconds)
			}
		}
	}

	return facts, errors.Join(errs...)
}
