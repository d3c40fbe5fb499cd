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
	"fmt"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

// moonZone is the timezone the surface evaluates the moon in. The game is
// hosted on US Eastern time, so the phase flips at its midnight, not ours.
const moonZone = "America/New_York"

// MoonCalc computes the moon phase the way the surface does: the suncalc
// lunar phase at today's Eastern midnight, compared against tomorrow's to
// catch the quarter instants that fall between the two.
type MoonCalc struct {
	loc *time.Location
}

// NewMoonCalc loads the Eastern timezone and returns the calendar.
func NewMoonCalc() (*MoonCalc, error) {
	loc, err := time.LoadLocation(moonZone)
	if err != nil {
		return nil, fmt.Errorf("load moon timezone: %w", err)
	}
	return &MoonCalc{loc: loc}, nil
}

// Phase returns the phase in effect for the day containing at.
func (m *MoonCalc) Phase(at time.Time) rules.MoonPhase {
	local := at.In(m.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, m.loc)
	tomorrow := today.AddDate(0, 0, 1)

	return phaseBetween(
		suncalc.GetMoonIllumination(today).Phase,
		suncalc.GetMoonIllumination(tomorrow).Phase,
	)
}

// phaseBetween maps today's and tomorrow's lunar phase values (0 new,
// 0.25 first quarter, 0.5 full, 0.75 last quarter) to the phase shown for
// the day. A quarter instant that falls between the two midnights wins the
// day; a wrap past 1.0 is the new moon.
func phaseBetween(today, tomorrow float64) rules.MoonPhase {
	switch {
	case today <= 0.25 && tomorrow >= 0.25:
		return rules.FirstQuarter
	case today <= 0.5 && tomorrow >= 0.5:
		return rules.FullMoon
	case today <= 0.75 && tomorrow >= 0.75:
		return rules.LastQuarter
	case today >= tomorrow:
		return rules.NewMoon
	case today <= 0.25:
		return rules.WaxingCrescent
	case today <= 0.5:
		return rules.WaxingGibbous
	case today <= 0.75:
		return rules.WaningGibbous
	default:
		return rules.WaningCrescent
	}
}

var _ MoonCalendar = (*MoonCalc)(nil)
