// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/AleutianAI/passmith/services/facts"
)

// Providers builds a fact provider set for the bound game. The wordle
// answer comes from the dealt instance; geography, chess, moon, and
// video facts resolve from the local tables, which are the same tables
// the server dealt from. Remote games run on the server's system clock,
// so the local system clock agrees to within skew; a cycle that lands
// on the wrong side of a minute boundary repairs itself on the next.
func (c *Client) Providers(ctx context.Context) (facts.Providers, error) {
	deal, err := c.Deal(ctx)
	if err != nil {
		return facts.Providers{}, err
	}
	moon, err := facts.NewMoonCalc()
	if err != nil {
		return facts.Providers{}, fmt.Errorf("moon calendar: %w", err)
	}
	return facts.Providers{
		Wordle: staticWordle{answer: deal.Wordle},
		Moon:   moon,
		Geo:    facts.NewGeoTable(),
		Chess:  facts.NewOracle(c.logger),
		Videos: facts.DefaultVideoTable(c.logger),
		Clock:  facts.SystemClock{},
		Logger: c.logger,
	}, nil
}

// staticWordle serves the dealt answer for any date.
type staticWordle struct {
	answer string
}

func (s staticWordle) Answer(ctx context.Context, date time.Time) (string, error) {
	return s.answer, nil
}
