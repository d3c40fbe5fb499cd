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

import "errors"

var (
	// ErrGameOver is returned by mutators once the game has ended.
	ErrGameOver = errors.New("game is over")

	// ErrBadSacrifice is returned for a sacrifice the surface would not
	// accept: wrong count, repeated letters, anything outside a-z, or a
	// choice made before the rule is on screen.
	ErrBadSacrifice = errors.New("invalid sacrifice")

	// ErrSacrificeTaken is returned when the two letters were already
	// chosen. The surface never lets a player choose twice.
	ErrSacrificeTaken = errors.New("sacrifice already made")

	// ErrUnfinished is returned by ConfirmFinal while any revealed rule
	// is unsatisfied or rules remain hidden.
	ErrUnfinished = errors.New("password does not satisfy every rule")

	// ErrBadDocument is returned by DecodeDocument for wire clusters the
	// surface could not hold: multi-grapheme entries, sizes or families
	// off the menu.
	ErrBadDocument = errors.New("invalid document payload")
)
