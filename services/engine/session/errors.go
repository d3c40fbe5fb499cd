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

import "errors"

var (
	// ErrAttemptsExhausted is returned when every attempt the session was
	// allowed failed.
	ErrAttemptsExhausted = errors.New("attempt budget exhausted")

	// ErrNoWinner is returned by Winner before any attempt has won.
	ErrNoWinner = errors.New("no winning password sealed")

	// ErrWinnerSpent is returned by Winner after the sealed password has
	// been revealed and wiped.
	ErrWinnerSpent = errors.New("winning password already revealed")

	// ErrAlreadyRun is returned when Run is called twice on one session.
	ErrAlreadyRun = errors.New("session already ran")
)
