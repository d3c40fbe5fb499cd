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

import "errors"

var (
	// ErrNotFound means the provider answered and the fact does not
	// exist: no country at the coordinates, no video of that length.
	// Retrying will not help.
	ErrNotFound = errors.New("fact not found")

	// ErrUnavailable means the provider could not answer right now:
	// upstream down, timeout, malformed response. The session retries on
	// its next cycle.
	ErrUnavailable = errors.New("fact provider unavailable")
)
