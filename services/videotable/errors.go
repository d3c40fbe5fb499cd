// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package videotable

import "errors"

var (
	// ErrQuotaExhausted reports that the API key ran out of quota. The
	// table is saved after every batch, so a build resumes where it
	// stopped.
	ErrQuotaExhausted = errors.New("youtube quota exhausted")

	// ErrOutOfQueries reports that every query ran dry before the
	// build reached its target.
	ErrOutOfQueries = errors.New("query list exhausted")
)
