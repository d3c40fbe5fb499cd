// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import "errors"

var (
	// ErrEntryOutOfRange is returned when a ledger index does not name a
	// revealed rule.
	ErrEntryOutOfRange = errors.New("ledger entry index out of range")

	// ErrNilDocument is returned when a nil document is committed.
	ErrNilDocument = errors.New("document must not be nil")

	// ErrJournalClosed is returned by operations on a closed journal.
	ErrJournalClosed = errors.New("journal is closed")

	// ErrJournalCorrupted is returned when a journal entry fails its
	// integrity check.
	ErrJournalCorrupted = errors.New("journal entry corrupted (CRC mismatch)")

	// ErrJournalSequenceGap is returned when replay finds a hole in the
	// sequence numbers.
	ErrJournalSequenceGap = errors.New("journal sequence number gap detected")
)
