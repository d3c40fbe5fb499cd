// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synchronizer

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/AleutianAI/passmith/services/engine/password"
)

// adopt rebuilds the document around the observed text. Graphemes both
// sides kept carry their formats and protection; graphemes the surface
// introduced arrive bare and unprotected, so a flame that landed on a
// protected cell can be removed with a plain delete. Each diff fragment
// commits on its own because splices shift the indices behind them.
func adopt(doc *password.Document, diffs []diffmatchpatch.Diff) (*password.Document, error) {
	out := doc.Snapshot()
	out.DiscardQueue()

	pos := 0
	for _, d := range diffs {
		n := len(password.Split(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n

		case diffmatchpatch.DiffDelete:
			for k := 0; k < n; k++ {
				ch := password.Change{Op: password.OpRemove, Index: pos, IgnoreProtection: true}
				if err := out.Queue(ch); err != nil {
					return nil, fmt.Errorf("adopting delete at %d: %w", pos, err)
				}
				if err := out.Commit(); err != nil {
					return nil, fmt.Errorf("adopting delete at %d: %w", pos, err)
				}
			}

		case diffmatchpatch.DiffInsert:
			if err := out.Queue(password.Insert(pos, d.Text)); err != nil {
				return nil, fmt.Errorf("adopting insert at %d: %w", pos, err)
			}
			if err := out.Commit(); err != nil {
				return nil, fmt.Errorf("adopting insert at %d: %w", pos, err)
			}
			pos += n
		}
	}
	return out, nil
}
