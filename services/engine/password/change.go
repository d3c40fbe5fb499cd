// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package password

import (
	"fmt"
	"sort"
)

// Op identifies the kind of a Change. The numeric order is the commit
// order: formats land before insertions so indices refer to the text as
// solvers saw it, removals land last and run back to front so earlier
// indices stay valid.
type Op int

const (
	// OpFormat changes the formatting of the grapheme at Index.
	OpFormat Op = iota
	// OpPrepend inserts Text at the start.
	OpPrepend
	// OpAppend inserts Text at the end.
	OpAppend
	// OpInsert inserts Text before the grapheme at Index.
	OpInsert
	// OpReplace swaps the grapheme at Index for Text (a single cluster).
	OpReplace
	// OpRemove deletes the grapheme at Index.
	OpRemove
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpFormat:
		return "format"
	case OpPrepend:
		return "prepend"
	case OpAppend:
		return "append"
	case OpInsert:
		return "insert"
	case OpReplace:
		return "replace"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Change is one queued modification to a Document. Changes accumulate via
// Queue and land together in Commit; within one commit all indices refer
// to the document as it was when the changes were queued.
type Change struct {
	// Op selects the kind of change.
	Op Op

	// Index is the target grapheme for OpFormat, OpInsert, OpReplace and
	// OpRemove. Ignored for OpPrepend and OpAppend.
	Index int

	// Text is the inserted text for OpPrepend, OpAppend, OpInsert, and the
	// replacement cluster for OpReplace.
	Text string

	// Format is the formatting mutation for OpFormat.
	Format FormatChange

	// Protected marks graphemes written by insert-style ops as protected.
	Protected bool

	// IgnoreProtection permits OpReplace and OpRemove to hit a protected
	// grapheme. Set only by hatch swaps and in-place anchor rewrites.
	IgnoreProtection bool
}

// FormatAt returns a Change that applies fc to the grapheme at index.
func FormatAt(index int, fc FormatChange) Change {
	return Change{Op: OpFormat, Index: index, Format: fc}
}

// Append returns a Change that appends text with default formatting.
func Append(text string) Change {
	return Change{Op: OpAppend, Text: text}
}

// AppendProtected returns an appending Change whose graphemes are
// protected once written.
func AppendProtected(text string) Change {
	return Change{Op: OpAppend, Text: text, Protected: true}
}

// Prepend returns a Change that prepends text with default formatting.
func Prepend(text string) Change {
	return Change{Op: OpPrepend, Text: text}
}

// PrependProtected returns a prepending Change whose graphemes are
// protected once written.
func PrependProtected(text string) Change {
	return Change{Op: OpPrepend, Text: text, Protected: true}
}

// Insert returns a Change that inserts text before the grapheme at index.
func Insert(index int, text string) Change {
	return Change{Op: OpInsert, Index: index, Text: text}
}

// Replace returns a Change that swaps the grapheme at index for cluster.
func Replace(index int, cluster string) Change {
	return Change{Op: OpReplace, Index: index, Text: cluster}
}

// Remove returns a Change that deletes the grapheme at index.
func Remove(index int) Change {
	return Change{Op: OpRemove, Index: index}
}

// sortForCommit orders changes for application: by op rank, then by index,
// with the removal block reversed so deletions run back to front. The sort
// is stable so equal keys keep queue order.
func sortForCommit(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Op != changes[j].Op {
			return changes[i].Op < changes[j].Op
		}
		return changes[i].Index < changes[j].Index
	})

	first := -1
	for i, c := range changes {
		if c.Op == OpRemove {
			first = i
			break
		}
	}
	if first >= 0 {
		tail := changes[first:]
		for l, r := 0, len(tail)-1; l < r; l, r = l+1, r-1 {
			tail[l], tail[r] = tail[r], tail[l]
		}
	}
}
