// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package password models the candidate string as a rich-text document:
// a sequence of grapheme clusters with per-grapheme formatting and a
// protection overlay for glyphs that later edits must not destroy.
//
// Mutation goes through a queue-then-commit discipline. Solvers queue
// Changes against the grapheme indices they observed; Commit orders the
// batch (formats, prepends, appends, inserts, replaces, then removes back
// to front) and applies it atomically, so a proposal computed against one
// snapshot lands coherently even when it mixes insertions and deletions.
//
// Grapheme clusters are the unit of indexing throughout. "🏋️‍♂️" is one
// grapheme, five runes, and seventeen bytes; rules and solvers only ever
// see the grapheme view. Segmentation follows Unicode UAX #29 via
// github.com/rivo/uniseg.
package password

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Document is a password under construction: grapheme clusters, parallel
// formatting, parallel protection flags, and a queue of pending changes.
//
// Document is not safe for concurrent use. The engine owns it for the
// duration of a reconciliation cycle; everyone else works on a Snapshot.
type Document struct {
	// clusters holds one grapheme cluster per element.
	clusters []string

	// formats holds the formatting of each cluster. Always the same
	// length as clusters.
	formats []Format

	// protected marks clusters that destructive changes must not touch.
	// Always the same length as clusters.
	protected []bool

	// queue holds changes accumulated since the last Commit.
	queue []Change
}

// New builds a Document from text with default formatting and no
// protection.
func New(text string) *Document {
	clusters := Split(text)
	d := &Document{
		clusters:  clusters,
		formats:   make([]Format, len(clusters)),
		protected: make([]bool, len(clusters)),
	}
	for i := range d.formats {
		d.formats[i] = DefaultFormat()
	}
	return d
}

// Split segments text into grapheme clusters.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	clusters := make([]string, 0, len(text))
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		clusters = append(clusters, cluster)
	}
	return clusters
}

// Len returns the length in grapheme clusters.
func (d *Document) Len() int {
	return len(d.clusters)
}

// String renders the plain text.
func (d *Document) String() string {
	return strings.Join(d.clusters, "")
}

// Cluster returns the grapheme at index i.
func (d *Document) Cluster(i int) string {
	return d.clusters[i]
}

// Clusters returns a copy of the grapheme sequence.
func (d *Document) Clusters() []string {
	out := make([]string, len(d.clusters))
	copy(out, d.clusters)
	return out
}

// FormatAt returns the formatting of the grapheme at index i.
func (d *Document) FormatAt(i int) Format {
	return d.formats[i]
}

// Formats returns a copy of the formatting vector.
func (d *Document) Formats() []Format {
	out := make([]Format, len(d.formats))
	copy(out, d.formats)
	return out
}

// ProtectedAt reports whether the grapheme at index i is protected.
func (d *Document) ProtectedAt(i int) bool {
	return d.protected[i]
}

// Protect marks the grapheme at index i as protected.
func (d *Document) Protect(i int) error {
	if i < 0 || i >= len(d.clusters) {
		return fmt.Errorf("%w: protect %d of %d", ErrIndexOutOfRange, i, len(d.clusters))
	}
	d.protected[i] = true
	return nil
}

// Unprotect clears protection on the grapheme at index i.
func (d *Document) Unprotect(i int) error {
	if i < 0 || i >= len(d.clusters) {
		return fmt.Errorf("%w: unprotect %d of %d", ErrIndexOutOfRange, i, len(d.clusters))
	}
	d.protected[i] = false
	return nil
}

// Snapshot returns a deep copy, including any queued changes.
func (d *Document) Snapshot() *Document {
	c := &Document{
		clusters:  make([]string, len(d.clusters)),
		formats:   make([]Format, len(d.formats)),
		protected: make([]bool, len(d.protected)),
		queue:     make([]Change, len(d.queue)),
	}
	copy(c.clusters, d.clusters)
	copy(c.formats, d.formats)
	copy(c.protected, d.protected)
	copy(c.queue, d.queue)
	return c
}

// QueueLen returns the number of pending changes.
func (d *Document) QueueLen() int {
	return len(d.queue)
}

// PendingChanges returns a copy of the queued changes.
func (d *Document) PendingChanges() []Change {
	out := make([]Change, len(d.queue))
	copy(out, d.queue)
	return out
}

// DiscardQueue drops all pending changes without applying them.
func (d *Document) DiscardQueue() {
	d.queue = d.queue[:0]
}

// Queue validates ch against the current document and adds it to the
// pending set. Index bounds and protection are checked here so an invalid
// proposal is rejected before anything is half-applied.
//
// Prepends and inserts shift the indices of everything after them; do not
// batch them with index-addressed changes unless the indices were computed
// for the post-insert layout. Solvers queue either splices or indexed
// edits per proposal, never both against stale indices.
func (d *Document) Queue(ch Change) error {
	switch ch.Op {
	case OpAppend, OpPrepend:
		if ch.Text == "" {
			return fmt.Errorf("%w: %s", ErrEmptyText, ch.Op)
		}
	case OpInsert:
		if ch.Text == "" {
			return fmt.Errorf("%w: %s", ErrEmptyText, ch.Op)
		}
		if ch.Index < 0 || ch.Index > len(d.clusters) {
			return fmt.Errorf("%w: %s at %d of %d", ErrIndexOutOfRange, ch.Op, ch.Index, len(d.clusters))
		}
	case OpFormat:
		if ch.Index < 0 || ch.Index >= len(d.clusters) {
			return fmt.Errorf("%w: %s at %d of %d", ErrIndexOutOfRange, ch.Op, ch.Index, len(d.clusters))
		}
		if ch.Format.Field == FieldSize && !ch.Format.Size.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownFontSize, int(ch.Format.Size))
		}
	case OpReplace, OpRemove:
		if ch.Index < 0 || ch.Index >= len(d.clusters) {
			return fmt.Errorf("%w: %s at %d of %d", ErrIndexOutOfRange, ch.Op, ch.Index, len(d.clusters))
		}
		if !ch.IgnoreProtection && d.protected[ch.Index] {
			return fmt.Errorf("%w: %s at %d", ErrProtectedGrapheme, ch.Op, ch.Index)
		}
		if ch.Op == OpReplace && len(Split(ch.Text)) != 1 {
			return fmt.Errorf("%w: got %q", ErrNotSingleGrapheme, ch.Text)
		}
	default:
		return fmt.Errorf("unknown change op %d", int(ch.Op))
	}

	d.queue = append(d.queue, ch)
	return nil
}

// Commit applies all pending changes in commit order and clears the
// queue. On error the document is left unchanged and the queue is kept so
// the caller can inspect it.
func (d *Document) Commit() error {
	if len(d.queue) == 0 {
		return nil
	}

	// Apply to a scratch copy first so a mid-batch failure cannot leave a
	// torn document.
	scratch := d.Snapshot()
	batch := make([]Change, len(d.queue))
	copy(batch, d.queue)
	sortForCommit(batch)

	for _, ch := range batch {
		if err := scratch.apply(ch); err != nil {
			return fmt.Errorf("commit %s: %w", ch.Op, err)
		}
	}

	d.clusters = scratch.clusters
	d.formats = scratch.formats
	d.protected = scratch.protected
	d.queue = d.queue[:0]
	return nil
}

// apply performs one change directly. Callers have already validated
// against the pre-commit document; bounds are re-checked because earlier
// changes in the batch shift indices for removes.
func (d *Document) apply(ch Change) error {
	switch ch.Op {
	case OpFormat:
		if ch.Index < 0 || ch.Index >= len(d.clusters) {
			return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, ch.Index, len(d.clusters))
		}
		ch.Format.apply(&d.formats[ch.Index])

	case OpPrepend:
		d.insertAt(0, ch.Text, ch.Protected)

	case OpAppend:
		d.insertAt(len(d.clusters), ch.Text, ch.Protected)

	case OpInsert:
		if ch.Index < 0 || ch.Index > len(d.clusters) {
			return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, ch.Index, len(d.clusters))
		}
		d.insertAt(ch.Index, ch.Text, ch.Protected)

	case OpReplace:
		if ch.Index < 0 || ch.Index >= len(d.clusters) {
			return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, ch.Index, len(d.clusters))
		}
		if !ch.IgnoreProtection && d.protected[ch.Index] {
			return fmt.Errorf("%w: index %d", ErrProtectedGrapheme, ch.Index)
		}
		// Formatting and protection stay with the cell.
		d.clusters[ch.Index] = ch.Text

	case OpRemove:
		if ch.Index < 0 || ch.Index >= len(d.clusters) {
			return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, ch.Index, len(d.clusters))
		}
		if !ch.IgnoreProtection && d.protected[ch.Index] {
			return fmt.Errorf("%w: index %d", ErrProtectedGrapheme, ch.Index)
		}
		d.clusters = append(d.clusters[:ch.Index], d.clusters[ch.Index+1:]...)
		d.formats = append(d.formats[:ch.Index], d.formats[ch.Index+1:]...)
		d.protected = append(d.protected[:ch.Index], d.protected[ch.Index+1:]...)

	default:
		return fmt.Errorf("unknown change op %d", int(ch.Op))
	}
	return nil
}

// insertAt splices text's clusters in before index i with default
// formatting.
func (d *Document) insertAt(i int, text string, prot bool) {
	incoming := Split(text)
	if len(incoming) == 0 {
		return
	}

	clusters := make([]string, 0, len(d.clusters)+len(incoming))
	clusters = append(clusters, d.clusters[:i]...)
	clusters = append(clusters, incoming...)
	clusters = append(clusters, d.clusters[i:]...)
	d.clusters = clusters

	formats := make([]Format, 0, len(d.formats)+len(incoming))
	formats = append(formats, d.formats[:i]...)
	for range incoming {
		formats = append(formats, DefaultFormat())
	}
	formats = append(formats, d.formats[i:]...)
	d.formats = formats

	protected := make([]bool, 0, len(d.protected)+len(incoming))
	protected = append(protected, d.protected[:i]...)
	for range incoming {
		protected = append(protected, prot)
	}
	protected = append(protected, d.protected[i:]...)
	d.protected = protected
}
