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

import (
	"fmt"

	"github.com/AleutianAI/passmith/services/engine/password"
)

// ClusterWire is one grapheme with its formatting, as it travels between
// a game server and a driver. Size is always written: 0 is a real menu
// size (the square of the digit zero), not an omission. Protection never
// crosses the wire; it is the engine's own bookkeeping.
type ClusterWire struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Size   int    `json:"size"`
	Family int    `json:"family,omitempty"`
}

// EncodeDocument flattens a document to wire clusters.
func EncodeDocument(doc *password.Document) []ClusterWire {
	if doc == nil || doc.Len() == 0 {
		return nil
	}
	out := make([]ClusterWire, doc.Len())
	for i, c := range doc.Clusters() {
		f := doc.FormatAt(i)
		out[i] = ClusterWire{
			Text:   c,
			Bold:   f.Bold,
			Italic: f.Italic,
			Size:   int(f.Size),
			Family: int(f.Family),
		}
	}
	return out
}

// DecodeDocument rebuilds a document from wire clusters. Each entry must
// hold exactly one grapheme and name a size and family the surface
// offers.
func DecodeDocument(clusters []ClusterWire) (*password.Document, error) {
	doc := password.New("")
	for i, cw := range clusters {
		if n := len(password.Split(cw.Text)); n != 1 {
			return nil, fmt.Errorf("%w: entry %d holds %d graphemes", ErrBadDocument, i, n)
		}
		if !password.FontSize(cw.Size).Valid() {
			return nil, fmt.Errorf("%w: entry %d size %d", ErrBadDocument, i, cw.Size)
		}
		if cw.Family < int(password.Monospace) || cw.Family > int(password.TimesNewRoman) {
			return nil, fmt.Errorf("%w: entry %d family %d", ErrBadDocument, i, cw.Family)
		}
		if err := doc.Queue(password.Append(cw.Text)); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBadDocument, i, err)
		}
	}
	if err := doc.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}

	for i, cw := range clusters {
		if cw.Bold {
			queueFormat(doc, i, password.FormatChange{Field: password.FieldBold})
		}
		if cw.Italic {
			queueFormat(doc, i, password.FormatChange{Field: password.FieldItalic})
		}
		queueFormat(doc, i, password.FormatChange{
			Field: password.FieldSize, Size: password.FontSize(cw.Size),
		})
		queueFormat(doc, i, password.FormatChange{
			Field: password.FieldFamily, Family: password.FontFamily(cw.Family),
		})
	}
	if err := doc.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return doc, nil
}

// queueFormat queues one format change. Indices were just validated, so a
// queue refusal cannot happen; the commit reports anything else.
func queueFormat(doc *password.Document, i int, fc password.FormatChange) {
	_ = doc.Queue(password.FormatAt(i, fc))
}
