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

import "errors"

var (
	// ErrIndexOutOfRange is returned when a change references a grapheme
	// index outside the document.
	ErrIndexOutOfRange = errors.New("grapheme index out of range")

	// ErrProtectedGrapheme is returned when a destructive change targets a
	// protected grapheme without IgnoreProtection.
	ErrProtectedGrapheme = errors.New("grapheme is protected")

	// ErrEmptyText is returned when an insert-style change carries no text.
	ErrEmptyText = errors.New("change text is empty")

	// ErrNotSingleGrapheme is returned when a replacement is not exactly
	// one grapheme cluster.
	ErrNotSingleGrapheme = errors.New("replacement must be a single grapheme")

	// ErrUnknownFontSize is returned when a font size outside the surface's
	// supported set is requested.
	ErrUnknownFontSize = errors.New("unsupported font size")

	// ErrUnsupportedGrapheme is returned when text contains a grapheme the
	// surface alphabet cannot accept.
	ErrUnsupportedGrapheme = errors.New("grapheme not accepted by surface alphabet")
)
