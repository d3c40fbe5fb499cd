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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/services/engine/password"
)

func TestDocumentWireRoundTrip(t *testing.T) {
	in := []ClusterWire{
		{Text: "P", Bold: true, Size: 28},
		{Text: "🧑‍🚀", Size: 0},
		{Text: "s", Italic: true, Size: 36, Family: int(password.Wingdings)},
		{Text: "0", Size: 64, Family: int(password.TimesNewRoman)},
	}

	doc, err := DecodeDocument(in)
	require.NoError(t, err)
	assert.Equal(t, "P🧑‍🚀s0", doc.String())
	assert.Equal(t, 4, doc.Len())

	f := doc.FormatAt(0)
	assert.True(t, f.Bold)
	assert.Equal(t, password.Px28, f.Size)
	f = doc.FormatAt(2)
	assert.True(t, f.Italic)
	assert.Equal(t, password.Wingdings, f.Family)

	assert.Equal(t, in, EncodeDocument(doc))
}

func TestEncodeEmptyDocument(t *testing.T) {
	assert.Nil(t, EncodeDocument(nil))
	assert.Nil(t, EncodeDocument(password.New("")))
}

func TestDecodeRejectsMalformedClusters(t *testing.T) {
	cases := []struct {
		name string
		in   []ClusterWire
	}{
		{"two graphemes", []ClusterWire{{Text: "ab", Size: 28}}},
		{"empty text", []ClusterWire{{Text: "", Size: 28}}},
		{"size off the menu", []ClusterWire{{Text: "a", Size: 17}}},
		{"unknown family", []ClusterWire{{Text: "a", Size: 28, Family: 9}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDocument(tc.in)
			assert.ErrorIs(t, err, ErrBadDocument)
		})
	}
}
