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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

func TestGeoTable_Country(t *testing.T) {
	table := NewGeoTable()
	require.GreaterOrEqual(t, len(table.Locations()), 50)

	uluru := rules.Coords{Lat: -25.344428, Long: 131.036882}

	country, err := table.Country(uluru)
	require.NoError(t, err)
	assert.Equal(t, "australia", country)

	// Coordinates that travelled through a URL come back rounded.
	rounded := rules.Coords{Lat: -25.3444, Long: 131.0369}
	country, err = table.Country(rounded)
	require.NoError(t, err)
	assert.Equal(t, "australia", country)

	// Vatican coordinates resolve to the name the surface accepts.
	vatican := rules.Coords{Lat: 41.902167, Long: 12.453937}
	country, err = table.Country(vatican)
	require.NoError(t, err)
	assert.Equal(t, "italy", country)

	// Open ocean has no country.
	_, err = table.Country(rules.Coords{Lat: 0, Long: 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeCountry(t *testing.T) {
	cases := map[string]string{
		"Australia":                          "australia",
		"  France ":                          "france",
		"Russian Federation":                 "russia",
		"VENEZUELA (BOLIVARIAN REPUBLIC OF)": "venezuela",
		"Iran (Islamic Republic of)":         "iran",
		"Holy See":                           "italy",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCountry(in), in)
	}
}

func TestGeoTable_LocationsIsACopy(t *testing.T) {
	table := NewGeoTable()
	locs := table.Locations()
	first := locs[0]
	locs[0] = rules.Coords{Lat: 90, Long: 0}

	again := table.Locations()
	assert.Equal(t, first, again[0])
}
