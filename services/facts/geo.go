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
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/passmith/services/engine/rules"
)

//go:embed countries.txt
var countriesData string

// geoSkew is how far (in degrees, per axis) an asked coordinate may sit
// from a table entry and still resolve. Rule parameters travel through a
// URL format that rounds, so exact float equality is too strict.
const geoSkew = 0.5

// countryAliases maps formal geocoder names to the names the surface
// accepts. The holy see entry is not a mistake: the surface treats Vatican
// coordinates as Italy.
var countryAliases = map[string]string{
	"russian federation":                 "russia",
	"venezuela (bolivarian republic of)": "venezuela",
	"iran (islamic republic of)":         "iran",
	"holy see":                           "italy",
}

// NormalizeCountry lowercases a country name and folds known formal names
// to the ones the surface accepts.
func NormalizeCountry(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := countryAliases[name]; ok {
		return alias
	}
	return name
}

// geoEntry pairs one location with its accepted country name.
type geoEntry struct {
	coords  rules.Coords
	country string
}

// GeoTable resolves coordinates to country names from the embedded
// location pool, which is the pool the simulated surface draws its
// geography rule from.
type GeoTable struct {
	entries []geoEntry
}

// NewGeoTable parses the embedded pool.
func NewGeoTable() *GeoTable {
	lines := strings.Split(countriesData, "\n")
	entries := make([]geoEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		lat, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		long, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		entries = append(entries, geoEntry{
			coords:  rules.Coords{Lat: lat, Long: long},
			country: NormalizeCountry(strings.Join(fields[2:], " ")),
		})
	}
	return &GeoTable{entries: entries}
}

// Country returns the country at the nearest pool location, or ErrNotFound
// when nothing in the pool is close enough.
func (g *GeoTable) Country(coords rules.Coords) (string, error) {
	best := -1
	bestDist := 0.0
	for i, entry := range g.entries {
		dLat := entry.coords.Lat - coords.Lat
		dLong := entry.coords.Long - coords.Long
		dist := dLat*dLat + dLong*dLong
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best == -1 || bestDist > geoSkew*geoSkew {
		return "", fmt.Errorf("%w: no country at %s", ErrNotFound, coords)
	}
	return g.entries[best].country, nil
}

// Locations returns every coordinate pair in the pool. The simulated
// surface picks its geography parameters from here.
func (g *GeoTable) Locations() []rules.Coords {
	out := make([]rules.Coords, len(g.entries))
	for i, entry := range g.entries {
		out[i] = entry.coords
	}
	return out
}

var _ Geocoder = (*GeoTable)(nil)
