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

import "fmt"

// MinDuration and MaxDuration bound the table globally. The game deals
// lengths in this range, so shorter and longer videos are dead weight.
const (
	MinDuration = 180
	MaxDuration = 2180
)

// Class selects one of the search API's duration buckets. The API only
// filters coarsely; the exact range is enforced when the table merges.
type Class int

const (
	// ClassAny spans the whole table range.
	ClassAny Class = iota

	// ClassShort is under four minutes.
	ClassShort

	// ClassMedium is four to twenty minutes.
	ClassMedium

	// ClassLong is over twenty minutes.
	ClassLong
)

// ParseClass reads a class name as the CLI spells it.
func ParseClass(s string) (Class, error) {
	switch s {
	case "any", "":
		return ClassAny, nil
	case "short":
		return ClassShort, nil
	case "medium":
		return ClassMedium, nil
	case "long":
		return ClassLong, nil
	default:
		return ClassAny, fmt.Errorf("unknown duration class %q", s)
	}
}

// Param is the search API's videoDuration value.
func (c Class) Param() string {
	switch c {
	case ClassShort:
		return "short"
	case ClassMedium:
		return "medium"
	case ClassLong:
		return "long"
	default:
		return "any"
	}
}

func (c Class) String() string {
	return c.Param()
}

// Min is the class's first in-range second.
func (c Class) Min() int {
	switch c {
	case ClassMedium:
		return 4 * 60
	case ClassLong:
		return 20*60 + 1
	default:
		return MinDuration
	}
}

// Max is the class's last in-range second.
func (c Class) Max() int {
	switch c {
	case ClassShort:
		return 4*60 - 1
	case ClassMedium:
		return 20 * 60
	default:
		return MaxDuration
	}
}

// Span counts the durations the class can cover.
func (c Class) Span() int {
	return c.Max() - c.Min() + 1
}
