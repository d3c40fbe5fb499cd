// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedRule is returned when a rule feed entry names no known
	// rule family.
	ErrUnrecognizedRule = errors.New("unrecognized rule")

	// ErrMalformedParameters is returned when a rule entry names a known
	// family but its parameters are missing or unparseable.
	ErrMalformedParameters = errors.New("malformed rule parameters")
)

// ParseError reports a feed entry Parse could not turn into a rule. It
// unwraps to ErrUnrecognizedRule or ErrMalformedParameters.
type ParseError struct {
	// Raw is the offending feed entry, truncated for logs.
	Raw string

	// Reason describes what was missing or unmatched.
	Reason string

	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing rule %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.err }
