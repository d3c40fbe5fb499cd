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

import "errors"

var (
	// ErrInjection is the sentinel wrapped by every InjectionError and
	// by untyped push failures once retries run out.
	ErrInjection = errors.New("surface rejected the injection")

	// ErrObserve is the sentinel for read-back failures.
	ErrObserve = errors.New("surface could not be read")

	// ErrLostSync is returned when the surface keeps showing text this
	// side never wrote, past the resync budget.
	ErrLostSync = errors.New("surface text lost beyond resync")

	// ErrGameOver is returned when the surface shows the gravestone.
	ErrGameOver = errors.New("the game is over")
)

// InjectionError reports a failed SetText. Retryable distinguishes a
// transient surface hiccup from a rejection that will repeat.
type InjectionError struct {
	// Reason is a short human-readable explanation.
	Reason string

	// Retryable is true when the same push may succeed shortly.
	Retryable bool
}

// Error implements the error interface.
func (e *InjectionError) Error() string {
	return "injection failed: " + e.Reason
}

// Unwrap ties the error into the ErrInjection sentinel chain.
func (e *InjectionError) Unwrap() error {
	return ErrInjection
}

// ObserveError reports a failed ReadText.
type ObserveError struct {
	// Reason is a short human-readable explanation.
	Reason string

	// Retryable is true when the same read may succeed shortly.
	Retryable bool
}

// Error implements the error interface.
func (e *ObserveError) Error() string {
	return "observe failed: " + e.Reason
}

// Unwrap ties the error into the ErrObserve sentinel chain.
func (e *ObserveError) Unwrap() error {
	return ErrObserve
}
