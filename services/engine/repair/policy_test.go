// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyOrder(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		unsatisfied []int
		want        []int
	}{
		{"newest first", NewestFirst, []int{0, 2, 5}, []int{5, 0, 2}},
		{"newest first single", NewestFirst, []int{3}, []int{3}},
		{"newest first empty", NewestFirst, []int{}, []int{}},
		{"oldest first", OldestFirst, []int{0, 2, 5}, []int{0, 2, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.order(tt.unsatisfied))
		})
	}
}

func TestPolicyOrderCopies(t *testing.T) {
	unsatisfied := []int{1, 4}
	got := OldestFirst.order(unsatisfied)
	got[0] = 99
	assert.Equal(t, []int{1, 4}, unsatisfied)
}

func TestPolicyBacktrackOrder(t *testing.T) {
	assert.Equal(t, []int{0, 2, 5}, NewestFirst.backtrackOrder([]int{0, 2, 5}))
	assert.Equal(t, []int{0, 2, 5}, OldestFirst.backtrackOrder([]int{0, 2, 5}))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, NewestFirst, p)

	p, err = ParsePolicy("newest-first")
	require.NoError(t, err)
	assert.Equal(t, NewestFirst, p)

	p, err = ParsePolicy("oldest-first")
	require.NoError(t, err)
	assert.Equal(t, OldestFirst, p)

	_, err = ParsePolicy("loudest-first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown conflict policy")
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "newest-first", NewestFirst.String())
	assert.Equal(t, "oldest-first", OldestFirst.String())
	assert.Equal(t, "policy(7)", Policy(7).String())
}
