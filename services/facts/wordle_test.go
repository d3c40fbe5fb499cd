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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func TestWordleClient_Answer(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "2026-08-25", r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"answer":"SHARD"}`)
	}))
	defer srv.Close()

	client := NewWordleClient(testLogger(), WithWordleURL(srv.URL))

	date := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	answer, err := client.Answer(context.Background(), date)
	require.NoError(t, err)
	// Lowercased on the way in.
	assert.Equal(t, "shard", answer)
	assert.Equal(t, int64(1), hits.Load())
}

func TestWordleClient_CacheSkipsRefetch(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"answer":"crane"}`)
	}))
	defer srv.Close()

	cache, err := OpenCache("")
	require.NoError(t, err)
	defer cache.Close()

	client := NewWordleClient(testLogger(),
		WithWordleURL(srv.URL),
		WithWordleCache(cache),
	)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		answer, err := client.Answer(context.Background(), date)
		require.NoError(t, err)
		assert.Equal(t, "crane", answer)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestWordleClient_ErrorMapping(t *testing.T) {
	t.Run("missing date is not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewWordleClient(testLogger(), WithWordleURL(srv.URL))
		_, err := client.Answer(context.Background(), time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewWordleClient(testLogger(), WithWordleURL(srv.URL))
		_, err := client.Answer(context.Background(), time.Now())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("garbage body is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<!doctype html>`)
		}))
		defer srv.Close()

		client := NewWordleClient(testLogger(), WithWordleURL(srv.URL))
		_, err := client.Answer(context.Background(), time.Now())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("empty answer is not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"answer":""}`)
		}))
		defer srv.Close()

		client := NewWordleClient(testLogger(), WithWordleURL(srv.URL))
		_, err := client.Answer(context.Background(), time.Now())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
