// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/pkg/logging"
)

func TestRecorderWritesLineProtocol(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/write") {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(body))
			mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	rec, err := NewRecorder(Config{URL: ts.URL, Token: "t", Org: "o", Bucket: "b"})
	require.NoError(t, err)
	defer rec.Close()

	entry := logging.Entry{
		Timestamp: time.Now(),
		Level:     logging.LevelInfo,
		Message:   "password sealed",
		Service:   "engine",
		Attrs:     map[string]any{"attempt": 2, "took": 1500 * time.Millisecond},
	}
	require.NoError(t, rec.Export(context.Background(), entry))
	require.NoError(t, rec.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	line := bodies[0]
	assert.Contains(t, line, "engine_log")
	assert.Contains(t, line, "level=info")
	assert.Contains(t, line, "service=engine")
	assert.Contains(t, line, `message="password sealed"`)
	assert.Contains(t, line, "attempt=2i")
	assert.Contains(t, line, `took="1.5s"`)
}

func TestRecorderRequiresURL(t *testing.T) {
	_, err := NewRecorder(Config{})
	require.Error(t, err)
}
