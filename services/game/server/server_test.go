// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/game"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Quiet: true})
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testLogger(), Config{GinMode: gin.TestMode})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

// dealFixture pins every rule instance so the reveal cascade is
// deterministic across test runs.
func dealFixture() game.Deal {
	return game.Deal{
		Captcha: "bgcxz",
		Coords:  rules.Coords{Lat: -25.344428, Long: 131.036882},
		FEN:     "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 1",
		Seconds: 234,
		Color:   &rules.Color{},
		Wordle:  "crane",
	}
}

func do(t *testing.T, ts *httptest.Server, method, path string, payload any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func createGame(t *testing.T, ts *httptest.Server) game.View {
	t.Helper()
	status, body := do(t, ts, http.MethodPost, "/v1/games",
		map[string]any{"seed": int64(1), "deal": dealFixture()})
	require.Equal(t, http.StatusCreated, status, string(body))
	var v game.View
	require.NoError(t, json.Unmarshal(body, &v))
	require.NotEmpty(t, v.ID)
	return v
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestCreateFetchDelete(t *testing.T) {
	s, ts := newTestServer(t)

	v := createGame(t, ts)
	assert.Equal(t, 1, v.Revealed)
	assert.Equal(t, 1, s.Registry().Len())

	status, body := do(t, ts, http.MethodGet, "/v1/games/"+v.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var got game.View
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, v.ID, got.ID)

	status, body = do(t, ts, http.MethodGet, "/v1/games", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Games []game.View `json:"games"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Games, 1)
	assert.Equal(t, v.ID, list.Games[0].ID)

	status, _ = do(t, ts, http.MethodDelete, "/v1/games/"+v.ID, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, ts, http.MethodGet, "/v1/games/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 0, s.Registry().Len())
}

func TestUnknownGameIs404(t *testing.T) {
	_, ts := newTestServer(t)

	for _, probe := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/games/nope"},
		{http.MethodGet, "/v1/games/nope/rules"},
		{http.MethodGet, "/v1/games/nope/deal"},
		{http.MethodGet, "/v1/games/nope/password"},
		{http.MethodDelete, "/v1/games/nope"},
		{http.MethodPost, "/v1/games/nope/final"},
	} {
		status, _ := do(t, ts, probe.method, probe.path, nil)
		assert.Equal(t, http.StatusNotFound, status, "%s %s", probe.method, probe.path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	status, _ := do(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := do(t, ts, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "passmith_game_server_active_games"))
}

// =============================================================================
// Rules and Password
// =============================================================================

func TestRulesAndDeal(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)

	status, body := do(t, ts, http.MethodGet, "/v1/games/"+v.ID+"/rules", nil)
	require.Equal(t, http.StatusOK, status)
	var rr rulesResponse
	require.NoError(t, json.Unmarshal(body, &rr))
	require.Len(t, rr.Rules, 1)
	assert.Equal(t, "Your password must be at least 5 characters.", rr.Rules[0])

	status, body = do(t, ts, http.MethodGet, "/v1/games/"+v.ID+"/deal", nil)
	require.Equal(t, http.StatusOK, status)
	var d game.Deal
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, "bgcxz", d.Captcha)
	assert.Equal(t, "crane", d.Wordle)
	assert.Equal(t, 234, d.Seconds)
}

func TestPasswordTextWriteCascades(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)

	status, body := do(t, ts, http.MethodPut, "/v1/games/"+v.ID+"/password",
		map[string]any{"text": "🥚0mayXXXVshellHe997"})
	require.Equal(t, http.StatusOK, status, string(body))
	var after game.View
	require.NoError(t, json.Unmarshal(body, &after))
	assert.Equal(t, 10, after.Revealed)
	assert.Equal(t, "🥚0mayXXXVshellHe997", after.Text)

	status, body = do(t, ts, http.MethodGet, "/v1/games/"+v.ID+"/password", nil)
	require.Equal(t, http.StatusOK, status)
	var pw passwordResponse
	require.NoError(t, json.Unmarshal(body, &pw))
	assert.Equal(t, "🥚0mayXXXVshellHe997", pw.Text)
	assert.Len(t, pw.Clusters, 19)
}

func TestPasswordClusterWriteKeepsFormats(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)

	clusters := []game.ClusterWire{
		{Text: "a", Bold: true, Size: 28},
		{Text: "b", Italic: true, Size: 36},
		{Text: "c", Size: 42, Family: 2},
	}
	status, body := do(t, ts, http.MethodPut, "/v1/games/"+v.ID+"/password",
		map[string]any{"clusters": clusters})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, ts, http.MethodGet, "/v1/games/"+v.ID+"/password", nil)
	require.Equal(t, http.StatusOK, status)
	var pw passwordResponse
	require.NoError(t, json.Unmarshal(body, &pw))
	assert.Equal(t, "abc", pw.Text)
	require.Len(t, pw.Clusters, 3)
	assert.True(t, pw.Clusters[0].Bold)
	assert.True(t, pw.Clusters[1].Italic)
	assert.Equal(t, 42, pw.Clusters[2].Size)
	assert.Equal(t, 2, pw.Clusters[2].Family)
}

func TestPasswordRejectsBadPayloads(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)
	path := "/v1/games/" + v.ID + "/password"

	status, _ := do(t, ts, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status, "neither text nor clusters")

	status, _ = do(t, ts, http.MethodPut, path,
		map[string]any{"clusters": []game.ClusterWire{{Text: "ab", Size: 28}}})
	assert.Equal(t, http.StatusBadRequest, status, "two graphemes in one entry")

	status, _ = do(t, ts, http.MethodPut, path,
		map[string]any{"clusters": []game.ClusterWire{{Text: "a", Size: 17}}})
	assert.Equal(t, http.StatusBadRequest, status, "size off the menu")
}

// =============================================================================
// Sacrifice and Final
// =============================================================================

func TestSacrificeEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)
	path := "/v1/games/" + v.ID + "/sacrifice"

	status, _ := do(t, ts, http.MethodPost, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status, "letters are required")

	status, _ = do(t, ts, http.MethodPost, path, map[string]any{"letters": []string{"t", "z"}})
	assert.Equal(t, http.StatusBadRequest, status, "the rule is not on screen yet")
}

func TestFinalBeforeWinning(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)

	status, body := do(t, ts, http.MethodPost, "/v1/games/"+v.ID+"/final", nil)
	assert.Equal(t, http.StatusConflict, status, string(body))
}

// =============================================================================
// Events
// =============================================================================

func TestEventStream(t *testing.T) {
	_, ts := newTestServer(t)
	v := createGame(t, ts)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/v1/games/" + v.ID + "/events"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	// The replay arrives first: the opening reveal.
	var first game.Event
	require.NoError(t, ws.ReadJSON(&first))
	assert.Equal(t, game.EventReveal, first.Type)
	assert.Equal(t, 1, first.Rule)

	// A write triggers the cascade; the stream carries each reveal.
	status, _ := do(t, ts, http.MethodPut, "/v1/games/"+v.ID+"/password",
		map[string]any{"text": "🥚0mayXXXVshellHe997"})
	require.Equal(t, http.StatusOK, status)

	for want := 2; want <= 10; want++ {
		var ev game.Event
		require.NoError(t, ws.ReadJSON(&ev))
		assert.Equal(t, game.EventReveal, ev.Type)
		assert.Equal(t, want, ev.Rule)
	}
}
