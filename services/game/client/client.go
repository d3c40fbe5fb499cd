// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package client drives a remote password game over the game server's
// REST surface. A Client is bound to one game and implements the engine
// session's surface interfaces, so a session can play a game hosted in
// another process exactly as it plays an in-process one.
//
// Writes follow the in-process adapter's contract: a push against a lost
// game is swallowed, and the engine discovers the loss from the read-back
// (the gravestone). Every other error surfaces, with the server's
// sentinel identity restored where the body names one.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/session"
	"github.com/AleutianAI/passmith/services/game"
)

// DefaultTimeout bounds each request to the game server.
const DefaultTimeout = 15 * time.Second

// Client speaks to one game on a remote game server.
//
// # Thread Safety
//
// Client is safe for concurrent use; it holds no mutable state beyond
// the underlying http.Client.
type Client struct {
	logger *logging.Logger
	base   string
	id     string
	http   *http.Client
}

// New binds a client to an existing game. baseURL names the server root,
// e.g. "http://localhost:12260".
func New(logger *logging.Logger, baseURL, gameID string) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "game_client")
	if gameID != "" {
		logger = logger.With("game_id", gameID)
	}
	return &Client{
		logger: logger,
		base:   strings.TrimRight(baseURL, "/"),
		id:     gameID,
		http:   &http.Client{Timeout: DefaultTimeout},
	}
}

// WithTimeout sets a custom timeout for requests to the server.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.http.Timeout = timeout
	return c
}

// GameID returns the bound game's id.
func (c *Client) GameID() string {
	return c.id
}

// CreateRequest seeds a new game. Both fields are optional; a zero
// request asks the server for a fresh random deal.
type CreateRequest struct {
	Seed *int64     `json:"seed,omitempty"`
	Deal *game.Deal `json:"deal,omitempty"`
}

// Create starts a game on the server and returns a client bound to it.
func Create(ctx context.Context, logger *logging.Logger, baseURL string, req CreateRequest) (*Client, error) {
	boot := New(logger, baseURL, "")
	var v game.View
	if err := boot.do(ctx, http.MethodPost, "/v1/games", req, &v); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	boot.logger.Info("game created", "game_id", v.ID)
	return New(logger, baseURL, v.ID), nil
}

// =============================================================================
// Session surface
// =============================================================================

// Poll lists the rules the game currently shows, in surface order.
func (c *Client) Poll(ctx context.Context) ([]string, error) {
	var resp struct {
		Rules []string `json:"rules"`
	}
	if err := c.do(ctx, http.MethodGet, c.gamePath("/rules"), nil, &resp); err != nil {
		return nil, fmt.Errorf("poll rules: %w", err)
	}
	return resp.Rules, nil
}

// SetText replaces the remote password with plain text. A push against a
// lost game reports success; the read-back carries the gravestone.
func (c *Client) SetText(ctx context.Context, text string) error {
	err := c.do(ctx, http.MethodPut, c.gamePath("/password"), passwordBody{Text: &text}, nil)
	if errors.Is(err, game.ErrGameOver) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set text: %w", err)
	}
	return nil
}

// SetDocument replaces the remote password with a formatted document.
func (c *Client) SetDocument(ctx context.Context, doc *password.Document) error {
	clusters := game.EncodeDocument(doc)
	if len(clusters) == 0 {
		return c.SetText(ctx, "")
	}
	err := c.do(ctx, http.MethodPut, c.gamePath("/password"), passwordBody{Clusters: clusters}, nil)
	if errors.Is(err, game.ErrGameOver) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

// ReadText reads back what the game currently shows.
func (c *Client) ReadText(ctx context.Context) (string, error) {
	pw, err := c.readPassword(ctx)
	if err != nil {
		return "", err
	}
	if pw.Text == nil {
		return "", nil
	}
	return *pw.Text, nil
}

// ReadDocument reads back the remote password with its formatting.
func (c *Client) ReadDocument(ctx context.Context) (*password.Document, error) {
	pw, err := c.readPassword(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := game.DecodeDocument(pw.Clusters)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return doc, nil
}

// Sacrifice gives up two letters for the rest of the game.
func (c *Client) Sacrifice(ctx context.Context, letters []string) error {
	body := struct {
		Letters []string `json:"letters"`
	}{Letters: letters}
	if err := c.do(ctx, http.MethodPost, c.gamePath("/sacrifice"), body, nil); err != nil {
		return fmt.Errorf("sacrifice: %w", err)
	}
	return nil
}

// =============================================================================
// Game management
// =============================================================================

// View snapshots the remote game.
func (c *Client) View(ctx context.Context) (game.View, error) {
	var v game.View
	if err := c.do(ctx, http.MethodGet, c.gamePath(""), nil, &v); err != nil {
		return game.View{}, fmt.Errorf("view game: %w", err)
	}
	return v, nil
}

// Deal fetches the game's dealt rule instances.
func (c *Client) Deal(ctx context.Context) (game.Deal, error) {
	var d game.Deal
	if err := c.do(ctx, http.MethodGet, c.gamePath("/deal"), nil, &d); err != nil {
		return game.Deal{}, fmt.Errorf("fetch deal: %w", err)
	}
	return d, nil
}

// ConfirmFinal asks the game to accept the current password as final.
func (c *Client) ConfirmFinal(ctx context.Context) (game.View, error) {
	var v game.View
	if err := c.do(ctx, http.MethodPost, c.gamePath("/final"), nil, &v); err != nil {
		return game.View{}, fmt.Errorf("confirm final: %w", err)
	}
	return v, nil
}

// Delete removes the game from the server.
func (c *Client) Delete(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, c.gamePath(""), nil, nil); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// =============================================================================
// Transport
// =============================================================================

// passwordBody mirrors the server's password request and response.
type passwordBody struct {
	Text     *string            `json:"text,omitempty"`
	Clusters []game.ClusterWire `json:"clusters,omitempty"`
}

func (c *Client) readPassword(ctx context.Context) (passwordBody, error) {
	var pw passwordBody
	if err := c.do(ctx, http.MethodGet, c.gamePath("/password"), nil, &pw); err != nil {
		return passwordBody{}, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

func (c *Client) gamePath(suffix string) string {
	return "/v1/games/" + c.id + suffix
}

// do runs one JSON request. A non-2xx response becomes an error carrying
// the server's message, with sentinel identity restored when the message
// names one.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return translateError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var (
	_ session.RuleSource       = (*Client)(nil)
	_ session.TextInjector     = (*Client)(nil)
	_ session.DocumentInjector = (*Client)(nil)
	_ session.TextObserver     = (*Client)(nil)
	_ session.SacrificeTaker   = (*Client)(nil)
)
