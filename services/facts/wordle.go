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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// DefaultWordleURL is the surface's own answer endpoint.
const DefaultWordleURL = "https://neal.fun/api/password-game/wordle"

// wordleCacheTTL keeps yesterday's answer around long enough for a session
// that straddles midnight.
const wordleCacheTTL = 48 * time.Hour

// WordleClient fetches the daily wordle answer over HTTP. Answers are
// cached by date, concurrent lookups of the same date collapse into one
// request, and outbound requests are rate limited because the endpoint
// belongs to the game host.
type WordleClient struct {
	baseURL string
	http    HTTPClient
	limiter *rate.Limiter
	cache   *Cache
	group   singleflight.Group
	logger  *logging.Logger
}

// WordleOption configures a WordleClient.
type WordleOption func(*WordleClient)

// WithWordleURL overrides the endpoint. Tests point it at httptest
// servers; the sim driver points it at the local game server.
func WithWordleURL(u string) WordleOption {
	return func(c *WordleClient) { c.baseURL = u }
}

// WithWordleHTTPClient injects the transport.
func WithWordleHTTPClient(h HTTPClient) WordleOption {
	return func(c *WordleClient) { c.http = h }
}

// WithWordleCache attaches a fact cache. Without one every call fetches.
func WithWordleCache(cache *Cache) WordleOption {
	return func(c *WordleClient) { c.cache = cache }
}

// NewWordleClient creates a client with a 10 second request timeout and a
// limit of one request per second burst two.
func NewWordleClient(logger *logging.Logger, opts ...WordleOption) *WordleClient {
	c := &WordleClient{
		baseURL: DefaultWordleURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wordleResponse is the endpoint's wire shape.
type wordleResponse struct {
	Answer string `json:"answer"`
}

// Answer returns the wordle answer for the given date, lowercased.
func (c *WordleClient) Answer(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("2006-01-02")
	key := "wordle/" + day

	if c.cache != nil {
		if answer, ok := c.cache.Get(ctx, key); ok {
			return answer, nil
		}
	}

	answer, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, day)
	})
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, answer.(string), wordleCacheTTL); err != nil {
			c.logger.Warn("wordle cache write failed", "error", err)
		}
	}
	return answer.(string), nil
}

func (c *WordleClient) fetch(ctx context.Context, day string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s?date=%s", c.baseURL, url.QueryEscape(day))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build wordle request: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch wordle answer: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: no wordle answer for %s", ErrNotFound, day)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: wordle endpoint returned %s", ErrUnavailable, resp.Status)
	}

	var parsed wordleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode wordle response: %v", ErrUnavailable, err)
	}
	if parsed.Answer == "" {
		return "", fmt.Errorf("%w: empty wordle answer for %s", ErrNotFound, day)
	}

	answer := strings.ToLower(parsed.Answer)
	c.logger.Debug("wordle answer fetched", "date", day, "length", len(answer))
	return answer, nil
}

var _ WordleSource = (*WordleClient)(nil)
