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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// feedBuffer bounds the per-stream event queue. A consumer that falls
// this far behind starts losing events rather than blocking the game.
const feedBuffer = 64

// handleEvents streams a game's events over a WebSocket: the buffered
// history first, then live events as they happen. An event landing
// while the stream attaches may be delivered twice; order within each
// source is preserved.
func handleEvents(reg *Registry, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer ws.Close()
		eventStreams.Inc()
		defer eventStreams.Dec()
		logger.Info("event stream opened", "game", g.ID())

		feed := make(chan game.Event, feedBuffer)
		sub := g.Subscribe(func(ev game.Event) {
			select {
			case feed <- ev:
			default:
			}
		})
		defer g.Unsubscribe(sub)

		for _, ev := range g.Events() {
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		}

		// The reader's only job is surfacing the close frame.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				logger.Info("event stream closed", "game", g.ID())
				return
			case <-c.Request.Context().Done():
				return
			case ev := <-feed:
				if err := ws.WriteJSON(ev); err != nil {
					logger.Debug("event write failed", "error", err)
					return
				}
			}
		}
	}
}
