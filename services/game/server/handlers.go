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
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/facts"
	"github.com/AleutianAI/passmith/services/game"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// createGameRequest optionally pins the deal and the randomness of the
// new game. An empty body deals a fresh random game.
type createGameRequest struct {
	Seed *int64     `json:"seed,omitempty"`
	Deal *game.Deal `json:"deal,omitempty"`
}

// passwordRequest carries a password write. Clusters win when both are
// set; Text alone types plain text and resets formatting.
type passwordRequest struct {
	Text     *string            `json:"text,omitempty"`
	Clusters []game.ClusterWire `json:"clusters,omitempty"`
}

type passwordResponse struct {
	Text     string             `json:"text"`
	Clusters []game.ClusterWire `json:"clusters,omitempty"`
}

type sacrificeRequest struct {
	Letters []string `json:"letters" binding:"required"`
}

type rulesResponse struct {
	Rules []string `json:"rules"`
}

// =============================================================================
// Helpers
// =============================================================================

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// lookup resolves the :id game or writes a 404.
func lookup(reg *Registry, c *gin.Context) (*game.Game, bool) {
	g, ok := reg.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such game"})
	}
	return g, ok
}

// writeGameError maps game errors to HTTP statuses: bad input is 400,
// state conflicts are 409.
func writeGameError(c *gin.Context, logger *logging.Logger, g *game.Game, err error) {
	switch {
	case errors.Is(err, game.ErrGameOver):
		_, outcome := g.Over()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "outcome": outcome})
	case errors.Is(err, game.ErrSacrificeTaken), errors.Is(err, game.ErrUnfinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrBadSacrifice), errors.Is(err, game.ErrBadDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("game request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// =============================================================================
// Handlers
// =============================================================================

func handleCreate(reg *Registry, videos *facts.VideoTable, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGameRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		var opts []game.Option
		if videos != nil {
			opts = append(opts, game.WithVideoTable(videos))
		}
		if req.Seed != nil {
			opts = append(opts, game.WithSeed(*req.Seed))
		}
		if req.Deal != nil {
			opts = append(opts, game.WithDeal(*req.Deal))
		}

		g := reg.Create(opts...)
		logger.Info("game created", "id", g.ID())
		c.JSON(http.StatusCreated, g.View())
	}
}

func handleList(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := reg.IDs()
		sort.Strings(ids)
		views := make([]game.View, 0, len(ids))
		for _, id := range ids {
			if g, ok := reg.Get(id); ok {
				views = append(views, g.View())
			}
		}
		c.JSON(http.StatusOK, gin.H{"games": views})
	}
}

func handleView(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, g.View())
	}
}

func handleDelete(reg *Registry, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !reg.Remove(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such game"})
			return
		}
		logger.Info("game deleted", "id", id)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

func handleDeal(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, g.Deal())
	}
}

func handleRules(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, rulesResponse{Rules: g.DisplayedRules()})
	}
}

func handleGetPassword(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		doc := g.Password()
		c.JSON(http.StatusOK, passwordResponse{
			Text:     doc.String(),
			Clusters: game.EncodeDocument(doc),
		})
	}
}

func handleSetPassword(reg *Registry, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		var req passwordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		switch {
		case len(req.Clusters) > 0:
			doc, err := game.DecodeDocument(req.Clusters)
			if err != nil {
				writeGameError(c, logger, g, err)
				return
			}
			if err := g.SetPassword(doc); err != nil {
				writeGameError(c, logger, g, err)
				return
			}
		case req.Text != nil:
			if err := g.SetText(*req.Text); err != nil {
				writeGameError(c, logger, g, err)
				return
			}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "text or clusters required"})
			return
		}
		c.JSON(http.StatusOK, g.View())
	}
}

func handleSacrifice(reg *Registry, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		var req sacrificeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := g.Sacrifice(req.Letters); err != nil {
			writeGameError(c, logger, g, err)
			return
		}
		c.JSON(http.StatusOK, g.View())
	}
}

func handleConfirmFinal(reg *Registry, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := lookup(reg, c)
		if !ok {
			return
		}
		if err := g.ConfirmFinal(); err != nil {
			writeGameError(c, logger, g, err)
			return
		}
		logger.Info("final password confirmed", "id", g.ID())
		c.JSON(http.StatusOK, g.View())
	}
}
