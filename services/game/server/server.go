// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes simulated games over HTTP.
//
// Each game lives in a registry keyed by its id. REST endpoints cover
// the whole surface contract: create a game, list the revealed rules,
// read and write the password (plain text or formatted clusters), make
// the sacrifice, confirm the final password. A WebSocket endpoint
// streams game events. Hazard clocks advance on a background ticker, so
// a game burns and Paul gets hungry whether or not anyone is polling.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/facts"
)

// Config holds the server's settings.
type Config struct {
	// Port is the HTTP listen port. Default: 12260.
	Port int

	// GinMode sets the Gin framework mode: "debug", "release", "test".
	// Empty leaves the GIN_MODE environment variable in charge.
	GinMode string

	// TickInterval is how often the hazard clocks of every registered
	// game advance. Default: 250ms.
	TickInterval time.Duration

	// Videos, when set, seeds every created game's video table. Nil
	// games fall back to the embedded table.
	Videos *facts.VideoTable
}

// DefaultConfig returns the stock server settings.
func DefaultConfig() Config {
	return Config{
		Port:         12260,
		TickInterval: 250 * time.Millisecond,
	}
}

// Server hosts the game registry behind a Gin router.
type Server struct {
	logger   *logging.Logger
	cfg      Config
	registry *Registry
	router   *gin.Engine
}

// New builds a Server with its routes registered. Run starts it.
func New(logger *logging.Logger, cfg Config) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig().Port
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		logger:   logger,
		cfg:      cfg,
		registry: NewRegistry(logger),
	}
	s.initRouter()
	return s
}

// Router returns the configured Gin engine for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Registry returns the game registry behind the routes.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Run starts the hazard ticker and the HTTP server, and blocks until
// the context ends or the listener fails. Shutdown is graceful.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case now := <-ticker.C:
				s.registry.Tick(now)
			}
		}
	})

	g.Go(func() error {
		s.logger.Info("game server listening", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// initRouter wires middleware and routes.
func (s *Server) initRouter() {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("game-server"))
	router.Use(s.requestLog())

	router.GET("/health", handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		games := v1.Group("/games")
		{
			games.POST("", handleCreate(s.registry, s.cfg.Videos, s.logger))
			games.GET("", handleList(s.registry))
			games.GET("/:id", handleView(s.registry))
			games.DELETE("/:id", handleDelete(s.registry, s.logger))
			games.GET("/:id/deal", handleDeal(s.registry))
			games.GET("/:id/rules", handleRules(s.registry))
			games.GET("/:id/password", handleGetPassword(s.registry))
			games.PUT("/:id/password", handleSetPassword(s.registry, s.logger))
			games.POST("/:id/sacrifice", handleSacrifice(s.registry, s.logger))
			games.POST("/:id/final", handleConfirmFinal(s.registry, s.logger))
			games.GET("/:id/events", handleEvents(s.registry, s.logger))
		}
	}
	s.router = router
}

// requestLog logs one line per request through the server's logger.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).String())
	}
}
