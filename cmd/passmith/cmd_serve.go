// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/passmith/cmd/passmith/config"
	"github.com/AleutianAI/passmith/services/game/server"
)

// runServe starts the game server and blocks until interrupted.
func runServe(cmd *cobra.Command, args []string) {
	logger := newLogger("game-server")
	defer logger.Close()

	cfg := config.Global.Server
	sc := server.Config{
		Port:         cfg.Port,
		TickInterval: config.Duration(cfg.TickInterval, server.DefaultConfig().TickInterval),
	}
	if servePort > 0 {
		sc.Port = servePort
	}
	if serveTick != "" {
		if d, err := time.ParseDuration(serveTick); err == nil {
			sc.TickInterval = d
		} else {
			logger.Warn("ignoring bad --tick", "value", serveTick, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if vt := loadVideoTable(logger); vt != nil {
		sc.Videos = vt
		// Rebuilt tables land without a restart.
		if err := vt.Watch(ctx); err != nil {
			logger.Warn("video table watch unavailable", "error", err)
		}
	}

	srv := server.New(logger, sc)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Game server failed: %v", err)
	}
	logger.Info("game server stopped")
}
