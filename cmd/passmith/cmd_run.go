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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/passmith/cmd/passmith/config"
	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/repair"
	"github.com/AleutianAI/passmith/services/engine/session"
	"github.com/AleutianAI/passmith/services/engine/state"
	"github.com/AleutianAI/passmith/services/facts"
	"github.com/AleutianAI/passmith/services/game"
	"github.com/AleutianAI/passmith/services/game/client"
)

// runSession plays one full session against the chosen driver and
// prints the sealed winner.
func runSession(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	logger := newLogger("passmith")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := playSession(ctx, logger)
	if err != nil {
		if errors.Is(err, session.ErrAttemptsExhausted) {
			result.Error = err.Error()
			if !out.JSON && !out.Quiet {
				fmt.Printf("No winner: %v\n", err)
			}
			os.Exit(OutputResult(out, "run", start, result, true, nil))
		}
		os.Exit(OutputResult(out, "run", start, result, false, err))
	}

	if !out.JSON && !out.Quiet {
		fmt.Printf("Password sealed after %s:\n\n  %s\n\n(%d clusters)\n",
			time.Since(start).Round(time.Millisecond), result.Password, result.Length)
	}
	os.Exit(OutputResult(out, "run", start, result, false, nil))
}

// playSession wires the surface for the chosen driver and runs the
// session to a sealed winner or an exhausted budget.
func playSession(ctx context.Context, logger *logging.Logger) (SessionResult, error) {
	result := SessionResult{Driver: driverType}

	var (
		surface   session.Surface
		providers facts.Providers
		cleanup   func()
	)
	switch driverType {
	case "sim":
		s, p := simSurface(logger)
		surface, providers = s, p
	case "http":
		s, p, done, err := httpSurface(ctx, logger, &result)
		if err != nil {
			return result, err
		}
		surface, providers, cleanup = s, p, done
	default:
		return result, fmt.Errorf("unknown driver %q, want 'sim' or 'http'", driverType)
	}
	if cleanup != nil {
		defer cleanup()
	}

	sess := session.New(logger, surface, providers, sessionOptions(logger)...)
	defer sess.Close()

	if err := sess.Run(ctx); err != nil {
		return result, err
	}
	winner, err := sess.Winner()
	if err != nil {
		return result, fmt.Errorf("reading the sealed winner: %w", err)
	}
	result.Won = true
	result.Password = winner
	result.Length = len(password.Split(winner))
	return result, nil
}

// sessionOptions folds the config file and the run flags into session
// options. Flags win where both are set.
func sessionOptions(logger *logging.Logger) []session.Option {
	cfg := config.Global.Engine

	sc := session.Config{
		MaxAttempts:    cfg.MaxAttempts,
		PollInterval:   config.Duration(cfg.PollInterval, session.DefaultConfig().PollInterval),
		AttemptTimeout: config.Duration(cfg.AttemptTimeout, session.DefaultConfig().AttemptTimeout),
	}
	if maxAttempts > 0 {
		sc.MaxAttempts = maxAttempts
	}
	if attemptTimeout != "" {
		if d, err := time.ParseDuration(attemptTimeout); err == nil {
			sc.AttemptTimeout = d
		} else {
			logger.Warn("ignoring bad --timeout", "value", attemptTimeout, "error", err)
		}
	}
	if cfg.JournalDir != "" {
		sc.Journal = &state.JournalConfig{
			Path:   config.ExpandPath(cfg.JournalDir),
			Logger: logger,
		}
	}

	opts := []session.Option{session.WithConfig(sc)}

	name := policyName
	if name == "" {
		name = cfg.Policy
	}
	if pol, err := repair.ParsePolicy(canonicalPolicy(name)); err != nil {
		logger.Warn("ignoring unknown policy", "value", name, "error", err)
	} else {
		opts = append(opts, session.WithRepairOptions(repair.WithPolicy(pol)))
	}
	return opts
}

// canonicalPolicy accepts the short flag forms alongside the config
// file spellings.
func canonicalPolicy(name string) string {
	switch name {
	case "newest":
		return "newest-first"
	case "oldest":
		return "oldest-first"
	}
	return name
}

// simSurface deals an in-process game and adapts it. Lost games are
// replaced with fresh ones carrying the same deal, so the session's
// fact providers stay true across attempts.
func simSurface(logger *logging.Logger) (session.Surface, facts.Providers) {
	seed := runSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gameLogger := logger.With("component", "game")
	opts := []game.Option{game.WithSeed(seed)}
	if vt := loadVideoTable(logger); vt != nil {
		opts = append(opts, game.WithVideoTable(vt))
	}

	first := game.New(gameLogger, opts...)
	deal := first.Deal()
	fresh := func() *game.Game {
		return game.New(gameLogger, append(opts, game.WithDeal(deal))...)
	}
	adapter := game.NewAdapter(first, game.WithRefresh(fresh))

	logger.Info("simulated game dealt", "game_id", first.ID(), "seed", seed)
	return adapter.Surface(), first.Providers()
}

// httpSurface creates or attaches to a remote game and returns its
// surface. The cleanup deletes games this run created.
func httpSurface(ctx context.Context, logger *logging.Logger, result *SessionResult) (session.Surface, facts.Providers, func(), error) {
	base := serverURL
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", config.Global.Server.Port)
	}

	var (
		cl      *client.Client
		cleanup func()
		err     error
	)
	if gameID != "" {
		cl = client.New(logger, base, gameID)
	} else {
		req := client.CreateRequest{}
		if runSeed != 0 {
			seed := runSeed
			req.Seed = &seed
		}
		cl, err = client.Create(ctx, logger, base, req)
		if err != nil {
			return session.Surface{}, facts.Providers{}, nil, fmt.Errorf("creating a remote game: %w", err)
		}
		created := cl
		cleanup = func() {
			if err := created.Delete(context.Background()); err != nil {
				logger.Debug("leaving the remote game behind", "error", err)
			}
		}
	}
	result.GameID = cl.GameID()

	providers, err := cl.Providers(ctx)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return session.Surface{}, facts.Providers{}, nil, fmt.Errorf("resolving remote fact providers: %w", err)
	}
	return session.Surface{Rules: cl, Injector: cl, Observer: cl}, providers, cleanup, nil
}

// loadVideoTable opens the configured table file. A missing file is
// normal (the embedded table serves), anything else is worth a warning.
func loadVideoTable(logger *logging.Logger) *facts.VideoTable {
	path := config.ExpandPath(config.Global.Videos.TablePath)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	vt, err := facts.LoadVideoTable(logger, path)
	if err != nil {
		logger.Warn("video table unreadable, using the embedded one",
			"path", path, "error", err)
		return nil
	}
	logger.Info("video table loaded", "path", path)
	return vt
}
