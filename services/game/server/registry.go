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
	"sync"
	"time"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/game"
)

// Registry holds the live games, keyed by game id. Games stay until
// deleted; a finished game still answers reads so a driver can see how
// it ended.
type Registry struct {
	logger *logging.Logger

	mu    sync.RWMutex
	games map[string]*game.Game
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		logger: logger,
		games:  make(map[string]*game.Game),
	}
}

// Create deals a new game and registers it.
func (r *Registry) Create(opts ...game.Option) *game.Game {
	g := game.New(r.logger, opts...)
	r.mu.Lock()
	r.games[g.ID()] = g
	n := len(r.games)
	r.mu.Unlock()

	activeGames.Set(float64(n))
	r.logger.Info("game registered", "id", g.ID(), "active", n)
	return g
}

// Get returns the game with the given id.
func (r *Registry) Get(id string) (*game.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// Remove drops a game from the registry.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.games[id]
	delete(r.games, id)
	n := len(r.games)
	r.mu.Unlock()

	if ok {
		activeGames.Set(float64(n))
		r.logger.Info("game removed", "id", id, "active", n)
	}
	return ok
}

// IDs lists the registered game ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered games.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Tick advances every game's hazard clocks to now. Games are ticked
// outside the registry lock so a slow game cannot block Get.
func (r *Registry) Tick(now time.Time) {
	r.mu.RLock()
	games := make([]*game.Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	r.mu.RUnlock()

	for _, g := range games {
		g.Tick(now)
	}
}
