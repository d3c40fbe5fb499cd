// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package game

import (
	"context"
	"errors"
	"sync"

	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/session"
)

// Adapter exposes a Game through the surface interfaces a session
// consumes. Poll doubles as the game's heartbeat, so hazard timers
// advance while a session is attached.
//
// A finished game ignores writes instead of failing them, the way a
// dead surface ignores keystrokes; the gravestone in the next read-back
// is how the engine learns the game ended.
type Adapter struct {
	mu    sync.Mutex
	game  *Game
	fresh func() *Game
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithRefresh supplies replacement games. When the current game is lost
// at poll time the adapter swaps in a fresh one, the way a browser
// driver reloads the page between attempts.
func WithRefresh(fresh func() *Game) AdapterOption {
	return func(a *Adapter) { a.fresh = fresh }
}

// NewAdapter wraps a game.
func NewAdapter(g *Game, opts ...AdapterOption) *Adapter {
	a := &Adapter{game: g}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Surface bundles the adapter for session.New.
func (a *Adapter) Surface() session.Surface {
	return session.Surface{Rules: a, Injector: a, Observer: a}
}

// Game returns the game currently behind the adapter.
func (a *Adapter) Game() *Game {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.game
}

// Poll ticks the hazard clocks and lists the displayed rules.
func (a *Adapter) Poll(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := a.currentOrFresh()
	g.Tick(g.Now())
	return g.DisplayedRules(), nil
}

// SetText types plain text into the game.
func (a *Adapter) SetText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Game().SetText(text); err != nil && !errors.Is(err, ErrGameOver) {
		return err
	}
	return nil
}

// SetDocument pushes a formatted document into the game.
func (a *Adapter) SetDocument(ctx context.Context, doc *password.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.Game().SetPassword(doc); err != nil && !errors.Is(err, ErrGameOver) {
		return err
	}
	return nil
}

// ReadText reads the password as the game currently holds it.
func (a *Adapter) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.Game().Text(), nil
}

// Sacrifice submits the chosen letters.
func (a *Adapter) Sacrifice(ctx context.Context, letters []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.Game().Sacrifice(letters)
}

// currentOrFresh returns the active game, replacing a lost one when a
// refresh source is configured.
func (a *Adapter) currentOrFresh() *Game {
	a.mu.Lock()
	g := a.game
	a.mu.Unlock()

	if a.fresh == nil {
		return g
	}
	if over, _ := g.Over(); !over || g.Won() {
		return g
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.game == g {
		a.game = a.fresh()
	}
	return a.game
}

var (
	_ session.RuleSource       = (*Adapter)(nil)
	_ session.TextInjector     = (*Adapter)(nil)
	_ session.DocumentInjector = (*Adapter)(nil)
	_ session.TextObserver     = (*Adapter)(nil)
	_ session.SacrificeTaker   = (*Adapter)(nil)
)
