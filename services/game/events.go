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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// EventType classifies what a running game announces.
type EventType string

const (
	// EventReveal fires when a rule comes on screen.
	EventReveal EventType = "reveal"

	// EventFire fires when the password ignites or the fire spreads.
	EventFire EventType = "fire"

	// EventHatched fires when the egg becomes Paul.
	EventHatched EventType = "hatched"

	// EventMeal fires when Paul eats a bug.
	EventMeal EventType = "meal"

	// EventSacrifice fires when the two letters are given up.
	EventSacrifice EventType = "sacrifice"

	// EventGameOver fires when the game is lost.
	EventGameOver EventType = "game_over"

	// EventWon fires the first time every rule holds at once.
	EventWon EventType = "won"
)

// Event is one announcement from a running game. Rule is the one-based
// rule number when the event concerns a specific rule, zero otherwise.
type Event struct {
	Type   EventType `json:"type"`
	At     time.Time `json:"at"`
	Rule   int       `json:"rule,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Handler consumes one event. Handlers run on the goroutine whose call
// caused the event, after the game's lock is released, so they may call
// back into the game.
type Handler func(Event)

// eventBufferSize bounds the replay buffer; older events fall off.
const eventBufferSize = 256

// emitter fans events out to subscribers and keeps a short replay
// buffer so a late listener can catch up.
type emitter struct {
	logger *logging.Logger

	mu     sync.Mutex
	subs   map[string]Handler
	buffer []Event
}

func newEmitter(logger *logging.Logger) *emitter {
	return &emitter{
		logger: logger,
		subs:   make(map[string]Handler),
	}
}

func (e *emitter) subscribe(h Handler) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.NewString()
	e.subs[id] = h
	return id
}

func (e *emitter) unsubscribe(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
}

// emit buffers the events and delivers them to every subscriber.
// Delivery happens outside the emitter's lock.
func (e *emitter) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	e.mu.Lock()
	for _, ev := range events {
		if len(e.buffer) >= eventBufferSize {
			e.buffer = e.buffer[1:]
		}
		e.buffer = append(e.buffer, ev)
	}
	subs := make([]Handler, 0, len(e.subs))
	for _, h := range e.subs {
		subs = append(subs, h)
	}
	e.mu.Unlock()

	for _, h := range subs {
		for _, ev := range events {
			e.deliver(h, ev)
		}
	}
}

// deliver invokes one handler with panic recovery so a broken
// subscriber cannot take the game down.
func (e *emitter) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked",
				"type", string(ev.Type), "panic", r)
		}
	}()
	h(ev)
}

// replay returns a copy of the buffered events, oldest first.
func (e *emitter) replay() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.buffer))
	copy(out, e.buffer)
	return out
}
