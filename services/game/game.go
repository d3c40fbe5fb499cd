// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package game simulates the surface end to end: the thirty-six rule
// gauntlet, the reveal cascade, the hazards, and the win and loss
// bookkeeping.
//
// The engine normally plays a remote surface it cannot see into. This
// one is local and inspectable, which makes it the integration bed for
// the whole solve loop: an Adapter exposes a Game through the same
// interfaces a remote driver would, and Providers hands the session fact
// sources that answer exactly what the game dealt. Rules reveal one at a
// time, each new rule only once everything above it holds, and the three
// hazard rules fire their side effects at the moment they come on
// screen. A lost game buries Paul; the gravestone in the password is how
// the other side finds out.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/facts"
)

// Config holds the hazard timings.
type Config struct {
	// SpreadInterval is the wait between fire growth steps.
	SpreadInterval time.Duration

	// MealInterval is the wait between Paul's meals once hatched. At a
	// mealtime with no 🐛 in the password, Paul starves.
	MealInterval time.Duration

	// MaxBugs overfeeds Paul when the password holds that many 🐛.
	MaxBugs int
}

// DefaultConfig returns the surface's timings.
func DefaultConfig() Config {
	return Config{
		SpreadInterval: 1100 * time.Millisecond,
		MealInterval:   20 * time.Second,
		MaxBugs:        9,
	}
}

// Game is one simulated run of the gauntlet. All methods are safe for
// concurrent use.
type Game struct {
	logger *logging.Logger
	cfg    Config
	id     uuid.UUID
	clock  facts.Clock
	geo    *facts.GeoTable
	videos *facts.VideoTable
	moon   facts.MoonCalendar
	oracle facts.ChessOracle
	seed   int64
	rng    *rand.Rand
	deal   Deal
	rules  []rules.Rule
	events *emitter

	// country and bestMove are the answers to the dealt geo and chess
	// rules, resolved once at start.
	country  string
	bestMove string

	mu          sync.Mutex
	doc         *password.Document
	revealed    int
	sacrificed  []string
	eggPlaced   bool
	paulHatched bool
	fireStarted bool
	lastSpread  time.Time
	lastMeal    time.Time
	over        bool
	won         bool
	outcome     string
	pending     []Event
}

// Option configures a Game.
type Option func(*Game)

// WithConfig overrides the hazard timings.
func WithConfig(cfg Config) Option {
	return func(g *Game) { g.cfg = cfg }
}

// WithClock fixes the game's notion of now. The time rule, the moon
// rule, and the hazard timers all read it.
func WithClock(clock facts.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// WithSeed fixes the randomness behind the deal and the fire's aim.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.seed = seed }
}

// WithDeal pins rule instances instead of drawing them. Zero fields are
// still drawn from the pools.
func WithDeal(deal Deal) Option {
	return func(g *Game) { g.deal = deal }
}

// WithVideoTable overrides the video lookup table.
func WithVideoTable(videos *facts.VideoTable) Option {
	return func(g *Game) { g.videos = videos }
}

// New deals a game and reveals the first rule. A custom chess position
// outside the puzzle pool is answered by search, which can hold New up
// for the oracle's budget.
func New(logger *logging.Logger, opts ...Option) *Game {
	if logger == nil {
		logger = logging.Default()
	}
	g := &Game{
		logger: logger,
		cfg:    DefaultConfig(),
		id:     uuid.New(),
		clock:  facts.SystemClock{},
		seed:   time.Now().UnixNano(),
		doc:    password.New(""),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.videos == nil {
		g.videos = facts.DefaultVideoTable(logger)
	}
	g.geo = facts.NewGeoTable()
	g.oracle = facts.NewOracle(logger)
	if moon, err := facts.NewMoonCalc(); err != nil {
		logger.Warn("moon calendar unavailable", "error", err)
	} else {
		g.moon = moon
	}
	g.rng = rand.New(rand.NewSource(g.seed))
	g.deal = g.deal.complete(g.rng, g.geo, g.videos)
	g.rules = dealtRules(g.deal)
	g.events = newEmitter(logger)

	if country, err := g.geo.Country(g.deal.Coords); err != nil {
		logger.Warn("geo rule has no answer",
			"coords", g.deal.Coords.String(), "error", err)
	} else {
		g.country = country
	}
	if move, err := g.oracle.BestMove(context.Background(), g.deal.FEN); err != nil {
		logger.Warn("chess rule has no answer", "error", err)
	} else {
		g.bestMove = move
	}

	g.revealed = 1
	gamesStarted.Inc()
	revealsTotal.Inc()
	g.events.emit(Event{
		Type:   EventReveal,
		At:     g.clock.Now(),
		Rule:   g.rules[0].Kind.Number(),
		Detail: g.rules[0].Kind.Slug(),
	})
	logger.Info("game dealt",
		"id", g.id.String(),
		"captcha", g.deal.Captcha,
		"wordle", g.deal.Wordle,
		"video_seconds", g.deal.Seconds,
		"color", g.deal.Color.Hex())
	return g
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id.String() }

// Now returns the game clock's current instant.
func (g *Game) Now() time.Time { return g.clock.Now() }

// Deal returns a copy of the dealt rule instances.
func (g *Game) Deal() Deal {
	d := g.deal
	if d.Color != nil {
		c := *d.Color
		d.Color = &c
	}
	return d
}

// Providers returns fact sources answering exactly what this game
// dealt: its own wordle word, its own tables, its own clock. A session
// playing this game through an Adapter resolves facts from here.
func (g *Game) Providers() facts.Providers {
	return facts.Providers{
		Wordle: dealtWordle{answer: g.deal.Wordle},
		Moon:   g.moon,
		Geo:    g.geo,
		Chess:  g.oracle,
		Videos: g.videos,
		Clock:  g.clock,
		Logger: g.logger,
	}
}

// dealtWordle serves the dealt answer for any date.
type dealtWordle struct {
	answer string
}

func (d dealtWordle) Answer(ctx context.Context, date time.Time) (string, error) {
	return d.answer, nil
}

// DisplayedRules renders every revealed rule in surface order.
func (g *Game) DisplayedRules() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, g.revealed)
	for _, r := range g.rules[:g.revealed] {
		out = append(out, displayText(r, g.sacrificed))
	}
	return out
}

// Revealed returns how many rules are on screen.
func (g *Game) Revealed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revealed
}

// Text returns the current password text.
func (g *Game) Text() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.String()
}

// Password returns a copy of the current password document.
func (g *Game) Password() *password.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doc.Snapshot()
}

// SacrificedLetters returns the chosen letters, or nil before the
// choice.
func (g *Game) SacrificedLetters() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sacrificed == nil {
		return nil
	}
	out := make([]string, len(g.sacrificed))
	copy(out, g.sacrificed)
	return out
}

// Won reports whether every rule has held at once.
func (g *Game) Won() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.won
}

// Over reports whether the game has ended, and how.
func (g *Game) Over() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.outcome
}

// View is a transportable summary of the game's current state.
type View struct {
	ID         string   `json:"id"`
	Revealed   int      `json:"revealed"`
	Text       string   `json:"text"`
	Length     int      `json:"length"`
	Sacrificed []string `json:"sacrificed,omitempty"`
	Won        bool     `json:"won"`
	Over       bool     `json:"over"`
	Outcome    string   `json:"outcome,omitempty"`
}

// View snapshots the game for transport.
func (g *Game) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := View{
		ID:       g.id.String(),
		Revealed: g.revealed,
		Text:     g.doc.String(),
		Length:   g.doc.Len(),
		Won:      g.won,
		Over:     g.over,
		Outcome:  g.outcome,
	}
	if g.sacrificed != nil {
		v.Sacrificed = make([]string, len(g.sacrificed))
		copy(v.Sacrificed, g.sacrificed)
	}
	return v
}

// Subscribe registers a handler for game events and returns an id for
// Unsubscribe.
func (g *Game) Subscribe(h Handler) string {
	return g.events.subscribe(h)
}

// Unsubscribe removes a subscription.
func (g *Game) Unsubscribe(id string) {
	g.events.unsubscribe(id)
}

// Events returns the buffered event history, oldest first.
func (g *Game) Events() []Event {
	return g.events.replay()
}

// SetText replaces the password with plain text, the way typing into
// the surface would. Formatting resets.
func (g *Game) SetText(text string) error {
	g.mu.Lock()
	defer g.finish()
	return g.adopt(password.New(text))
}

// SetPassword replaces the password with a formatted document, the way
// the toolbar-driven surface would. The document is copied.
func (g *Game) SetPassword(doc *password.Document) error {
	if doc == nil {
		doc = password.New("")
	}
	g.mu.Lock()
	defer g.finish()
	return g.adopt(doc.Snapshot())
}

// adopt installs the new password and advances the cascade. Callers
// hold the lock.
func (g *Game) adopt(doc *password.Document) error {
	if g.over {
		return ErrGameOver
	}
	g.doc = doc
	g.advance()
	return nil
}

// Sacrifice records the two letters given up. The rule must be on
// screen and the choice is permanent.
func (g *Game) Sacrifice(letters []string) error {
	g.mu.Lock()
	defer g.finish()

	if g.over {
		return ErrGameOver
	}
	if rules.KindSacrifice.Number() > g.revealed {
		return fmt.Errorf("%w: rule not yet revealed", ErrBadSacrifice)
	}
	if g.sacrificed != nil {
		return ErrSacrificeTaken
	}
	if len(letters) != 2 {
		return fmt.Errorf("%w: need exactly 2 letters, got %d", ErrBadSacrifice, len(letters))
	}
	chosen := make([]string, 2)
	for i, l := range letters {
		l = strings.ToLower(strings.TrimSpace(l))
		if len(l) != 1 || l[0] < 'a' || l[0] > 'z' {
			return fmt.Errorf("%w: %q is not a letter", ErrBadSacrifice, letters[i])
		}
		chosen[i] = l
	}
	if chosen[0] == chosen[1] {
		return fmt.Errorf("%w: letters must differ", ErrBadSacrifice)
	}

	g.sacrificed = chosen
	g.note(EventSacrifice, rules.KindSacrifice.Number(), chosen[0]+", "+chosen[1])
	g.logger.Info("letters sacrificed", "letters", chosen)
	g.advance()
	return nil
}

// Tick advances the hazard clocks to now. The adapter calls it on every
// poll; a server runs its own ticker.
func (g *Game) Tick(now time.Time) {
	g.mu.Lock()
	defer g.finish()

	if g.over {
		return
	}

	for g.fireStarted && !g.over && g.cfg.SpreadInterval > 0 &&
		now.Sub(g.lastSpread) >= g.cfg.SpreadInterval {
		g.lastSpread = g.lastSpread.Add(g.cfg.SpreadInterval)
		if !g.spreadFire() {
			g.lastSpread = now
			break
		}
	}

	for g.paulHatched && !g.over && g.cfg.MealInterval > 0 &&
		now.Sub(g.lastMeal) >= g.cfg.MealInterval {
		g.lastMeal = g.lastMeal.Add(g.cfg.MealInterval)
		g.mealtime()
	}

	if !g.over {
		g.advance()
	}
}

// ConfirmFinal seals a winning game. It fails while any rule is
// unsatisfied; confirming twice is a no-op.
func (g *Game) ConfirmFinal() error {
	g.mu.Lock()
	defer g.finish()

	if g.over {
		if g.won {
			return nil
		}
		return ErrGameOver
	}
	g.advance()
	if !g.won {
		return fmt.Errorf("%w: %d of %d rules revealed",
			ErrUnfinished, g.revealed, len(g.rules))
	}
	g.over = true
	g.outcome = "final password confirmed"
	g.logger.Info("final password confirmed", "length", g.doc.Len())
	return nil
}

// advance recomputes satisfaction and reveals further rules while every
// revealed rule holds. At-reveal side effects land here. Callers hold
// the lock.
func (g *Game) advance() {
	answers := g.answers()
	for !g.over && g.revealed < len(g.rules) && g.allSatisfied(answers) {
		next := g.rules[g.revealed]
		g.revealed++
		revealsTotal.Inc()
		g.note(EventReveal, next.Kind.Number(), next.Kind.Slug())
		g.logger.Info("rule revealed",
			"rule", next.Kind.Slug(), "number", next.Kind.Number())

		switch next.Kind {
		case rules.KindEgg:
			g.eggPlaced = true
		case rules.KindFire:
			g.fireStarted = true
			g.lastSpread = g.clock.Now()
			g.startFire()
		case rules.KindHatch:
			g.paulHatched = true
			g.lastMeal = g.clock.Now()
			g.hatchEgg()
		}
		answers = g.answers()
	}

	if g.paulHatched && !g.over {
		if n := password.CountCluster(g.doc.String(), "🐛"); n >= g.cfg.MaxBugs {
			g.fail("paul overfed")
		}
	}

	if !g.over && !g.won && g.revealed == len(g.rules) && g.allSatisfied(answers) {
		g.won = true
		outcomesTotal.WithLabelValues("won").Inc()
		g.note(EventWon, 0, "")
		g.logger.Info("every rule satisfied", "length", g.doc.Len())
	}
}

// allSatisfied validates every revealed rule against the password.
func (g *Game) allSatisfied(answers *rules.Facts) bool {
	for _, r := range g.rules[:g.revealed] {
		if !r.Validate(g.doc, answers) {
			return false
		}
	}
	return true
}

// answers assembles the facts this game's rules validate against: the
// dealt answers, the current flags, and the clock's now.
func (g *Game) answers() *rules.Facts {
	now := g.clock.Now()
	f := &rules.Facts{
		Now:          now,
		WordleAnswer: g.deal.Wordle,
		EggPlaced:    g.eggPlaced,
		PaulHatched:  g.paulHatched,
		FireStarted:  g.fireStarted,
		Sacrificed:   g.sacrificed,
	}
	if g.moon != nil {
		f.MoonEmojis = g.moon.Phase(now).Emojis()
	}
	if g.country != "" {
		f.SetCountry(g.deal.Coords, g.country)
	}
	if g.bestMove != "" {
		f.SetBestMove(g.deal.FEN, g.bestMove)
	}
	for id, seconds := range g.videos.Durations() {
		f.SetVideoDuration(id, seconds)
	}
	return f
}

// note queues an event for delivery once the lock is released.
func (g *Game) note(t EventType, rule int, detail string) {
	g.pending = append(g.pending, Event{
		Type:   t,
		At:     g.clock.Now(),
		Rule:   rule,
		Detail: detail,
	})
}

// finish releases the game lock and then delivers the events noted in
// the locked section, so handlers may call back in.
func (g *Game) finish() {
	evs := g.pending
	g.pending = nil
	g.mu.Unlock()
	g.events.emit(evs...)
}
