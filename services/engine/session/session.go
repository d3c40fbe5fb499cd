// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session owns one player's march through the rule gauntlet. It
// polls the surface for revealed rules, refreshes facts, drives the
// repair engine, keeps the surface synchronized, and confirms the final
// password. A failed attempt starts over fresh, up to a bounded count.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/repair"
	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/engine/solver"
	"github.com/AleutianAI/passmith/services/engine/state"
	"github.com/AleutianAI/passmith/services/engine/synchronizer"
	"github.com/AleutianAI/passmith/services/facts"
)

// RuleSource lists the rule texts the surface currently displays. The
// surface re-displays every revealed rule, so entries repeat across
// polls; the ledger dedupes them.
type RuleSource interface {
	Poll(ctx context.Context) ([]string, error)
}

// TextInjector and TextObserver are the surface's write and read sides.
// The synchronizer owns the retry discipline around both. Surfaces that
// keep per-grapheme formatting additionally implement DocumentInjector
// and receive whole documents.
type (
	TextInjector     = synchronizer.TextInjector
	TextObserver     = synchronizer.TextObserver
	DocumentInjector = synchronizer.DocumentInjector
)

// SacrificeTaker is implemented by surfaces that want the chosen
// sacrifice letters submitted back before the sacrifice rule resolves.
// The session probes the injector for it.
type SacrificeTaker interface {
	Sacrifice(ctx context.Context, letters []string) error
}

// Surface bundles the session's three views of one game surface.
type Surface struct {
	Rules    RuleSource
	Injector TextInjector
	Observer TextObserver
}

// Config holds the session retry policy.
type Config struct {
	// MaxAttempts bounds full game attempts, first included.
	MaxAttempts int

	// PollInterval is the wait between passes while the attempt is
	// blocked on the surface: unrevealed rules, missing facts, hazards.
	PollInterval time.Duration

	// AttemptTimeout bounds one attempt end to end. A timed-out attempt
	// restarts like any other failure. Zero disables the bound.
	AttemptTimeout time.Duration

	// Journal, when set, records every document commit. The SessionID
	// field is overwritten with a per-attempt scope.
	Journal *state.JournalConfig
}

// DefaultConfig returns the stock retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		PollInterval:   500 * time.Millisecond,
		AttemptTimeout: 10 * time.Minute,
	}
}

// Session plays the game against one surface. Run is one-shot; the
// sealed winner survives until revealed or closed.
type Session struct {
	logger    *logging.Logger
	source    RuleSource
	injector  TextInjector
	observer  TextObserver
	providers facts.Providers
	cfg       Config
	tracer    trace.Tracer
	id        string

	solverOpts []solver.Option
	repairOpts []repair.Option
	syncOpts   []synchronizer.Option

	mu     sync.Mutex
	ran    bool
	sealed *winner
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides the retry policy.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithSolverOptions passes options to each attempt's solver.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(s *Session) { s.solverOpts = opts }
}

// WithRepairOptions passes options to each attempt's repair engine.
func WithRepairOptions(opts ...repair.Option) Option {
	return func(s *Session) { s.repairOpts = opts }
}

// WithSyncOptions passes options to each attempt's synchronizer.
func WithSyncOptions(opts ...synchronizer.Option) Option {
	return func(s *Session) { s.syncOpts = opts }
}

// New builds a Session over one surface. Nil provider fields surface as
// unavailable when a rule actually needs them.
func New(logger *logging.Logger, surface Surface, providers facts.Providers, opts ...Option) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	if providers.Logger == nil {
		providers.Logger = logger
	}
	s := &Session{
		logger:    logger,
		source:    surface.Rules,
		injector:  surface.Injector,
		observer:  surface.Observer,
		providers: providers,
		cfg:       DefaultConfig(),
		tracer:    otel.Tracer("session"),
		id:        uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxAttempts < 1 {
		s.cfg.MaxAttempts = 1
	}
	if s.cfg.PollInterval <= 0 {
		s.cfg.PollInterval = DefaultConfig().PollInterval
	}
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Run plays attempts until one wins or the budget is spent. On a win the
// confirmed password is sealed; read it with Winner.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.ran = true
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session.Run",
		trace.WithAttributes(attribute.String("session_id", s.id)))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		attemptsTotal.Inc()
		s.logger.Info("attempt starting", "attempt", attempt, "max", s.cfg.MaxAttempts)

		attemptCtx, cancel := s.attemptContext(ctx)
		err := s.attempt(attemptCtx, attempt)
		cancel()

		if err == nil {
			winsTotal.Inc()
			span.SetAttributes(attribute.Int("winning_attempt", attempt))
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		class := failureClass(err)
		if !restartable(class) {
			return err
		}
		lastErr = err
		restartsTotal.WithLabelValues(class).Inc()
		s.logger.Warn("attempt failed, starting over",
			"attempt", attempt,
			"class", class,
			"error", err.Error())
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, s.cfg.MaxAttempts, lastErr)
}

// Winner returns the confirmed final password. It can be read exactly
// once; the enclave is wiped on reveal.
func (s *Session) Winner() (string, error) {
	s.mu.Lock()
	w := s.sealed
	s.mu.Unlock()
	if w == nil {
		return "", ErrNoWinner
	}
	return w.reveal()
}

// Close wipes the sealed password if it was never revealed.
func (s *Session) Close() error {
	s.mu.Lock()
	w := s.sealed
	s.sealed = nil
	s.mu.Unlock()
	if w != nil {
		w.destroy()
	}
	return nil
}

func (s *Session) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}

// attempt plays one game to the final confirmation. A nil return means
// the password was sealed.
func (s *Session) attempt(ctx context.Context, attempt int) error {
	ctx, span := s.tracer.Start(ctx, "session.attempt",
		trace.WithAttributes(attribute.Int("attempt", attempt)))
	defer span.End()

	sv := solver.New(s.logger, s.solverOpts...)
	engine := repair.New(s.logger, sv, s.repairOpts...)
	sync := synchronizer.New(s.logger, s.injector, s.observer, s.syncOpts...)
	flags := &surfaceFlags{}

	st, err := s.freshState(ctx, sv, attempt)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			s.logger.Warn("state close failed", "error", cerr.Error())
		}
	}()

	confirming := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		texts, err := s.source.Poll(ctx)
		if err != nil {
			return fmt.Errorf("polling rules: %w", err)
		}
		s.ingest(st, flags, texts)

		snap, err := s.providers.Snapshot(ctx, activeRules(st))
		if err != nil {
			s.logger.Warn("fact snapshot incomplete", "error", err.Error())
		}
		flags.apply(snap)

		report, rerr := engine.Reconcile(ctx, st, snap)
		switch {
		case rerr == nil:
			s.logger.Debug("ledger converged",
				"cycles", report.Cycles,
				"edits", report.EditsApplied,
				"revision", report.Revision)
		case errors.Is(rerr, repair.ErrFactsPending):
			s.handlePending(ctx, sv, flags, rerr)
		default:
			return rerr
		}

		res, serr := sync.Sync(ctx, st)
		if serr != nil {
			return serr
		}

		adopted := false
		switch res.Drift {
		case synchronizer.DriftFire, synchronizer.DriftHatched:
			if res.Adopted != nil {
				if err := st.SetDoc(res.Adopted); err != nil {
					return fmt.Errorf("adopting surface changes: %w", err)
				}
				adopted = true
			}
			if res.Drift == synchronizer.DriftHatched {
				flags.paulHatched = true
			}
		case synchronizer.DriftBugsEaten:
			flags.paulEating = true
		}

		if rerr == nil && res.Drift == synchronizer.DriftNone && finalRevealed(st) {
			if confirming {
				return s.seal(st)
			}
			// Arm the confirmation: force a fresh push and require the
			// next round trip to come back clean.
			confirming = true
			sync.Invalidate()
			continue
		}
		confirming = false

		if adopted {
			// Repair the splice right away.
			continue
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

// freshState seeds a new ledger with the protected starting password.
func (s *Session) freshState(ctx context.Context, sv *solver.Solver, attempt int) (*state.State, error) {
	snap, err := s.providers.Snapshot(ctx, nil)
	if err != nil {
		s.logger.Warn("fact snapshot incomplete", "error", err.Error())
	}

	doc := password.New("")
	for _, ch := range sv.StartingPassword(snap) {
		if err := doc.Queue(ch); err != nil {
			return nil, fmt.Errorf("seeding the password: %w", err)
		}
	}
	if err := doc.Commit(); err != nil {
		return nil, fmt.Errorf("seeding the password: %w", err)
	}

	var opts []state.Option
	if s.cfg.Journal != nil {
		jc := *s.cfg.Journal
		jc.SessionID = fmt.Sprintf("%s-a%d", s.id, attempt)
		if jc.Logger == nil {
			jc.Logger = s.logger
		}
		journal, err := state.NewJournal(jc)
		if err != nil {
			s.logger.Warn("journal unavailable", "error", err.Error())
		} else {
			opts = append(opts, state.WithJournal(journal))
		}
	}
	return state.New(s.logger, doc, opts...), nil
}

// ingest parses feed entries into the ledger. Unrecognized entries are
// logged and retried on the next poll.
func (s *Session) ingest(st *state.State, flags *surfaceFlags, texts []string) {
	for _, raw := range texts {
		rule, err := rules.Parse(raw)
		if err != nil {
			s.logger.Warn("rule entry not understood", "error", err.Error())
			continue
		}
		if !st.AddRule(rule) {
			continue
		}
		s.reveal(flags, rule)
	}
	rulesRevealed.Set(float64(st.Len()))
}

// reveal records the surface side effects that arrive with a rule: the
// egg is on the board, the password is burning, Paul is out of his
// shell, a sacrifice was acknowledged.
func (s *Session) reveal(flags *surfaceFlags, rule rules.Rule) {
	switch rule.Kind {
	case rules.KindEgg:
		flags.eggPlaced = true
	case rules.KindFire:
		flags.fireStarted = true
	case rules.KindHatch:
		flags.paulHatched = true
	case rules.KindSacrifice:
		if len(rule.Letters) == 2 {
			flags.sacrificed = []string{rule.Letters[:1], rule.Letters[1:]}
		}
	}
}

// handlePending reacts to rules blocked on surface facts. The sacrifice
// pair is submitted back; everything else resolves by waiting for the
// surface or the next fact refresh.
func (s *Session) handlePending(ctx context.Context, sv *solver.Solver, flags *surfaceFlags, rerr error) {
	var pending *repair.PendingError
	if !errors.As(rerr, &pending) {
		return
	}
	blocked := make([]string, len(pending.Rules))
	for i, k := range pending.Rules {
		blocked[i] = k.Slug()
	}
	s.logger.Info("repair waiting on the surface", "rules", strings.Join(blocked, ","))

	for _, k := range pending.Rules {
		if k == rules.KindSacrifice {
			s.submitSacrifice(ctx, sv, flags)
		}
	}
}

// submitSacrifice hands the solver's chosen letters to the surface and
// records them. Surfaces without a taker just get the record; discovery
// echoes the letters back either way.
func (s *Session) submitSacrifice(ctx context.Context, sv *solver.Solver, flags *surfaceFlags) {
	letters := sv.SacrificedLetters()
	if len(letters) != 2 || flags.sacrificed != nil {
		return
	}
	if taker, ok := s.injector.(SacrificeTaker); ok {
		if err := taker.Sacrifice(ctx, letters); err != nil {
			s.logger.Warn("sacrifice not taken",
				"letters", strings.Join(letters, ""),
				"error", err.Error())
			return
		}
	}
	flags.sacrificed = letters
	s.logger.Info("letters sacrificed", "letters", strings.Join(letters, ""))
}

// seal locks the confirmed password away and ends the attempt.
func (s *Session) seal(st *state.State) error {
	text, rev := st.Snapshot()
	w, err := sealWinner(text)
	if err != nil {
		return fmt.Errorf("sealing the winner: %w", err)
	}
	s.mu.Lock()
	s.sealed = w
	s.mu.Unlock()

	s.logger.Info("final password confirmed",
		"revision", rev,
		"length", len(password.Split(text)))
	return nil
}

func (s *Session) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.PollInterval):
		return nil
	}
}

// surfaceFlags is what the session knows about the surface's own moves.
// Fact providers never see these; they are merged into every snapshot.
type surfaceFlags struct {
	eggPlaced   bool
	fireStarted bool
	paulHatched bool
	paulEating  bool
	sacrificed  []string
}

func (f *surfaceFlags) apply(snap *rules.Facts) {
	snap.EggPlaced = f.eggPlaced
	snap.FireStarted = f.fireStarted
	snap.PaulHatched = f.paulHatched
	snap.PaulEating = f.paulEating
	if len(f.sacrificed) == 2 {
		snap.Sacrificed = []string{f.sacrificed[0], f.sacrificed[1]}
	}
}

func activeRules(st *state.State) []rules.Rule {
	entries := st.Rules()
	out := make([]rules.Rule, len(entries))
	for i, e := range entries {
		out[i] = e.Rule
	}
	return out
}

func finalRevealed(st *state.State) bool {
	for _, e := range st.Rules() {
		if e.Rule.Kind == rules.KindFinal {
			return true
		}
	}
	return false
}

// failureClass buckets an attempt failure for the restart decision.
func failureClass(err error) string {
	switch {
	case errors.Is(err, repair.ErrUnsatisfiable):
		return "unsatisfiable"
	case errors.Is(err, synchronizer.ErrGameOver):
		return "game_over"
	case errors.Is(err, synchronizer.ErrLostSync):
		return "lost_sync"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// restartable reports whether a fresh attempt can recover the class.
func restartable(class string) bool {
	switch class {
	case "unsatisfiable", "game_over", "lost_sync", "timeout":
		return true
	}
	return false
}
