// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package synchronizer keeps the surface showing the intended text. It
// pushes ledger snapshots through the injector, reads back through the
// observer, and classifies any divergence so the session can react. It
// never marks rules and never infers intent from the surface.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/services/engine/password"
	"github.com/AleutianAI/passmith/services/engine/state"
)

// TextInjector replaces the surface content exactly.
type TextInjector interface {
	SetText(ctx context.Context, text string) error
}

// TextObserver reads what the surface currently shows.
type TextObserver interface {
	ReadText(ctx context.Context) (string, error)
}

// DocumentInjector is an optional injector upgrade for surfaces that keep
// per-grapheme formatting. When the injector implements it, pushes carry
// the whole document instead of the plain text; drift is still classified
// on the text alone.
type DocumentInjector interface {
	SetDocument(ctx context.Context, doc *password.Document) error
}

// Config contains retry and resync limits for one synchronizer.
type Config struct {
	// MaxAttempts bounds each push or read-back, first try included.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each retry.
	BackoffFactor float64

	// JitterFactor spreads each wait inside [1-j, 1+j] of itself.
	JitterFactor float64

	// MaxResyncs bounds full re-pushes after lost drift before the
	// attempt is declared lost.
	MaxResyncs int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    4,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
		MaxResyncs:     3,
	}
}

// Synchronizer reconciles the surface with the ledger's snapshot.
//
// Not safe for concurrent use; the session loop owns it.
type Synchronizer struct {
	logger   *logging.Logger
	injector TextInjector
	observer TextObserver
	cfg      Config
	tracer   trace.Tracer

	lastPushed uint64
	pushedOnce bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithConfig overrides the retry and resync limits.
func WithConfig(cfg Config) Option {
	return func(s *Synchronizer) { s.cfg = cfg }
}

// New builds a Synchronizer over an injector and an observer.
func New(logger *logging.Logger, injector TextInjector, observer TextObserver, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Synchronizer{
		logger:   logger,
		injector: injector,
		observer: observer,
		cfg:      DefaultConfig(),
		tracer:   otel.Tracer("synchronizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxAttempts < 1 {
		s.cfg.MaxAttempts = 1
	}
	if s.cfg.MaxResyncs < 1 {
		s.cfg.MaxResyncs = 1
	}
	if s.cfg.BackoffFactor < 1 {
		s.cfg.BackoffFactor = 1
	}
	return s
}

// Result is the outcome of one sync round.
type Result struct {
	// Drift classifies how the surface diverged, if at all.
	Drift Drift

	// Observed is the last text read back from the surface.
	Observed string

	// Adopted carries the document rebuilt around surface-introduced
	// graphemes. Set only for fire and hatch drift; the session commits
	// it via SetDoc.
	Adopted *password.Document

	// Revision is the ledger revision this round synchronized.
	Revision uint64

	// Pushes counts successful injections during the round.
	Pushes int
}

// Invalidate forgets the last push, so the next Sync pushes again even
// when the ledger revision has not moved. The session uses it to confirm
// the final password with a fresh round trip.
func (s *Synchronizer) Invalidate() {
	s.pushedOnce = false
}

// Sync pushes the ledger snapshot when it is newer than the last push,
// reads the surface back, and classifies the drift.
//
// Bug losses are restored with one extra push. Fire and hatch drift
// return an adopted document for the session to commit. Lost drift
// re-pushes up to MaxResyncs times before failing with ErrLostSync.
func (s *Synchronizer) Sync(ctx context.Context, st *state.State) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "sync.Sync")
	defer span.End()

	text, rev := st.Snapshot()
	intended := st.Doc().Snapshot()
	res := Result{Revision: rev}
	span.SetAttributes(attribute.Int64("revision", int64(rev)))

	push := !s.pushedOnce || rev != s.lastPushed
	for resync := 0; ; resync++ {
		if push {
			if err := s.push(ctx, text, intended); err != nil {
				return res, err
			}
			res.Pushes++
		}
		push = true

		observed, err := s.observe(ctx)
		if err != nil {
			return res, err
		}
		res.Observed = observed

		diffs := diffmatchpatch.New().DiffMain(text, observed, false)
		res.Drift = classifyDiffs(diffs)
		driftTotal.WithLabelValues(res.Drift.String()).Inc()
		span.AddEvent("classified", trace.WithAttributes(
			attribute.String("drift", res.Drift.String())))

		switch res.Drift {
		case DriftNone:
			s.lastPushed = rev
			s.pushedOnce = true
			return res, nil

		case DriftBugsEaten:
			// The intended text still has the bugs, so one more push
			// restores the snack row. Refeeding is the solver's job.
			s.logger.Info("bugs eaten off the surface", "revision", rev)
			if err := s.push(ctx, text, intended); err != nil {
				return res, err
			}
			res.Pushes++
			s.lastPushed = rev
			s.pushedOnce = true
			return res, nil

		case DriftFire, DriftHatched:
			adopted, aerr := adopt(st.Doc(), diffs)
			if aerr != nil {
				return res, fmt.Errorf("adopting %s drift: %w", res.Drift, aerr)
			}
			res.Adopted = adopted
			s.logger.Info("surface drift adopted",
				"drift", res.Drift.String(), "observed_len", len(observed))
			return res, nil

		case DriftGameOver:
			s.logger.Error("gravestone on the surface", "observed", observed)
			return res, ErrGameOver

		case DriftLost:
			if resync+1 >= s.cfg.MaxResyncs {
				return res, fmt.Errorf("%w after %d pushes", ErrLostSync, res.Pushes)
			}
			resyncsTotal.Inc()
			s.logger.Warn("surface text lost, re-pushing",
				"resync", resync+1, "observed_len", len(observed))
		}
	}
}

// push drives the injector with capped exponential backoff. A typed
// non-retryable rejection fails without further attempts.
func (s *Synchronizer) push(ctx context.Context, text string, doc *password.Document) error {
	err := s.retry(ctx, "push", func(ctx context.Context) error {
		if di, ok := s.injector.(DocumentInjector); ok {
			return di.SetDocument(ctx, doc)
		}
		return s.injector.SetText(ctx, text)
	}, retryableInjection)
	if err == nil {
		return nil
	}
	pushFailuresTotal.Inc()
	if errors.Is(err, ErrInjection) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInjection, err)
}

// observe reads the surface back with the same retry discipline.
func (s *Synchronizer) observe(ctx context.Context) (string, error) {
	var text string
	err := s.retry(ctx, "observe", func(ctx context.Context) error {
		t, rerr := s.observer.ReadText(ctx)
		if rerr != nil {
			return rerr
		}
		text = t
		return nil
	}, retryableObserve)
	if err == nil {
		return text, nil
	}
	observeFailuresTotal.Inc()
	if errors.Is(err, ErrObserve) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	return "", fmt.Errorf("%w: %v", ErrObserve, err)
}

// retry runs fn up to MaxAttempts times with exponential backoff and
// jitter. Context and non-retryable errors cut the loop short.
func (s *Synchronizer) retry(ctx context.Context, op string, fn func(context.Context) error, retryable func(error) bool) error {
	backoff := s.cfg.InitialBackoff
	var last error

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return last
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		wait := jittered(backoff, s.cfg.JitterFactor)
		s.logger.Debug("surface call failed, backing off",
			"op", op, "attempt", attempt, "wait", wait.String(), "error", last)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff = nextBackoff(backoff, s.cfg.BackoffFactor, s.cfg.MaxBackoff)
	}
	return last
}

// retryableInjection treats untyped errors as transient; a typed
// InjectionError decides for itself.
func retryableInjection(err error) bool {
	var ierr *InjectionError
	if errors.As(err, &ierr) {
		return ierr.Retryable
	}
	return true
}

func retryableObserve(err error) bool {
	var oerr *ObserveError
	if errors.As(err, &oerr) {
		return oerr.Retryable
	}
	return true
}

// jittered spreads the wait inside [base*(1-f), base*(1+f)].
func jittered(base time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return base
	}
	mult := 1 + (rand.Float64()*2-1)*factor
	return time.Duration(float64(base) * mult)
}

// nextBackoff grows the wait geometrically up to the cap.
func nextBackoff(current time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		return max
	}
	return next
}
