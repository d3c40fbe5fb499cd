// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package videotable builds the video-length lookup table the fact
// providers serve. The video rule deals a length in seconds, and the
// table answers it with a YouTube id whose real duration matches, so
// the table wants one video per second across the whole dealt range.
//
// Candidates come from the YouTube Data API: common-noun searches,
// bucketed by the API's coarse duration classes, then resolved to exact
// durations in batches. Ids compete on password cost; see Table.
package videotable

import (
	_ "embed"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/passmith/pkg/logging"
)

//go:embed nouns.txt
var nounsData string

// DefaultTarget is how many durations one build run covers before it
// stops. Full coverage takes several quota days; builds resume.
const DefaultTarget = 60

// Config shapes one build run.
type Config struct {
	// Class is the duration bucket to search in.
	Class Class

	// Target stops the build once the table covers this many durations.
	Target int

	// MaxPagesPerQuery caps how deep one query is paged before the
	// builder moves to the next. Late pages repeat earlier results.
	MaxPagesPerQuery int

	// RequestRate bounds API calls per second.
	RequestRate rate.Limit

	// PerfectOnly keeps only ids with no password cost.
	PerfectOnly bool

	// TablePath is where the table is loaded from and saved to after
	// every batch. Empty keeps the table in memory only.
	TablePath string

	// Queries overrides the embedded noun list.
	Queries []string

	// Seed fixes the query shuffle. Zero draws from the clock.
	Seed int64
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Target == 0 {
		cfg.Target = DefaultTarget
	}
	if cfg.MaxPagesPerQuery == 0 {
		cfg.MaxPagesPerQuery = 10
	}
	if cfg.RequestRate == 0 {
		cfg.RequestRate = rate.Limit(1)
	}
	return cfg
}

// Builder drives searches until the table covers the target.
type Builder struct {
	logger  *logging.Logger
	cfg     Config
	source  Source
	limiter *rate.Limiter
	table   *Table
	queries []string
}

// NewBuilder loads any existing table at cfg.TablePath and prepares a
// shuffled query rotation.
func NewBuilder(logger *logging.Logger, source Source, cfg Config) (*Builder, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = applyConfigDefaults(cfg)

	var table *Table
	var err error
	if cfg.TablePath != "" {
		table, err = LoadTable(logger, cfg.TablePath)
		if err != nil {
			return nil, err
		}
	} else {
		table = NewTable(logger)
	}

	queries := cfg.Queries
	if len(queries) == 0 {
		queries = embeddedQueries()
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries to search with")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(queries), func(i, j int) {
		queries[i], queries[j] = queries[j], queries[i]
	})

	return &Builder{
		logger:  logger.With("component", "videotable_builder"),
		cfg:     cfg,
		source:  source,
		limiter: rate.NewLimiter(cfg.RequestRate, 1),
		table:   table,
		queries: queries,
	}, nil
}

// Table exposes the table being built.
func (b *Builder) Table() *Table {
	return b.table
}

// Build searches until the table covers cfg.Target durations. The table
// is saved after every merged batch, so a quota error or cancellation
// loses at most one page of work.
func (b *Builder) Build(ctx context.Context) error {
	query, pageToken, pages := 0, "", 0
	b.logger.Info("build started", "class", b.cfg.Class.String(),
		"target", b.cfg.Target, "covered", b.table.Len(), "query", b.queries[0])

	for b.table.Len() < b.cfg.Target {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}

		ids, next, err := b.source.Search(ctx, b.queries[query], b.cfg.Class, pageToken)
		if err != nil {
			return err
		}
		pages++

		if b.cfg.PerfectOnly {
			kept := ids[:0]
			for _, id := range ids {
				if PerfectID(id) {
					kept = append(kept, id)
				}
			}
			ids = kept
		}

		if len(ids) > 0 {
			batch, err := b.source.Durations(ctx, ids)
			if err != nil {
				return err
			}
			b.table.Update(batch)
			if err := b.save(); err != nil {
				return err
			}
			covered, perfect := b.table.Coverage(b.cfg.Class)
			b.logger.Info("coverage", "class", b.cfg.Class.String(),
				"covered", covered, "span", b.cfg.Class.Span(), "perfect", perfect)
		}

		if next != "" && pages < b.cfg.MaxPagesPerQuery {
			pageToken = next
			continue
		}
		query++
		if query >= len(b.queries) {
			return fmt.Errorf("%w: covered %d of %d", ErrOutOfQueries, b.table.Len(), b.cfg.Target)
		}
		pageToken, pages = "", 0
		b.logger.Info("next query", "query", b.queries[query])
	}

	b.logger.Info("build finished", "covered", b.table.Len())
	return nil
}

// PruneNonEmbeddable drops every table entry the API no longer reports
// as embeddable. A video the status lookup does not know has been taken
// down and is dropped too.
func (b *Builder) PruneNonEmbeddable(ctx context.Context) (int, error) {
	vids := b.table.Videos()
	if len(vids) == 0 {
		return 0, nil
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	ids := make([]string, len(vids))
	for i, v := range vids {
		ids[i] = v.ID
	}
	embeddable, err := b.source.Embeddable(ctx, ids)
	if err != nil {
		return 0, err
	}

	removed := b.table.Keep(func(v Video) bool {
		return embeddable[v.ID]
	})
	if removed > 0 {
		b.logger.Info("non-embeddable videos removed", "count", removed)
		if err := b.save(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (b *Builder) save() error {
	if b.cfg.TablePath == "" {
		return nil
	}
	return b.table.Save(b.cfg.TablePath)
}

// embeddedQueries parses the bundled noun list.
func embeddedQueries() []string {
	var out []string
	for _, line := range strings.Split(nounsData, "\n") {
		word := strings.TrimSpace(line)
		if word != "" && !strings.HasPrefix(word, "#") {
			out = append(out, word)
		}
	}
	return out
}
