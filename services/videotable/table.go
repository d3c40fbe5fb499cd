// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package videotable

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// Video is one table candidate: a YouTube id and its length in seconds.
type Video struct {
	ID      string
	Seconds int
	Title   string
}

// Table collects one video per duration second. An id's quality matters
// as much as its length: every digit in the id lands in the password and
// counts against the digit budget, and every roman-numeral letter can
// collide with the roman rule, so a same-duration candidate only
// replaces an entry when it is no worse on both counts.
type Table struct {
	mu       sync.Mutex
	byLength map[int]Video
	logger   *logging.Logger
}

// NewTable returns an empty table.
func NewTable(logger *logging.Logger) *Table {
	if logger == nil {
		logger = logging.Default()
	}
	return &Table{
		byLength: make(map[int]Video),
		logger:   logger.With("component", "videotable"),
	}
}

// LoadTable reads a previously saved table. A missing file is an empty
// table, so a build can always resume.
func LoadTable(logger *logging.Logger, path string) (*Table, error) {
	t := NewTable(logger)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	for _, entry := range file.Videos {
		d, err := duration.ParseISO8601(entry.Duration)
		if err != nil {
			return nil, fmt.Errorf("video %s: bad duration %q: %w", entry.ID, entry.Duration, err)
		}
		seconds := d.D*86400 + d.TH*3600 + d.TM*60 + d.TS
		if prev, taken := t.byLength[seconds]; taken {
			return nil, fmt.Errorf("videos %s and %s share duration %d", prev.ID, entry.ID, seconds)
		}
		t.byLength[seconds] = Video{ID: entry.ID, Seconds: seconds, Title: entry.Title}
	}
	t.logger.Info("video table loaded", "path", path, "videos", len(t.byLength))
	return t, nil
}

// Len reports how many durations the table covers.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byLength)
}

// Videos lists the table sorted by duration.
func (t *Table) Videos() []Video {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Video, 0, len(t.byLength))
	for _, v := range t.byLength {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seconds < out[j].Seconds })
	return out
}

// Update merges a batch of candidates and reports how many covered a new
// duration and how many replaced an entry with a better id. Candidates
// outside the global duration range, duplicate ids, and same-duration
// candidates with worse ids are dropped.
func (t *Table) Update(batch []Video) (added, improved int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, v := range batch {
		if v.Seconds < MinDuration || v.Seconds > MaxDuration {
			continue
		}
		if t.hasIDLocked(v.ID) {
			continue
		}
		prev, taken := t.byLength[v.Seconds]
		if taken {
			if digitSum(v.ID) > digitSum(prev.ID) || romanCount(v.ID) > romanCount(prev.ID) {
				continue
			}
			improved++
		} else {
			added++
		}
		t.byLength[v.Seconds] = v
	}

	if added > 0 || improved > 0 {
		t.logger.Info("table updated", "new_durations", added, "better_ids", improved,
			"videos", len(t.byLength))
	}
	return added, improved
}

func (t *Table) hasIDLocked(id string) bool {
	for _, v := range t.byLength {
		if v.ID == id {
			return true
		}
	}
	return false
}

// Keep drops every entry the predicate rejects and reports the removals.
func (t *Table) Keep(pred func(Video) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for seconds, v := range t.byLength {
		if !pred(v) {
			delete(t.byLength, seconds)
			removed++
		}
	}
	return removed
}

// Coverage reports how much of a duration class the table covers and
// how many of the covered entries have perfect ids.
func (t *Table) Coverage(class Class) (covered, perfect int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for seconds, v := range t.byLength {
		if seconds < class.Min() || seconds > class.Max() {
			continue
		}
		covered++
		if PerfectID(v.ID) {
			perfect++
		}
	}
	return covered, perfect
}

// tableFile is the YAML shape services/facts loads.
type tableFile struct {
	Videos []tableEntry `yaml:"videos"`
}

type tableEntry struct {
	ID       string `yaml:"id"`
	Duration string `yaml:"duration"`
	Title    string `yaml:"title,omitempty"`
}

const tableHeader = "# Candidate videos for the video-length rule: id and ISO-8601 duration.\n" +
	"# Regenerate with `passmith videos build`.\n"

// Save writes the table in the shape the fact providers load.
func (t *Table) Save(path string) error {
	file := tableFile{}
	for _, v := range t.Videos() {
		file.Videos = append(file.Videos, tableEntry{
			ID:       v.ID,
			Duration: isoDuration(v.Seconds),
			Title:    v.Title,
		})
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(tableHeader), data...), 0o644); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func isoDuration(seconds int) string {
	d := duration.Duration{TM: seconds / 60, TS: seconds % 60}
	return d.String()
}

// digitSum totals the decimal digits in an id.
func digitSum(id string) int {
	sum := 0
	for _, r := range id {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum
}

// romanCount counts the roman-numeral letters in an id, "I" exempted.
func romanCount(id string) int {
	n := 0
	for _, r := range id {
		if strings.ContainsRune("VXLCDM", r) {
			n++
		}
	}
	return n
}

// PerfectID reports whether an id spends nothing from the password's
// budgets: no nonzero digits and no roman-numeral letters. Zeros are
// fine, they add nothing to the digit sum.
func PerfectID(id string) bool {
	for _, r := range id {
		if r >= '1' && r <= '9' {
			return false
		}
		if strings.ContainsRune("VXLCDM", r) {
			return false
		}
	}
	return true
}
