// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/senseyeio/duration"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/passmith/pkg/logging"
)

//go:embed videos.yaml
var defaultVideosData []byte

// videoFile is the YAML shape the videotable builder writes.
type videoFile struct {
	Videos []videoEntry `yaml:"videos"`
}

type videoEntry struct {
	ID       string `yaml:"id"`
	Duration string `yaml:"duration"`
	Title    string `yaml:"title,omitempty"`
}

// VideoTable maps video IDs to lengths in seconds, loaded from the YAML
// table the videotable builder produces. When loaded from a file it can
// watch the file and pick up rebuilds without a restart.
type VideoTable struct {
	mu         sync.RWMutex
	byID       map[string]int
	byDuration map[int]string

	path   string
	logger *logging.Logger
}

// DefaultVideoTable loads the table embedded in the binary.
func DefaultVideoTable(logger *logging.Logger) *VideoTable {
	byID, byDuration, err := parseVideoTable(defaultVideosData)
	if err != nil {
		// The embedded table is validated by the test suite; an error
		// here is a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded video table: %v", err))
	}
	return &VideoTable{byID: byID, byDuration: byDuration, logger: logger}
}

// LoadVideoTable loads the table at path.
func LoadVideoTable(logger *logging.Logger, path string) (*VideoTable, error) {
	t := &VideoTable{path: path, logger: logger}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// reload re-reads the file and swaps the maps on success. A broken file
// leaves the previous table in place.
func (t *VideoTable) reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read video table: %w", err)
	}
	byID, byDuration, err := parseVideoTable(data)
	if err != nil {
		return fmt.Errorf("parse video table %s: %w", t.path, err)
	}

	t.mu.Lock()
	t.byID = byID
	t.byDuration = byDuration
	t.mu.Unlock()

	t.logger.Info("video table loaded", "path", t.path, "videos", len(byID))
	return nil
}

// parseVideoTable decodes the YAML and resolves ISO-8601 durations to
// seconds.
func parseVideoTable(data []byte) (map[string]int, map[int]string, error) {
	var file videoFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, err
	}

	byID := make(map[string]int, len(file.Videos))
	byDuration := make(map[int]string, len(file.Videos))
	for _, entry := range file.Videos {
		if entry.ID == "" {
			return nil, nil, fmt.Errorf("video entry with empty id")
		}
		d, err := duration.ParseISO8601(entry.Duration)
		if err != nil {
			return nil, nil, fmt.Errorf("video %s: bad duration %q: %w", entry.ID, entry.Duration, err)
		}
		seconds := d.D*86400 + d.TH*3600 + d.TM*60 + d.TS
		if seconds <= 0 {
			return nil, nil, fmt.Errorf("video %s: non-positive duration %q", entry.ID, entry.Duration)
		}
		byID[entry.ID] = seconds
		// First entry wins a duration collision so lookups stay stable
		// across reloads.
		if _, taken := byDuration[seconds]; !taken {
			byDuration[seconds] = entry.ID
		}
	}
	return byID, byDuration, nil
}

// Duration returns the length of a known video.
func (t *VideoTable) Duration(id string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seconds, ok := t.byID[id]
	return seconds, ok
}

// Durations returns a copy of the whole table, id to seconds.
func (t *VideoTable) Durations() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.byID))
	for id, seconds := range t.byID {
		out[id] = seconds
	}
	return out
}

// ByDuration returns a video of exactly the given length, or failing that
// one within a second of it, which is as close as the length rule demands.
func (t *VideoTable) ByDuration(seconds int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id, ok := t.byDuration[seconds]; ok {
		return id, true
	}
	if id, ok := t.byDuration[seconds-1]; ok {
		return id, true
	}
	if id, ok := t.byDuration[seconds+1]; ok {
		return id, true
	}
	return "", false
}

// Len returns the number of videos in the table.
func (t *VideoTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Watch reloads the table whenever the file changes, until ctx is done.
// Tables loaded from the embedded default have no file and return
// immediately.
func (t *VideoTable) Watch(ctx context.Context) error {
	if t.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch video table: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and the builder replace
	// the file, which drops a watch set on the file itself.
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("watch video table dir: %w", err)
	}

	target := filepath.Clean(t.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := t.reload(); err != nil {
				t.logger.Warn("video table reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("video table watcher error", "error", err)
		}
	}
}

var _ VideoIndex = (*VideoTable)(nil)
