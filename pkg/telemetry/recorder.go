// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry ships engine log entries to InfluxDB. Attach a
// Recorder as the logging Exporter and every attempt, repair and win
// becomes a queryable point.
package telemetry

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// Config locates the InfluxDB instance.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Recorder writes log entries as points in the "engine_log"
// measurement, tagged by level and service.
type Recorder struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// NewRecorder connects to InfluxDB. The connection is lazy; a wrong URL
// shows up as dropped writes, not a construction error.
func NewRecorder(cfg Config) (*Recorder, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("telemetry: URL is required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Recorder{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Export writes one entry. The logger calls this off the hot path with
// a short-deadline context and drops errors.
func (r *Recorder) Export(ctx context.Context, entry logging.Entry) error {
	fields := map[string]interface{}{
		"message": entry.Message,
	}
	for k, v := range entry.Attrs {
		switch v.(type) {
		case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			fields[k] = v
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	p := influxdb2.NewPoint(
		"engine_log",
		map[string]string{
			"level":   entry.Level.String(),
			"service": entry.Service,
		},
		fields,
		entry.Timestamp,
	)
	return r.write.WritePoint(ctx, p)
}

// Flush is a no-op; the blocking write API has no internal buffer.
func (r *Recorder) Flush(ctx context.Context) error { return nil }

// Close shuts the client down.
func (r *Recorder) Close() error {
	r.client.Close()
	return nil
}

var _ logging.Exporter = (*Recorder)(nil)
