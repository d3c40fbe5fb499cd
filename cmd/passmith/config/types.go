// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "time"

// PassmithConfig is the file at ~/.passmith/passmith.yaml.
type PassmithConfig struct {
	// Engine: session retry and repair behavior
	Engine EngineConfig `yaml:"engine"`

	// Server: the game server `passmith serve` runs
	Server ServerConfig `yaml:"server"`

	// Facts: external fact sources the engine consults
	Facts FactsConfig `yaml:"facts"`

	// Videos: the video table and its builder
	Videos VideosConfig `yaml:"videos"`

	// Cloud: GCS upload targets for built tables
	Cloud CloudConfig `yaml:"cloud"`

	// Telemetry: optional InfluxDB sink for engine logs
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging: destinations and level for every command
	Logging LoggingConfig `yaml:"logging"`
}

type EngineConfig struct {
	MaxAttempts    int    `yaml:"max_attempts" validate:"gte=1,lte=50"`
	PollInterval   string `yaml:"poll_interval" validate:"omitempty,duration"`
	AttemptTimeout string `yaml:"attempt_timeout" validate:"omitempty,duration"`
	// Policy orders conflicting repairs: "newest-first" or "oldest-first".
	Policy string `yaml:"policy" validate:"omitempty,oneof=newest-first oldest-first"`
	// JournalDir, when set, records every password commit for replay.
	JournalDir string `yaml:"journal_dir"`
}

type ServerConfig struct {
	Port         int    `yaml:"port" validate:"gte=1,lte=65535"`
	TickInterval string `yaml:"tick_interval" validate:"omitempty,duration"`
}

type FactsConfig struct {
	// WordleURL overrides the daily-answer endpoint. Empty uses the
	// built-in default.
	WordleURL string `yaml:"wordle_url" validate:"omitempty,url"`
	// CacheDir holds the on-disk fact cache. Empty keeps it in memory.
	CacheDir string `yaml:"cache_dir"`
}

type VideosConfig struct {
	TablePath  string `yaml:"table_path"`
	APIKeyFile string `yaml:"api_key_file"`
	Class      string `yaml:"class" validate:"omitempty,oneof=any short medium long"`
	Target     int    `yaml:"target" validate:"gte=0"`
}

type CloudConfig struct {
	Project   string `yaml:"project"`
	Bucket    string `yaml:"bucket"`
	SAKeyPath string `yaml:"sa_key_path"`
}

type TelemetryConfig struct {
	// URL enables the recorder when set, e.g. http://localhost:8086.
	URL    string `yaml:"url" validate:"omitempty,url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// Duration reads a duration field, falling back when unset. Validation
// already proved the string parses.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func DefaultConfig() PassmithConfig {
	return PassmithConfig{
		Engine: EngineConfig{
			MaxAttempts:    3,
			PollInterval:   "500ms",
			AttemptTimeout: "10m",
			Policy:         "newest-first",
		},
		Server: ServerConfig{
			Port:         12260,
			TickInterval: "250ms",
		},
		Facts: FactsConfig{
			CacheDir: "~/.passmith/cache",
		},
		Videos: VideosConfig{
			TablePath:  "~/.passmith/videos.yaml",
			APIKeyFile: "~/.passmith/youtube_api_key.txt",
			Class:      "any",
			Target:     60,
		},
		Cloud: CloudConfig{},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.passmith/logs",
		},
	}
}
