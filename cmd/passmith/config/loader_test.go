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

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".passmith", "passmith.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	var cfg PassmithConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	if cfg.Engine.MaxAttempts != 3 {
		t.Errorf("Engine.MaxAttempts = %d, want 3", cfg.Engine.MaxAttempts)
	}
	if cfg.Server.Port != 12260 {
		t.Errorf("Server.Port = %d, want 12260", cfg.Server.Port)
	}
	if cfg.Engine.Policy != "newest-first" {
		t.Errorf("Engine.Policy = %q, want %q", cfg.Engine.Policy, "newest-first")
	}
}

// TestValidation verifies the duration and enum rules.
func TestValidation(t *testing.T) {
	cfg := DefaultConfig()
	if err := configValidate.Struct(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Engine.PollInterval = "fast"
	if err := configValidate.Struct(&cfg); err == nil {
		t.Error("bad poll_interval should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Engine.Policy = "random"
	if err := configValidate.Struct(&cfg); err == nil {
		t.Error("unknown policy should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	if err := configValidate.Struct(&cfg); err == nil {
		t.Error("port 0 should fail validation")
	}
}

func TestDurationFallback(t *testing.T) {
	if got := Duration("", time.Second); got != time.Second {
		t.Errorf("Duration(\"\") = %v, want 1s", got)
	}
	if got := Duration("250ms", time.Second); got != 250*time.Millisecond {
		t.Errorf("Duration(250ms) = %v, want 250ms", got)
	}
	if got := Duration("junk", time.Second); got != time.Second {
		t.Errorf("Duration(junk) = %v, want fallback", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := ExpandPath("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandPath(~/x/y) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
	if got := ExpandPath("~"); !strings.HasPrefix(got, home) {
		t.Errorf("ExpandPath(~) = %q", got)
	}
}
