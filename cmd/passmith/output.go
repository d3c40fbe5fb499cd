// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Completed with findings: a lost session, unrecognized rules
	CLIExitError    = 2 // Operation failed
)

// OutputConfig controls output behavior.
type OutputConfig struct {
	JSON    bool // Output as JSON
	Compact bool // No indentation
	Quiet   bool // No output, exit code only
}

// outputConfig derives the output mode from flags and the terminal.
// A piped stdout gets JSON without asking.
func outputConfig() OutputConfig {
	cfg := OutputConfig{JSON: jsonOut, Quiet: quietOut}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		cfg.JSON = true
	}
	return cfg
}

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OutputJSON writes structured data as JSON to stdout.
func OutputJSON(data interface{}, compact bool) error {
	encoder := json.NewEncoder(os.Stdout)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: "1.0",
			Timestamp:  time.Now(),
			Success:    false,
			Error:      fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// OutputResult handles all output scenarios with proper formatting.
//
// # Inputs
//
//   - cfg: Output configuration.
//   - cmd: Command name for metadata.
//   - start: Start time for duration calculation.
//   - data: The data to output.
//   - hasFindings: Whether the operation found issues (for exit code).
//   - err: Any error that occurred.
//
// # Outputs
//
//   - int: The exit code to use.
func OutputResult(cfg OutputConfig, cmd string, start time.Time, data interface{}, hasFindings bool, err error) int {
	if cfg.Quiet {
		if err != nil {
			return CLIExitError
		}
		if hasFindings {
			return CLIExitFindings
		}
		return CLIExitSuccess
	}

	if err != nil {
		OutputError(cfg.JSON, "Command failed", err)
		return CLIExitError
	}

	if cfg.JSON {
		result := CommandResult{
			APIVersion: "1.0",
			Command:    cmd,
			Timestamp:  time.Now(),
			DurationMs: time.Since(start).Milliseconds(),
			Success:    true,
			Data:       data,
		}
		if encErr := OutputJSON(result, cfg.Compact); encErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", encErr)
			return CLIExitError
		}
	}

	if hasFindings {
		return CLIExitFindings
	}
	return CLIExitSuccess
}

// SessionResult holds the outcome of a run command.
type SessionResult struct {
	Won      bool   `json:"won"`
	Password string `json:"password,omitempty"`
	Length   int    `json:"length,omitempty"`
	Driver   string `json:"driver"`
	GameID   string `json:"game_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RuleInfo represents one catalogue rule in list output.
type RuleInfo struct {
	Number int    `json:"number"`
	Slug   string `json:"slug"`
	Text   string `json:"text"`
}

// RulesListResult holds rules list output.
type RulesListResult struct {
	Rules []RuleInfo `json:"rules"`
	Count int        `json:"count"`
}

// ParsedRule represents one parse attempt in rules parse output.
type ParsedRule struct {
	Input  string `json:"input"`
	Number int    `json:"number,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RulesParseResult holds rules parse output.
type RulesParseResult struct {
	Rules      []ParsedRule `json:"rules"`
	Recognized int          `json:"recognized"`
	Failed     int          `json:"failed"`
}

// VideosBuildResult holds videos build output.
type VideosBuildResult struct {
	Durations int    `json:"durations"`
	Target    int    `json:"target"`
	Class     string `json:"class"`
	Path      string `json:"path,omitempty"`
	Uploaded  string `json:"uploaded,omitempty"`
}

// VideosPruneResult holds videos prune output.
type VideosPruneResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}
