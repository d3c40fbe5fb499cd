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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/passmith/cmd/passmith/config"
	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/pkg/telemetry"
)

// --- Global Command Variables ---
var (
	driverType     string // run: where the game lives (sim or http)
	serverURL      string // run: game server base URL for the http driver
	gameID         string // run: attach to an existing remote game
	runSeed        int64  // run, rules list: deterministic deal
	policyName     string // run: conflict repair order (newest or oldest)
	maxAttempts    int    // run: session attempt budget
	attemptTimeout string // run: per-attempt deadline
	servePort      int
	serveTick      string
	apiKey         string  // videos build: inline YouTube Data API key
	apiKeyFile     string  // videos build: file holding the API key
	videoClass     string  // videos build: duration class to cover
	videoTarget    int     // videos build: distinct durations to stop at
	videoTablePath string  // videos: table file override
	perfectOnly    bool    // videos build: only ids free of digits and romans
	buildRate      float64 // videos build: API requests per second
	uploadTarget   string  // videos build/fetch: object path in the bucket
	jsonOut        bool
	quietOut       bool

	rootCmd = &cobra.Command{
		Use:   "passmith",
		Short: "A constraint-repair engine that plays The Password Game",
		Long: `Passmith watches a Password Game surface, parses the rules it
				reveals, and edits the password until every rule holds. It can
				play a simulated game in process or drive a shared game server
				over HTTP.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
		},
	}

	// --- Session ---
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Play a full session and print the sealed winner",
		Run:   runSession, // Defined in cmd_run.go
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Rules ---
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule catalogue",
	}
	rulesListCmd = &cobra.Command{
		Use:   "list",
		Short: "Deal a game and print every rule as the surface would show it",
		Run:   runRulesList, // Defined in cmd_rules.go
	}
	rulesParseCmd = &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse rule texts from a file or stdin and report what was recognized",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRulesParse, // Defined in cmd_rules.go
	}

	// --- Videos ---
	videosCmd = &cobra.Command{
		Use:   "videos",
		Short: "Manage the candidate table for the video-length rule",
	}
	videosBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "Search YouTube for videos until every needed duration is covered",
		Run:   runVideosBuild, // Defined in cmd_videos.go
	}
	videosPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Drop table entries that are no longer embeddable",
		Run:   runVideosPrune, // Defined in cmd_videos.go
	}
	videosFetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download a shared table from the configured GCS bucket",
		Run:   runVideosFetch, // Defined in cmd_videos.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&quietOut, "quiet", false, "Suppress output, exit code only")

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&driverType, "driver", "sim", "Game driver: 'sim' (in process) or 'http' (remote server)")
	runCmd.Flags().StringVar(&serverURL, "server", "", "Game server base URL for the http driver (default from config)")
	runCmd.Flags().StringVar(&gameID, "game", "", "Attach to an existing remote game instead of creating one")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Deal seed, 0 rolls a fresh one")
	runCmd.Flags().StringVar(&policyName, "policy", "", "Conflict repair order: 'newest' or 'oldest' (default from config)")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Session attempt budget (default from config)")
	runCmd.Flags().StringVar(&attemptTimeout, "timeout", "", "Per-attempt deadline, e.g. 5m (default from config)")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&serveTick, "tick", "", "Hazard tick interval, e.g. 250ms (default from config)")

	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().Int64Var(&runSeed, "seed", 0, "Deal seed, 0 rolls a fresh one")
	rulesCmd.AddCommand(rulesParseCmd)

	rootCmd.AddCommand(videosCmd)
	videosCmd.PersistentFlags().StringVar(&videoTablePath, "table", "", "Table file path (default from config)")
	videosCmd.AddCommand(videosBuildCmd)
	videosBuildCmd.Flags().StringVar(&apiKey, "api-key", "", "YouTube Data API key")
	videosBuildCmd.Flags().StringVar(&apiKeyFile, "key-file", "", "File holding the API key (default from config)")
	videosBuildCmd.Flags().StringVar(&videoClass, "class", "", "Duration class: any, short, medium, or long (default from config)")
	videosBuildCmd.Flags().IntVar(&videoTarget, "target", 0, "Distinct durations to stop at (default from config)")
	videosBuildCmd.Flags().BoolVar(&perfectOnly, "perfect", false, "Keep only ids with no digits and no roman letters")
	videosBuildCmd.Flags().Float64Var(&buildRate, "rate", 1, "API requests per second")
	videosBuildCmd.Flags().StringVar(&videoTablePath, "out", "", "Write the table here (same as --table)")
	videosBuildCmd.Flags().StringVar(&uploadTarget, "upload", "", "Upload the finished table to this object in the configured bucket")
	videosCmd.AddCommand(videosPruneCmd)
	videosCmd.AddCommand(videosFetchCmd)
	videosFetchCmd.Flags().StringVar(&uploadTarget, "object", "videos.yaml", "Object path in the configured bucket")
}

// newLogger builds the command logger from the config file's logging
// and telemetry sections. Callers must Close it so the exporter drains.
func newLogger(service string) *logging.Logger {
	cfg := config.Global.Logging
	lc := logging.Config{
		Level:   parseLevel(cfg.Level),
		LogDir:  cfg.Dir,
		Service: service,
		JSON:    cfg.JSON,
	}
	if tel := config.Global.Telemetry; tel.URL != "" {
		rec, err := telemetry.NewRecorder(telemetry.Config{
			URL:    tel.URL,
			Token:  tel.Token,
			Org:    tel.Org,
			Bucket: tel.Bucket,
		})
		if err != nil {
			log.Printf("Telemetry disabled: %v", err)
		} else {
			lc.Exporter = rec
		}
	}
	return logging.New(lc)
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
