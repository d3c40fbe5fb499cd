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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/passmith/cmd/passmith/config"
	"github.com/AleutianAI/passmith/cmd/passmith/gcs"
	"github.com/AleutianAI/passmith/services/videotable"
)

// runVideosBuild searches YouTube until the table covers the target
// number of durations, saving after every batch so a blown quota only
// pauses the build.
func runVideosBuild(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	logger := newLogger("videos")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	key, err := resolveAPIKey()
	if err != nil {
		os.Exit(OutputResult(out, "videos build", start, nil, false, err))
	}
	source, err := videotable.NewAPISource(ctx, logger, key)
	if err != nil {
		os.Exit(OutputResult(out, "videos build", start, nil, false, err))
	}

	cfgV := config.Global.Videos
	className := videoClass
	if className == "" {
		className = cfgV.Class
	}
	class, err := videotable.ParseClass(className)
	if err != nil {
		os.Exit(OutputResult(out, "videos build", start, nil, false, err))
	}
	target := videoTarget
	if target <= 0 {
		target = cfgV.Target
	}
	tablePath := resolveTablePath()

	builder, err := videotable.NewBuilder(logger, source, videotable.Config{
		Class:       class,
		Target:      target,
		RequestRate: rate.Limit(buildRate),
		PerfectOnly: perfectOnly,
		TablePath:   tablePath,
	})
	if err != nil {
		os.Exit(OutputResult(out, "videos build", start, nil, false, err))
	}

	buildErr := builder.Build(ctx)
	table := builder.Table()
	result := VideosBuildResult{
		Durations: table.Len(),
		Target:    target,
		Class:     class.String(),
		Path:      tablePath,
	}

	partial := buildErr != nil &&
		(errors.Is(buildErr, videotable.ErrQuotaExhausted) || errors.Is(buildErr, videotable.ErrOutOfQueries))
	if buildErr != nil && !partial {
		os.Exit(OutputResult(out, "videos build", start, result, false, buildErr))
	}

	if uploadTarget != "" && buildErr == nil {
		object, err := uploadTable(ctx, tablePath)
		if err != nil {
			os.Exit(OutputResult(out, "videos build", start, result, false, err))
		}
		result.Uploaded = object
	}

	if !out.JSON && !out.Quiet {
		fmt.Printf("Table covers %d of %d durations (%s) at %s\n",
			result.Durations, result.Target, result.Class, tablePath)
		if partial {
			fmt.Printf("Stopped early: %v\nRe-run to resume; the table keeps what it has.\n", buildErr)
		}
	}
	os.Exit(OutputResult(out, "videos build", start, result, partial, nil))
}

// runVideosPrune drops videos that are no longer embeddable.
func runVideosPrune(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	logger := newLogger("videos")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	key, err := resolveAPIKey()
	if err != nil {
		os.Exit(OutputResult(out, "videos prune", start, nil, false, err))
	}
	source, err := videotable.NewAPISource(ctx, logger, key)
	if err != nil {
		os.Exit(OutputResult(out, "videos prune", start, nil, false, err))
	}

	tablePath := resolveTablePath()
	if _, err := os.Stat(tablePath); err != nil {
		os.Exit(OutputResult(out, "videos prune", start, nil, false,
			fmt.Errorf("no table at %s, run 'passmith videos build' first", tablePath)))
	}

	builder, err := videotable.NewBuilder(logger, source, videotable.Config{TablePath: tablePath})
	if err != nil {
		os.Exit(OutputResult(out, "videos prune", start, nil, false, err))
	}
	removed, err := builder.PruneNonEmbeddable(ctx)
	if err != nil {
		os.Exit(OutputResult(out, "videos prune", start, nil, false, err))
	}

	result := VideosPruneResult{Removed: removed, Remaining: builder.Table().Len()}
	if !out.JSON && !out.Quiet {
		fmt.Printf("Removed %d dead videos, %d remain\n", result.Removed, result.Remaining)
	}
	os.Exit(OutputResult(out, "videos prune", start, result, false, nil))
}

// runVideosFetch downloads the shared table from the configured bucket.
func runVideosFetch(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	logger := newLogger("videos")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tablePath := resolveTablePath()
	client, object, err := cloudClient(ctx, uploadTarget)
	if err != nil {
		os.Exit(OutputResult(out, "videos fetch", start, nil, false, err))
	}
	if err := client.DownloadTable(ctx, object, tablePath); err != nil {
		os.Exit(OutputResult(out, "videos fetch", start, nil, false, err))
	}

	table, err := videotable.LoadTable(logger, tablePath)
	if err != nil {
		os.Exit(OutputResult(out, "videos fetch", start, nil, false,
			fmt.Errorf("fetched table is unreadable: %w", err)))
	}
	result := VideosBuildResult{Durations: table.Len(), Path: tablePath}
	os.Exit(OutputResult(out, "videos fetch", start, result, false, nil))
}

// resolveAPIKey returns the YouTube Data API key from the flag or the
// configured key file.
func resolveAPIKey() (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}
	path := apiKeyFile
	if path == "" {
		path = config.Global.Videos.APIKeyFile
	}
	path = config.ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no API key: pass --api-key or put one in %s", path)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("API key file %s is empty", path)
	}
	return key, nil
}

// resolveTablePath returns the table file from the flag or the config.
func resolveTablePath() string {
	if videoTablePath != "" {
		return config.ExpandPath(videoTablePath)
	}
	return config.ExpandPath(config.Global.Videos.TablePath)
}

// uploadTable pushes the table to the bucket. The target may be a full
// gs://bucket/object URL or an object path in the configured bucket.
func uploadTable(ctx context.Context, tablePath string) (string, error) {
	client, object, err := cloudClient(ctx, uploadTarget)
	if err != nil {
		return "", err
	}
	if err := client.UploadTable(ctx, tablePath, object); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", client.BucketName, object), nil
}

// cloudClient builds a GCS client from the cloud config, honoring a
// gs:// target's bucket override.
func cloudClient(ctx context.Context, target string) (*gcs.Client, string, error) {
	cloud := config.Global.Cloud
	bucket := cloud.Bucket
	object := target

	if strings.HasPrefix(target, "gs://") {
		rest := strings.TrimPrefix(target, "gs://")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, "", fmt.Errorf("bad GCS target %q, want gs://bucket/object", target)
		}
		bucket, object = parts[0], parts[1]
	}
	if bucket == "" {
		return nil, "", fmt.Errorf("no GCS bucket: set cloud.bucket in the config or use a gs:// target")
	}
	if object == "" {
		object = "videos.yaml"
	}

	client, err := gcs.NewClient(ctx, cloud.Project, bucket, config.ExpandPath(cloud.SAKeyPath))
	if err != nil {
		return nil, "", err
	}
	return client, object, nil
}
