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
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/senseyeio/duration"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/AleutianAI/passmith/pkg/logging"
)

// searchPageSize is the API's maximum page size, and also the batch
// limit for videos.list id lookups.
const searchPageSize = 50

// Source finds candidate videos and answers their durations. The
// builder only needs these three calls, so tests can drive it with a
// canned source.
type Source interface {
	// Search returns video ids matching the query, plus the token for
	// the next page. An empty token means the query is exhausted.
	Search(ctx context.Context, query string, class Class, pageToken string) (ids []string, next string, err error)

	// Durations resolves each id's length and title. Unknown ids are
	// dropped, not errored.
	Durations(ctx context.Context, ids []string) ([]Video, error)

	// Embeddable reports which of the ids can be embedded.
	Embeddable(ctx context.Context, ids []string) (map[string]bool, error)
}

// APISource is a Source backed by the YouTube Data API.
type APISource struct {
	logger *logging.Logger
	svc    *youtube.Service
}

// NewAPISource builds a data-API source with the given key.
func NewAPISource(ctx context.Context, logger *logging.Logger, apiKey string) (*APISource, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if apiKey == "" {
		return nil, errors.New("youtube api key is empty")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &APISource{
		logger: logger.With("component", "videotable_api"),
		svc:    svc,
	}, nil
}

// Search runs one page of a video search in the class's duration bucket.
func (s *APISource) Search(ctx context.Context, query string, class Class, pageToken string) ([]string, string, error) {
	call := s.svc.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(searchPageSize).
		Type("video").
		VideoDuration(class.Param()).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, "", wrapQuota("search", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	s.logger.Debug("search page", "query", query, "results", len(ids),
		"more", resp.NextPageToken != "")
	return ids, resp.NextPageToken, nil
}

// Durations resolves id batches through videos.list.
func (s *APISource) Durations(ctx context.Context, ids []string) ([]Video, error) {
	out := make([]Video, 0, len(ids))
	for _, chunk := range chunkIDs(ids, searchPageSize) {
		resp, err := s.svc.Videos.List([]string{"contentDetails", "snippet"}).
			Id(chunk...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapQuota("videos.list", err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails == nil {
				continue
			}
			d, err := duration.ParseISO8601(item.ContentDetails.Duration)
			if err != nil {
				s.logger.Warn("unparseable duration", "video", item.Id,
					"duration", item.ContentDetails.Duration)
				continue
			}
			v := Video{ID: item.Id, Seconds: d.D*86400 + d.TH*3600 + d.TM*60 + d.TS}
			if item.Snippet != nil {
				v.Title = item.Snippet.Title
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Embeddable checks id batches through videos.list part=status.
func (s *APISource) Embeddable(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	for _, chunk := range chunkIDs(ids, searchPageSize) {
		resp, err := s.svc.Videos.List([]string{"status"}).
			Id(chunk...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, wrapQuota("videos.status", err)
		}
		for _, item := range resp.Items {
			if item.Status != nil {
				out[item.Id] = item.Status.Embeddable
			}
		}
	}
	return out, nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// wrapQuota marks a 403 as quota exhaustion so the builder can stop
// cleanly and resume on the next key rotation.
func wrapQuota(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Source = (*APISource)(nil)
