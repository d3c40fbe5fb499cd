// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gcs

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewClientMissingKey(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-key.json")
	_, err := NewClient(context.Background(), "proj", "bucket", missing)
	if err == nil {
		t.Fatal("expected an error for a missing service account key")
	}
	if !strings.Contains(err.Error(), "service account key not found") {
		t.Errorf("unexpected error: %v", err)
	}
}
