// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AleutianAI/passmith/services/game"
)

// ErrNoGame reports that the server knows no game under the bound id.
var ErrNoGame = errors.New("no such game")

// wireSentinels are the errors the server writes by message. Restoring
// them lets callers keep using errors.Is across the process boundary.
var wireSentinels = []error{
	game.ErrGameOver,
	game.ErrSacrificeTaken,
	game.ErrUnfinished,
	game.ErrBadDocument,
	game.ErrBadSacrifice,
	ErrNoGame,
}

// translateError turns a non-2xx response into an error, recovering
// sentinel identity when the body's message names one.
func translateError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	msg := strings.TrimSpace(string(data))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
	}

	for _, sentinel := range wireSentinels {
		if strings.HasPrefix(msg, sentinel.Error()) {
			rest := strings.TrimPrefix(msg, sentinel.Error())
			if rest == "" {
				return sentinel
			}
			return fmt.Errorf("%w%s", sentinel, rest)
		}
	}
	return fmt.Errorf("game server returned status %d: %s", resp.StatusCode, msg)
}
