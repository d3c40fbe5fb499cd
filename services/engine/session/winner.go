// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// winner holds the confirmed final password in a locked buffer so it
// never lingers in swappable memory. The text is revealed at most once;
// the reveal wipes the buffer.
type winner struct {
	mu  sync.Mutex
	buf *memguard.LockedBuffer
}

var memguardInitOnce sync.Once

// sealWinner copies text into locked memory. memguard.CatchInterrupt is
// armed on first use so an interrupted process still wipes the enclave.
func sealWinner(text string) (*winner, error) {
	memguardInitOnce.Do(memguard.CatchInterrupt)

	buf := memguard.NewBuffer(len(text))
	if buf == nil {
		return nil, fmt.Errorf("allocating %d byte secure buffer", len(text))
	}
	buf.Melt()
	copy(buf.Bytes(), text)
	return &winner{buf: buf}, nil
}

// reveal returns the sealed text and destroys the enclave.
func (w *winner) reveal() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return "", ErrWinnerSpent
	}
	text := string(w.buf.Bytes())
	w.buf.Destroy()
	w.buf = nil
	return text, nil
}

// destroy wipes the enclave without revealing it.
func (w *winner) destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf != nil {
		w.buf.Destroy()
		w.buf = nil
	}
}
