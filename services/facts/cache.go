// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package facts

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	storage "github.com/AleutianAI/passmith/pkg/storage/badger"
)

// Cache is a badger-backed key/value store for fetched facts. Wordle
// answers and video durations land here so a restarted session does not
// re-fetch what it already knows.
//
// The cache is best-effort: a read or write failure degrades to a miss and
// the provider fetches again. Keys are namespaced by the provider
// ("wordle/2026-08-25", "video/Hc6J5rlKhIc").
type Cache struct {
	db *storage.DB
}

// OpenCache opens a cache at the given directory. An empty dir opens an
// in-memory cache, which is what the tests and the simulated driver use.
func OpenCache(dir string) (*Cache, error) {
	cfg := storage.InMemoryConfig()
	if dir != "" {
		cfg = storage.DefaultConfig()
		cfg.Path = dir
		// The cache can always be refilled; don't pay for fsync.
		cfg.SyncWrites = false
	}
	db, err := storage.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open fact cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached value for key, or "" and false on a miss. Expired
// entries are misses.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	var value string
	err := c.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores value under key for ttl. A ttl of zero stores forever.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
