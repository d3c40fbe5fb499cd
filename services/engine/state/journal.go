// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"sync/atomic"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/passmith/pkg/logging"
	"github.com/AleutianAI/passmith/pkg/storage/badger"
)

// =============================================================================
// Commit Records
// =============================================================================

// Record is one journaled document commit.
type Record struct {
	// Seq is the journal sequence number, assigned on append.
	Seq uint64

	// Revision is the state revision the commit produced.
	Revision uint64

	// Text is the committed password text.
	Text string

	// Ordinals are the surface numbers of the rules revealed at commit
	// time, in discovery order.
	Ordinals []int

	// At is when the commit was journaled.
	At time.Time
}

// =============================================================================
// Journal
// =============================================================================

// JournalConfig configures a commit journal.
type JournalConfig struct {
	// Path is the directory for the badger files. Required unless
	// InMemory is set.
	Path string

	// SessionID scopes this journal's keys to one attempt. Required.
	SessionID string

	// SyncWrites makes every append durable before returning.
	// Default: true.
	SyncWrites bool

	// InMemory keeps the journal in RAM. Used by tests.
	InMemory bool

	// Logger for journal operations. Default: logging.Default().
	Logger *logging.Logger
}

// DefaultJournalConfig returns durable on-disk defaults.
func DefaultJournalConfig() JournalConfig {
	return JournalConfig{SyncWrites: true}
}

// Validate checks the configuration.
func (c *JournalConfig) Validate() error {
	if c.SessionID == "" {
		return errors.New("session_id must not be empty")
	}
	if !c.InMemory && c.Path == "" {
		return errors.New("path is required for a persistent journal")
	}
	return nil
}

// Journal records document commits in BadgerDB so a crashed or lost
// attempt can be reconstructed afterwards.
//
// Key format: "commit:{session_id}:{seq:016d}"
// Value format: [4-byte CRC32][gob-encoded Record]
//
// Safe for concurrent use.
type Journal struct {
	db     *badger.DB
	config JournalConfig
	logger *logging.Logger

	seq        atomic.Uint64
	totalBytes atomic.Int64
	closed     atomic.Bool
}

// NewJournal opens a journal for one attempt. Sequence numbering resumes
// past any records already present under the session's prefix.
func NewJournal(config JournalConfig) (*Journal, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Logger == nil {
		config.Logger = logging.Default()
	}

	j := &Journal{
		config: config,
		logger: config.Logger.With("component", "journal", "session_id", config.SessionID),
	}

	dbConfig := badger.DefaultConfig()
	dbConfig.Path = config.Path
	dbConfig.InMemory = config.InMemory
	dbConfig.SyncWrites = config.SyncWrites
	dbConfig.Logger = nil

	db, err := badger.OpenDB(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	j.db = db

	if err := j.initSeq(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sequence number: %w", err)
	}

	j.logger.Info("journal opened",
		"path", config.Path,
		"in_memory", config.InMemory,
		"last_seq", j.seq.Load())
	return j, nil
}

// keyPrefix returns the key prefix for this session's records.
func (j *Journal) keyPrefix() string {
	return fmt.Sprintf("commit:%s:", j.config.SessionID)
}

// key generates the key for a sequence number.
func (j *Journal) key(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", j.keyPrefix(), seq))
}

// initSeq scans for the highest existing sequence number.
func (j *Journal) initSeq() error {
	prefix := j.keyPrefix()
	var maxSeq uint64

	err := j.db.WithReadTxn(context.Background(), func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append([]byte(prefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		it.Seek(seekKey)

		if it.ValidForPrefix([]byte(prefix)) {
			key := it.Item().Key()
			var seq uint64
			if _, err := fmt.Sscanf(string(key[len(prefix):]), "%016d", &seq); err == nil {
				maxSeq = seq
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	j.seq.Store(maxSeq)
	return nil
}

// encodeRecord encodes a record with a CRC32 checksum prefix.
func encodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	crc := crc32.ChecksumIEEE(buf.Bytes())
	out := make([]byte, 4+buf.Len())
	binary.BigEndian.PutUint32(out[:4], crc)
	copy(out[4:], buf.Bytes())
	return out, nil
}

// decodeRecord validates the checksum and decodes the record.
func decodeRecord(data []byte) (Record, error) {
	if len(data) < 5 {
		return Record{}, fmt.Errorf("%w: entry too short", ErrJournalCorrupted)
	}

	storedCRC := binary.BigEndian.Uint32(data[:4])
	gobData := data[4:]
	if computed := crc32.ChecksumIEEE(gobData); computed != storedCRC {
		return Record{}, fmt.Errorf("%w: stored=%08x computed=%08x",
			ErrJournalCorrupted, storedCRC, computed)
	}

	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(gobData)).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("gob decode: %w", err)
	}
	return rec, nil
}

// Append records one commit. The record's Seq and At fields are assigned
// here.
func (j *Journal) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.closed.Load() {
		return ErrJournalClosed
	}

	ctx, span := otel.Tracer("state").Start(ctx, "journal.Append",
		trace.WithAttributes(
			attribute.String("session_id", j.config.SessionID),
			attribute.Int64("revision", int64(rec.Revision)),
		),
	)
	defer span.End()

	rec.Seq = j.seq.Add(1)
	rec.At = time.Now()

	data, err := encodeRecord(rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return fmt.Errorf("encode record: %w", err)
	}

	err = j.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set(j.key(rec.Seq), data)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("write record: %w", err)
	}

	j.totalBytes.Add(int64(len(data)))
	span.SetAttributes(
		attribute.Int64("seq", int64(rec.Seq)),
		attribute.Int("entry_bytes", len(data)),
	)

	j.logger.Debug("commit journaled",
		"seq", rec.Seq,
		"revision", rec.Revision,
		"bytes", len(data))
	return nil
}

// Replay returns every record under the session's prefix in sequence
// order, validating checksums and sequence continuity.
func (j *Journal) Replay(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j.closed.Load() {
		return nil, ErrJournalClosed
	}

	ctx, span := otel.Tracer("state").Start(ctx, "journal.Replay",
		trace.WithAttributes(attribute.String("session_id", j.config.SessionID)),
	)
	defer span.End()

	var records []Record
	var lastSeq uint64

	prefix := []byte(j.keyPrefix())
	err := j.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var seq uint64
			if _, err := fmt.Sscanf(string(item.Key()[len(prefix):]), "%016d", &seq); err != nil {
				continue
			}

			if lastSeq > 0 && seq != lastSeq+1 {
				return fmt.Errorf("%w: expected %d, got %d",
					ErrJournalSequenceGap, lastSeq+1, seq)
			}
			lastSeq = seq

			err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay failed")
		return nil, fmt.Errorf("replay: %w", err)
	}

	span.SetAttributes(attribute.Int("record_count", len(records)))
	j.logger.Info("replay completed", "records", len(records))
	return records, nil
}

// LastSeq returns the most recently assigned sequence number.
func (j *Journal) LastSeq() uint64 {
	return j.seq.Load()
}

// Sync flushes pending writes to disk.
func (j *Journal) Sync() error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	return j.db.Sync()
}

// Close syncs and releases the database. Safe to call more than once.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}

	j.logger.Info("closing journal", "records", j.seq.Load())
	if err := j.db.Sync(); err != nil {
		j.logger.Warn("sync before close failed", "error", err.Error())
	}
	return j.db.Close()
}
