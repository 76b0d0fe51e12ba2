// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/curatarr/curatarr/internal/config"
	"github.com/curatarr/curatarr/internal/ledger"
	"github.com/curatarr/curatarr/internal/models"
)

// keyPrefix namespaces candidate records inside the Badger keyspace, leaving
// room for future record kinds in the same database.
const keyPrefix = "candidate:"

// Store is the Badger-backed CandidateStore. Owner and library names must
// not contain ':'; the config layer rejects them before a Store is opened.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the candidate database.
func Open(cfg *config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(newBadgerLogger())
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open candidate store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GC runs one value-log garbage collection pass. Badger returns
// ErrNoRewrite when there was nothing to collect; that is not an error for
// callers.
func (s *Store) GC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

func recordKey(owner, library, ratingKey string) []byte {
	return []byte(keyPrefix + owner + ":" + library + ":" + ratingKey)
}

// scanPrefix returns the narrowest key prefix the filter allows. Status and
// identity-set restrictions always apply in-memory after decode.
func scanPrefix(f ledger.CandidateFilter) []byte {
	if f.Owner == "" {
		return []byte(keyPrefix)
	}
	if f.Library == "" {
		return []byte(keyPrefix + f.Owner + ":")
	}
	return []byte(keyPrefix + f.Owner + ":" + f.Library + ":")
}

// Count returns how many records match the filter.
func (s *Store) Count(ctx context.Context, filter ledger.CandidateFilter) (int, error) {
	count := 0
	err := s.scan(ctx, filter, func(*models.CandidateRecord) {
		count++
	})
	return count, err
}

// Find returns every record matching the filter.
func (s *Store) Find(ctx context.Context, filter ledger.CandidateFilter) ([]models.CandidateRecord, error) {
	var out []models.CandidateRecord
	err := s.scan(ctx, filter, func(rec *models.CandidateRecord) {
		out = append(out, *rec)
	})
	return out, err
}

func (s *Store) scan(ctx context.Context, filter ledger.CandidateFilter, visit func(*models.CandidateRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix(filter)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var rec models.CandidateRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode candidate %s: %w", it.Item().Key(), err)
				}
				if filter.Matches(&rec) {
					visit(&rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns one record, or ledger.ErrNotFound.
func (s *Store) Get(_ context.Context, owner, library, ratingKey string) (*models.CandidateRecord, error) {
	var rec models.CandidateRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(owner, library, ratingKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a new record; an existing identity is an error.
func (s *Store) Create(_ context.Context, rec *models.CandidateRecord) error {
	key := recordKey(rec.Owner, rec.Library, rec.RatingKey)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("candidate %s already exists", rec.Key())
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setRecord(txn, key, rec)
	})
}

// Update writes rec while the stored record still has the expected status.
// The read and write share one transaction, so the condition cannot race a
// concurrent cycle.
func (s *Store) Update(_ context.Context, rec *models.CandidateRecord, ifStatus models.CandidateStatus) (bool, error) {
	applied := false
	key := recordKey(rec.Owner, rec.Library, rec.RatingKey)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}

		var current models.CandidateRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &current)
		}); err != nil {
			return err
		}
		if current.Status != ifStatus {
			return nil
		}

		applied = true
		return setRecord(txn, key, rec)
	})
	return applied, err
}

// Upsert writes rec unconditionally.
func (s *Store) Upsert(_ context.Context, rec *models.CandidateRecord) error {
	key := recordKey(rec.Owner, rec.Library, rec.RatingKey)
	return s.db.Update(func(txn *badger.Txn) error {
		return setRecord(txn, key, rec)
	})
}

// Delete removes one record. Deleting an absent record is a no-op.
func (s *Store) Delete(_ context.Context, owner, library, ratingKey string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(owner, library, ratingKey))
	})
}

// DeleteMany removes every record matching the filter and returns how many
// went.
func (s *Store) DeleteMany(ctx context.Context, filter ledger.CandidateFilter) (int, error) {
	var matched []models.CandidateRecord
	if err := s.scan(ctx, filter, func(rec *models.CandidateRecord) {
		matched = append(matched, *rec)
	}); err != nil {
		return 0, err
	}

	deleted := 0
	for _, rec := range matched {
		if err := s.Delete(ctx, rec.Owner, rec.Library, rec.RatingKey); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func setRecord(txn *badger.Txn, key []byte, rec *models.CandidateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode candidate %s: %w", rec.Key(), err)
	}
	return txn.Set(key, data)
}

var _ ledger.CandidateStore = (*Store)(nil)
