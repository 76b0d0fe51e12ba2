// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/curatarr/curatarr/internal/models"
)

// memStore is a map-backed CandidateStore for unit tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.CandidateRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.CandidateRecord)}
}

func memKey(owner, library, ratingKey string) string {
	return owner + ":" + library + ":" + ratingKey
}

func (s *memStore) Count(ctx context.Context, filter CandidateFilter) (int, error) {
	recs, err := s.Find(ctx, filter)
	return len(recs), err
}

func (s *memStore) Find(_ context.Context, filter CandidateFilter) ([]models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CandidateRecord
	for _, rec := range s.records {
		if filter.Matches(&rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, owner, library, ratingKey string) (*models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memKey(owner, library, ratingKey)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *memStore) Create(_ context.Context, rec *models.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Key()
	if _, exists := s.records[key]; exists {
		return fmt.Errorf("candidate %s already exists", key)
	}
	s.records[key] = *rec
	return nil
}

func (s *memStore) Update(_ context.Context, rec *models.CandidateRecord, ifStatus models.CandidateStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Key()
	current, ok := s.records[key]
	if !ok {
		return false, ErrNotFound
	}
	if current.Status != ifStatus {
		return false, nil
	}
	s.records[key] = *rec
	return true, nil
}

func (s *memStore) Upsert(_ context.Context, rec *models.CandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key()] = *rec
	return nil
}

func (s *memStore) Delete(_ context.Context, owner, library, ratingKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, memKey(owner, library, ratingKey))
	return nil
}

func (s *memStore) DeleteMany(_ context.Context, filter CandidateFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, rec := range s.records {
		if filter.Matches(&rec) {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

var _ CandidateStore = (*memStore)(nil)
