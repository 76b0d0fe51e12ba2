// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/curatarr/curatarr/internal/curate"
	"github.com/curatarr/curatarr/internal/ledger"
	"github.com/curatarr/curatarr/internal/models"
)

// memStore is a map-backed CandidateStore for service-level tests.
type memStore struct {
	mu   sync.Mutex
	recs map[string]models.CandidateRecord
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]models.CandidateRecord)}
}

func (m *memStore) Count(ctx context.Context, filter ledger.CandidateFilter) (int, error) {
	recs, err := m.Find(ctx, filter)
	return len(recs), err
}

func (m *memStore) Find(_ context.Context, filter ledger.CandidateFilter) ([]models.CandidateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CandidateRecord
	for _, rec := range m.recs {
		rec := rec
		if filter.Matches(&rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, owner, library, ratingKey string) (*models.CandidateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[owner+":"+library+":"+ratingKey]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) Create(_ context.Context, rec *models.CandidateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.Key()
	if _, exists := m.recs[key]; exists {
		return fmt.Errorf("candidate %s already exists", key)
	}
	m.recs[key] = *rec
	return nil
}

func (m *memStore) Update(_ context.Context, rec *models.CandidateRecord, ifStatus models.CandidateStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.Key()
	stored, ok := m.recs[key]
	if !ok {
		return false, ledger.ErrNotFound
	}
	if stored.Status != ifStatus {
		return false, nil
	}
	m.recs[key] = *rec
	return true, nil
}

func (m *memStore) Upsert(_ context.Context, rec *models.CandidateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.Key()] = *rec
	return nil
}

func (m *memStore) Delete(_ context.Context, owner, library, ratingKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, owner+":"+library+":"+ratingKey)
	return nil
}

func (m *memStore) DeleteMany(ctx context.Context, filter ledger.CandidateFilter) (int, error) {
	recs, err := m.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		delete(m.recs, rec.Key())
	}
	return len(recs), nil
}

var _ ledger.CandidateStore = (*memStore)(nil)

// svcCatalog is an immediately consistent in-memory catalog for wiring-level
// tests. Engine edge cases live in the curate package tests; this fake only
// needs to be well-behaved.
type svcCatalog struct {
	mu sync.Mutex

	nextID      int
	collections map[string]*svcCollection
	items       map[string]*models.ItemMetadata

	hubOrder     []string
	visibility   map[string]models.Visibility
	deletedParts []string
}

type svcCollection struct {
	id      string
	title   string
	members []models.ItemRef
}

func newSvcCatalog() *svcCatalog {
	return &svcCatalog{
		collections: make(map[string]*svcCollection),
		items:       make(map[string]*models.ItemMetadata),
		visibility:  make(map[string]models.Visibility),
	}
}

func (c *svcCatalog) addItem(meta *models.ItemMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[meta.RatingKey] = meta
}

func (c *svcCatalog) addCollection(title string, members ...models.ItemRef) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCollectionLocked(title, members...)
}

func (c *svcCatalog) addCollectionLocked(title string, members ...models.ItemRef) string {
	c.nextID++
	id := strconv.Itoa(5000 + c.nextID)
	c.collections[id] = &svcCollection{id: id, title: title, members: append([]models.ItemRef(nil), members...)}
	c.hubOrder = append(c.hubOrder, "custom-collection-"+id)
	return id
}

func (c *svcCatalog) memberKeys(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, ok := c.collections[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(coll.members))
	for _, m := range coll.members {
		keys = append(keys, m.RatingKey)
	}
	return keys
}

func (c *svcCatalog) collectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.collections)
}

func (c *svcCatalog) ListCollections(_ context.Context, _ string) ([]models.CollectionRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var refs []models.CollectionRef
	for _, coll := range c.collections {
		refs = append(refs, models.CollectionRef{RatingKey: coll.id, Title: coll.title})
	}
	return refs, nil
}

func (c *svcCatalog) FindCollectionByName(_ context.Context, _, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, coll := range c.collections {
		if coll.title == name {
			return coll.id, nil
		}
	}
	return "", nil
}

func (c *svcCatalog) CreateCollection(_ context.Context, _, name, _, seedItemID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var members []models.ItemRef
	if seedItemID != "" {
		title := "item-" + seedItemID
		if meta, ok := c.items[seedItemID]; ok {
			title = meta.Title
		}
		members = append(members, models.ItemRef{RatingKey: seedItemID, Title: title})
	}
	return c.addCollectionLocked(name, members...), nil
}

func (c *svcCatalog) DeleteCollection(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.collections, id)
	return nil
}

func (c *svcCatalog) GetMembers(_ context.Context, id string) ([]models.ItemRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, ok := c.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", id)
	}
	return append([]models.ItemRef(nil), coll.members...), nil
}

func (c *svcCatalog) AddMember(_ context.Context, id, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, ok := c.collections[id]
	if !ok {
		return fmt.Errorf("collection %s not found", id)
	}
	for _, m := range coll.members {
		if m.RatingKey == itemID {
			return nil
		}
	}
	title := "item-" + itemID
	if meta, ok := c.items[itemID]; ok {
		title = meta.Title
	}
	coll.members = append(coll.members, models.ItemRef{RatingKey: itemID, Title: title})
	return nil
}

func (c *svcCatalog) RemoveMember(_ context.Context, id, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, ok := c.collections[id]
	if !ok {
		return fmt.Errorf("collection %s not found", id)
	}
	for i, m := range coll.members {
		if m.RatingKey == itemID {
			coll.members = append(coll.members[:i], coll.members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %s not a member", itemID)
}

func (c *svcCatalog) SetSortMode(_ context.Context, id, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.collections[id]; !ok {
		return fmt.Errorf("collection %s not found", id)
	}
	return nil
}

func (c *svcCatalog) MoveMember(_ context.Context, id, itemID, afterItemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, ok := c.collections[id]
	if !ok {
		return fmt.Errorf("collection %s not found", id)
	}

	idx := -1
	for i, m := range coll.members {
		if m.RatingKey == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("item %s not a member", itemID)
	}
	moved := coll.members[idx]
	coll.members = append(coll.members[:idx], coll.members[idx+1:]...)

	if afterItemID == "" {
		coll.members = append([]models.ItemRef{moved}, coll.members...)
		return nil
	}
	for i, m := range coll.members {
		if m.RatingKey == afterItemID {
			rest := append([]models.ItemRef{moved}, coll.members[i+1:]...)
			coll.members = append(coll.members[:i+1], rest...)
			return nil
		}
	}
	return fmt.Errorf("anchor %s not a member", afterItemID)
}

func (c *svcCatalog) SetVisibility(_ context.Context, _, id string, vis models.Visibility) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility[id] = vis
	return nil
}

func (c *svcCatalog) GetHubIdentifier(_ context.Context, _, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.collections[id]; !ok {
		return "", nil
	}
	return "custom-collection-" + id, nil
}

func (c *svcCatalog) MoveHub(_ context.Context, _, hubID, afterHubID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, h := range c.hubOrder {
		if h == hubID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("hub %s not found", hubID)
	}
	moved := c.hubOrder[idx]
	c.hubOrder = append(c.hubOrder[:idx], c.hubOrder[idx+1:]...)

	if afterHubID == "" {
		c.hubOrder = append([]string{moved}, c.hubOrder...)
		return nil
	}
	for i, h := range c.hubOrder {
		if h == afterHubID {
			rest := append([]string{moved}, c.hubOrder[i+1:]...)
			c.hubOrder = append(c.hubOrder[:i+1], rest...)
			return nil
		}
	}
	return fmt.Errorf("anchor hub %s not found", afterHubID)
}

func (c *svcCatalog) GetItemMetadata(_ context.Context, itemID string) (*models.ItemMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s not found", itemID)
	}
	clone := *meta
	clone.Copies = append([]models.MediaCopy(nil), meta.Copies...)
	return &clone, nil
}

func (c *svcCatalog) DeleteCopy(_ context.Context, partID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletedParts = append(c.deletedParts, partID)
	return nil
}

func (c *svcCatalog) UploadPoster(_ context.Context, _ string, _ []byte) error { return nil }
func (c *svcCatalog) UploadArt(_ context.Context, _ string, _ []byte) error   { return nil }

var _ curate.Catalog = (*svcCatalog)(nil)
