// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/curatarr/curatarr/internal/models"
)

// fakeCatalog is an in-memory, immediately consistent Catalog. Tests flip
// its failure knobs to exercise the non-fatal per-item paths.
type fakeCatalog struct {
	mu sync.Mutex

	nextID      int
	collections map[string]*fakeCollection
	items       map[string]*models.ItemMetadata

	hubOrder   []string // hub identifiers, index 0 is the top row
	visibility map[string]models.Visibility

	deletedParts []string
	posters      map[string][]byte
	backgrounds  map[string][]byte

	// Failure knobs.
	failAddItems   map[string]bool // itemID -> AddMember fails
	failMoveItems  map[string]bool // itemID -> MoveMember fails
	failDeleteColl bool
	failSeeded     bool // seeded CreateCollection fails
	echoIdentity   bool // echo new collection id from CreateCollection
	hubless        map[string]bool // collectionID -> hub never materializes
}

type fakeCollection struct {
	id       string
	title    string
	members  []models.ItemRef
	sortMode string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		collections:   make(map[string]*fakeCollection),
		items:         make(map[string]*models.ItemMetadata),
		visibility:    make(map[string]models.Visibility),
		posters:       make(map[string][]byte),
		backgrounds:   make(map[string][]byte),
		failAddItems:  make(map[string]bool),
		failMoveItems: make(map[string]bool),
		hubless:       make(map[string]bool),
		echoIdentity:  true,
	}
}

func (f *fakeCatalog) addCollection(title string, members ...models.ItemRef) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCollectionLocked(title, members...)
}

func (f *fakeCatalog) addCollectionLocked(title string, members ...models.ItemRef) string {
	f.nextID++
	id := strconv.Itoa(1000 + f.nextID)
	f.collections[id] = &fakeCollection{id: id, title: title, members: append([]models.ItemRef(nil), members...)}
	f.hubOrder = append(f.hubOrder, hubIdentifier(id))
	return id
}

func hubIdentifier(collectionID string) string {
	return "custom-collection-" + collectionID
}

func (f *fakeCatalog) memberKeys(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.collections[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(coll.members))
	for _, m := range coll.members {
		keys = append(keys, m.RatingKey)
	}
	return keys
}

func (f *fakeCatalog) ListCollections(_ context.Context, _ string) ([]models.CollectionRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var refs []models.CollectionRef
	for _, c := range f.collections {
		refs = append(refs, models.CollectionRef{RatingKey: c.id, Title: c.title})
	}
	return refs, nil
}

func (f *fakeCatalog) FindCollectionByName(_ context.Context, _, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.collections {
		if c.title == name {
			return c.id, nil
		}
	}
	return "", nil
}

func (f *fakeCatalog) CreateCollection(_ context.Context, _, name, _, seedItemID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if seedItemID != "" && f.failSeeded {
		return "", fmt.Errorf("seeded create rejected")
	}

	var members []models.ItemRef
	if seedItemID != "" {
		members = append(members, models.ItemRef{RatingKey: seedItemID, Title: "seed-" + seedItemID})
	}
	id := f.addCollectionLocked(name, members...)
	if !f.echoIdentity {
		return "", nil
	}
	return id, nil
}

func (f *fakeCatalog) DeleteCollection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteColl {
		return fmt.Errorf("delete rejected")
	}
	delete(f.collections, id)
	hub := hubIdentifier(id)
	for i, h := range f.hubOrder {
		if h == hub {
			f.hubOrder = append(f.hubOrder[:i], f.hubOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeCatalog) GetMembers(_ context.Context, id string) ([]models.ItemRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", id)
	}
	return append([]models.ItemRef(nil), coll.members...), nil
}

func (f *fakeCatalog) AddMember(_ context.Context, id, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddItems[itemID] {
		return fmt.Errorf("add rejected for %s", itemID)
	}
	coll, ok := f.collections[id]
	if !ok {
		return fmt.Errorf("collection %s not found", id)
	}
	for _, m := range coll.members {
		if m.RatingKey == itemID {
			return nil
		}
	}
	title := "item-" + itemID
	if meta, ok := f.items[itemID]; ok {
		title = meta.Title
	}
	coll.members = append(coll.members, models.ItemRef{RatingKey: itemID, Title: title})
	return nil
}

func (f *fakeCatalog) RemoveMember(_ context.Context, id, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.collections[id]
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

func (f *fakeCatalog) SetSortMode(_ context.Context, id, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	coll, ok := f.collections[id]
	if !ok {
		return fmt.Errorf("collection %s not found", id)
	}
	coll.sortMode = mode
	return nil
}

func (f *fakeCatalog) MoveMember(_ context.Context, id, itemID, afterItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMoveItems[itemID] {
		return fmt.Errorf("move rejected for %s", itemID)
	}
	coll, ok := f.collections[id]
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

func (f *fakeCatalog) SetVisibility(_ context.Context, _, id string, vis models.Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibility[id] = vis
	return nil
}

func (f *fakeCatalog) GetHubIdentifier(_ context.Context, _, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hubless[id] {
		return "", nil
	}
	if _, ok := f.collections[id]; !ok {
		return "", nil
	}
	return hubIdentifier(id), nil
}

func (f *fakeCatalog) MoveHub(_ context.Context, _, hubID, afterHubID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, h := range f.hubOrder {
		if h == hubID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("hub %s not found", hubID)
	}
	moved := f.hubOrder[idx]
	f.hubOrder = append(f.hubOrder[:idx], f.hubOrder[idx+1:]...)

	if afterHubID == "" {
		f.hubOrder = append([]string{moved}, f.hubOrder...)
		return nil
	}
	for i, h := range f.hubOrder {
		if h == afterHubID {
			rest := append([]string{moved}, f.hubOrder[i+1:]...)
			f.hubOrder = append(f.hubOrder[:i+1], rest...)
			return nil
		}
	}
	return fmt.Errorf("anchor hub %s not found", afterHubID)
}

func (f *fakeCatalog) GetItemMetadata(_ context.Context, itemID string) (*models.ItemMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s not found", itemID)
	}
	clone := *meta
	clone.Copies = append([]models.MediaCopy(nil), meta.Copies...)
	return &clone, nil
}

func (f *fakeCatalog) DeleteCopy(_ context.Context, partID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedParts = append(f.deletedParts, partID)
	return nil
}

func (f *fakeCatalog) UploadPoster(_ context.Context, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posters[id] = data
	return nil
}

func (f *fakeCatalog) UploadArt(_ context.Context, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backgrounds[id] = data
	return nil
}

var _ Catalog = (*fakeCatalog)(nil)
