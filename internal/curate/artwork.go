// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/curatarr/curatarr/internal/logging"
)

const (
	artworkAttempts = 3
	artworkInterval = 500 * time.Millisecond
)

// ArtworkStore maps a collection's semantic identity to local poster and
// background images. Files are looked up under posters/ and backgrounds/
// subdirectories as {slug}.png with a JPG fallback.
type ArtworkStore struct {
	dir string
}

// NewArtworkStore creates a store over a local asset directory. An empty dir
// returns nil; callers treat a nil store as "no artwork configured".
func NewArtworkStore(dir string) *ArtworkStore {
	if dir == "" {
		return nil
	}
	return &ArtworkStore{dir: dir}
}

// Apply uploads any artwork found for the collection's base name.
// Best-effort: missing files and failed uploads are logged, never returned.
func (a *ArtworkStore) Apply(ctx context.Context, catalog Catalog, collectionID, name string) {
	slug := artworkSlug(name)
	log := logging.With().Str("collection", name).Str("slug", slug).Logger()

	if data := a.read("posters", slug); data != nil {
		uploadWithRetry(ctx, log, "poster", func() error {
			return catalog.UploadPoster(ctx, collectionID, data)
		})
	}
	if data := a.read("backgrounds", slug); data != nil {
		uploadWithRetry(ctx, log, "background", func() error {
			return catalog.UploadArt(ctx, collectionID, data)
		})
	}
}

// read returns the named asset's bytes, trying .png then .jpg, or nil.
func (a *ArtworkStore) read(subdir, stem string) []byte {
	for _, ext := range []string{".png", ".jpg"} {
		data, err := os.ReadFile(filepath.Join(a.dir, subdir, stem+ext))
		if err == nil && len(data) > 0 {
			return data
		}
	}
	return nil
}

func uploadWithRetry(ctx context.Context, log zerolog.Logger, kind string, upload func() error) {
	var err error
	for attempt := 0; attempt < artworkAttempts; attempt++ {
		if err = upload(); err == nil {
			log.Debug().Str("kind", kind).Msg("Artwork uploaded")
			return
		}
		if sleepCtx(ctx, artworkInterval) != nil {
			return
		}
	}
	log.Warn().Err(err).Str("kind", kind).Msg("Artwork upload failed")
}

// artworkSlug derives the asset filename stem from a collection's base name:
// "Recently Watched (Alice)" -> "recently-watched".
func artworkSlug(name string) string {
	base, _ := splitSuffix(name)
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(strings.Join(strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' }), "-"), "-")
}
