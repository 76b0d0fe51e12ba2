// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

// Package config provides layered configuration loading for Curatarr using
// Koanf v2: struct defaults, then an optional YAML file, then environment
// variables.
package config

import "time"

// Config is the complete application configuration.
type Config struct {
	Plex          PlexConfig          `koanf:"plex"`
	Curation      CurationConfig      `koanf:"curation"`
	Consolidation ConsolidationConfig `koanf:"consolidation"`
	Store         StoreConfig         `koanf:"store"`
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// PlexConfig holds connection settings for the Plex Media Server.
type PlexConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`

	// MovieLibrary and TVLibrary are the section titles the curation engine
	// operates on.
	MovieLibrary string `koanf:"movie_library"`
	TVLibrary    string `koanf:"tv_library"`

	// Per-operation timeouts. Reads are cheap, mutations slower, and full
	// collection listings can take a while on large libraries.
	ReadTimeout   time.Duration `koanf:"read_timeout"`
	MutateTimeout time.Duration `koanf:"mutate_timeout"`
	ListTimeout   time.Duration `koanf:"list_timeout"`

	// MutationsPerSecond throttles write operations so reconciliation does
	// not overwhelm the server. 0 disables throttling.
	MutationsPerSecond float64 `koanf:"mutations_per_second"`
}

// CurationConfig drives the supervised collection refresh loop.
type CurationConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	RunOnStartup bool          `koanf:"run_on_startup"`

	// Owner is the catalog user the candidate ledger is scoped to.
	Owner string `koanf:"owner"`

	// CollectionName is the ledger-driven collection maintained each cycle.
	CollectionName string `koanf:"collection_name"`

	// SuggestionsFile is a JSON file holding the cycle's suggested set,
	// produced by an external recommender. When unset, scoring cycles are
	// skipped and the collection is rebuilt from the current active set.
	SuggestionsFile string `koanf:"suggestions_file"`

	// MaxPoints is the interest score ceiling; an active candidate survives
	// exactly this many consecutive cycles without being re-suggested.
	MaxPoints int `koanf:"max_points"`

	// Randomize applies the three-tier shuffle to the desired order.
	Randomize bool `koanf:"randomize"`

	// HubOrder lists the curated collection family in desired home-screen
	// order. Empty disables hub pinning.
	HubOrder []string `koanf:"hub_order"`

	// PinTarget selects the promotion flags: "owner" or "shared".
	PinTarget string `koanf:"pin_target"`

	// AssetsDir holds collection artwork (posters/, backgrounds/).
	AssetsDir string `koanf:"assets_dir"`
}

// ConsolidationConfig drives the supervised duplicate-copy sweep.
type ConsolidationConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	DryRun   bool          `koanf:"dry_run"`

	// Library is the section the sweep operates on. Empty falls back to
	// the Plex movie library.
	Library string `koanf:"library"`

	// Collections names the collections whose members are swept for
	// duplicate copies each interval.
	Collections []string `koanf:"collections"`

	// DeletePreference for multi-copy movies: "smallest_file" or
	// "largest_file". "newest"/"oldest" degrade to "smallest_file" because
	// per-copy timestamps are not available from the catalog.
	DeletePreference string `koanf:"delete_preference"`

	// PreserveTerms are quality markers (matched case-insensitively against
	// resolution and filename) whose copies are preferred for keeping.
	PreserveTerms []string `koanf:"preserve_terms"`
}

// StoreConfig holds candidate ledger persistence settings.
type StoreConfig struct {
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Test use only.
	InMemory bool `koanf:"in_memory"`

	// BackupDir enables scheduled full backups when set.
	BackupDir      string        `koanf:"backup_dir"`
	BackupInterval time.Duration `koanf:"backup_interval"`

	// BackupKeep is how many backup files to retain. 0 keeps all.
	BackupKeep int `koanf:"backup_keep"`
}

// ServerConfig holds the observability listener settings (/healthz, /metrics).
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config struct with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			URL:                "",
			Token:              "",
			MovieLibrary:       "Movies",
			TVLibrary:          "TV Shows",
			ReadTimeout:        15 * time.Second,
			MutateTimeout:      30 * time.Second,
			ListTimeout:        60 * time.Second,
			MutationsPerSecond: 10,
		},
		Curation: CurationConfig{
			Enabled:         false, // opt-in
			Interval:        24 * time.Hour,
			RunOnStartup:    false,
			Owner:           "",
			CollectionName:  "Inspired by your Immaculate Taste",
			SuggestionsFile: "",
			MaxPoints:       50,
			Randomize:       true,
			HubOrder:        nil,
			PinTarget:       "owner",
			AssetsDir:       "/data/assets",
		},
		Consolidation: ConsolidationConfig{
			Enabled:          false, // opt-in, deletes media files
			Interval:         24 * time.Hour,
			DryRun:           true,  // destructive sweep defaults to dry run
			Library:          "",
			Collections:      nil,
			DeletePreference: "smallest_file",
			PreserveTerms:    nil,
		},
		Store: StoreConfig{
			Path:           "/data/curatarr",
			InMemory:       false,
			BackupDir:      "",
			BackupInterval: 24 * time.Hour,
			BackupKeep:     7,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9257,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
