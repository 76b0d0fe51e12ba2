// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curatarr/config.yaml",
	"/etc/curatarr/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config file: optional YAML file
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// PLEX_URL -> plex.url, CURATION_MAX_POINTS -> curation.max_points
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths. Returns the
// first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"curation.hub_order",
	"consolidation.collections",
	"consolidation.preserve_terms",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, preventing random environment
// variables from polluting the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Plex mappings
		"plex_url":                  "plex.url",
		"plex_token":                "plex.token",
		"plex_movie_library":        "plex.movie_library",
		"plex_tv_library":           "plex.tv_library",
		"plex_read_timeout":         "plex.read_timeout",
		"plex_mutate_timeout":       "plex.mutate_timeout",
		"plex_list_timeout":         "plex.list_timeout",
		"plex_mutations_per_second": "plex.mutations_per_second",

		// Curation mappings
		"curation_enabled":          "curation.enabled",
		"curation_interval":         "curation.interval",
		"curation_run_on_startup":   "curation.run_on_startup",
		"curation_owner":            "curation.owner",
		"curation_collection_name":  "curation.collection_name",
		"curation_suggestions_file": "curation.suggestions_file",
		"curation_max_points":       "curation.max_points",
		"curation_randomize":        "curation.randomize",
		"curation_hub_order":        "curation.hub_order",
		"curation_pin_target":       "curation.pin_target",
		"curation_assets_dir":       "curation.assets_dir",

		// Consolidation mappings
		"consolidation_enabled":           "consolidation.enabled",
		"consolidation_interval":          "consolidation.interval",
		"consolidation_dry_run":           "consolidation.dry_run",
		"consolidation_library":           "consolidation.library",
		"consolidation_collections":       "consolidation.collections",
		"consolidation_delete_preference": "consolidation.delete_preference",
		"consolidation_preserve_terms":    "consolidation.preserve_terms",

		// Store mappings
		"store_path":            "store.path",
		"store_in_memory":       "store.in_memory",
		"store_backup_dir":      "store.backup_dir",
		"store_backup_interval": "store.backup_interval",
		"store_backup_keep":     "store.backup_keep",

		// Server mappings
		"http_host": "server.host",
		"http_port": "server.port",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
