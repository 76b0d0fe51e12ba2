// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateCuration(); err != nil {
		return err
	}
	if err := c.validateConsolidation(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePlex() error {
	if !c.Curation.Enabled && !c.Consolidation.Enabled {
		return nil // nothing talks to Plex
	}

	if c.Plex.URL == "" {
		return fmt.Errorf("PLEX_URL is required when curation or consolidation is enabled")
	}
	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL"); err != nil {
		return err
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("PLEX_TOKEN is required when curation or consolidation is enabled")
	}
	if c.Plex.MutationsPerSecond < 0 {
		return fmt.Errorf("PLEX_MUTATIONS_PER_SECOND must not be negative")
	}
	return nil
}

func (c *Config) validateCuration() error {
	if !c.Curation.Enabled {
		return nil
	}

	if c.Curation.Owner == "" {
		return fmt.Errorf("CURATION_OWNER is required when CURATION_ENABLED=true")
	}
	if c.Curation.CollectionName == "" {
		return fmt.Errorf("CURATION_COLLECTION_NAME must not be empty")
	}
	if c.Curation.MaxPoints < 1 {
		return fmt.Errorf("CURATION_MAX_POINTS must be at least 1, got %d", c.Curation.MaxPoints)
	}
	if c.Curation.Interval <= 0 {
		return fmt.Errorf("CURATION_INTERVAL must be positive")
	}

	switch c.Curation.PinTarget {
	case "owner", "shared":
	default:
		return fmt.Errorf("CURATION_PIN_TARGET must be \"owner\" or \"shared\", got %q", c.Curation.PinTarget)
	}
	return nil
}

func (c *Config) validateConsolidation() error {
	if !c.Consolidation.Enabled {
		return nil
	}

	if c.Consolidation.Interval <= 0 {
		return fmt.Errorf("CONSOLIDATION_INTERVAL must be positive")
	}
	if len(c.Consolidation.Collections) == 0 {
		return fmt.Errorf("CONSOLIDATION_COLLECTIONS must name at least one collection to sweep when CONSOLIDATION_ENABLED=true")
	}

	switch c.Consolidation.DeletePreference {
	case "smallest_file", "largest_file", "newest", "oldest":
		// newest/oldest are accepted but degrade at run time
	default:
		return fmt.Errorf("CONSOLIDATION_DELETE_PREFERENCE must be one of smallest_file, largest_file, newest, oldest; got %q",
			c.Consolidation.DeletePreference)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be a valid level, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"json\" or \"console\", got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that the value parses as an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
