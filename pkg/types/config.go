// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "source-triage/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for page fetching and content enrichment.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the fixed inter-request delay toward external hosts
	// (default 2s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// Workers bounds the number of concurrent page fetches (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// EnrichContent controls whether result pages are fetched and analyzed.
	// When false every result is scored on metadata alone.
	EnrichContent bool `json:"enrich_content" yaml:"enrich_content"`

	// ValidateLinks enables HEAD-request liveness checks when enrichment
	// is disabled.
	ValidateLinks bool `json:"validate_links" yaml:"validate_links"`
}

// CacheConfig holds settings for the file cache.
type CacheConfig struct {
	// Dir is the cache directory (default "output/.cache").
	Dir string `json:"dir" yaml:"dir"`

	// SearchTTL is the lifetime of cached search results (default 24h).
	SearchTTL time.Duration `json:"search_ttl" yaml:"search_ttl"`

	// LookupTTL is the lifetime of cached external-API lookups (default 168h).
	LookupTTL time.Duration `json:"lookup_ttl" yaml:"lookup_ttl"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Dir is the base directory for the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ResearchConfig groups all stage configurations for a research run.
type ResearchConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// ProfilePath optionally overrides the built-in scoring profile with a
	// YAML file.
	ProfilePath string `json:"profile_path,omitempty" yaml:"profile_path,omitempty"`

	// MaxResults caps the number of results kept per category (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RunTimeout bounds the whole run (default 10m).
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout"`
}
