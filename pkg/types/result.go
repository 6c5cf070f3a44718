// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Query tiers record the provenance of the query that discovered a result.
// Tier 1 is a targeted per-domain query; tier 2 is a batched query across a
// category's domains. The aggregator sorts tier 1 ahead of tier 2.
const (
	Tier1 = 1
	Tier2 = 2
)

// FetchStatus classifies the outcome of a page fetch attempt.
type FetchStatus string

const (
	// FetchOK means the fetch succeeded and body text is available.
	FetchOK FetchStatus = "ok"

	// FetchHTTPError means the server responded with a 4xx/5xx status.
	FetchHTTPError FetchStatus = "http_error"

	// FetchTimeout means the request timed out or the connection failed.
	FetchTimeout FetchStatus = "timeout"

	// FetchSkipped means enrichment was disabled and no fetch was attempted.
	FetchSkipped FetchStatus = "skipped"
)

// SearchResult is one discovered source for a technique.
type SearchResult struct {
	// URL is the source location, unique within a run after deduplication.
	URL string `json:"url" yaml:"url"`

	// Title is the page or document title. May be empty for bare links.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the search-engine snippet or meta description.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Domain is the registered host the URL points at.
	Domain string `json:"domain" yaml:"domain"`

	// Category is the trusted-source category that produced this result.
	// It must be a key in the active profile's category set; results with
	// unknown categories are dropped before scoring.
	Category string `json:"category" yaml:"category"`

	// Tier is the query provenance: Tier1 or Tier2.
	Tier int `json:"tier" yaml:"tier"`

	// Position is the discovery order within the run, assigned once after
	// provider fan-out. It is the stable tie-breaker in the final sort.
	Position int `json:"position" yaml:"position"`
}

// ScoredResult is a SearchResult with its derived analysis and score.
// Analysis is nil when content enrichment was disabled for the run.
type ScoredResult struct {
	SearchResult

	Analysis *ContentAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Score    Score            `json:"score" yaml:"score"`
}
