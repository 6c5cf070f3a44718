// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScoreLabel is the qualitative band a numeric score falls into.
type ScoreLabel string

const (
	LabelStrongMatch    ScoreLabel = "strong_match"    // >= 60
	LabelLikelyRelevant ScoreLabel = "likely_relevant" // 40–59
	LabelPossibleMatch  ScoreLabel = "possible_match"  // 25–39
	LabelBelowThreshold ScoreLabel = "below_threshold" // < 25
)

// Penalty records one applied noise penalty for verbose output. Amount is
// negative.
type Penalty struct {
	// Category is the noise pattern's category name (e.g. "marketing").
	Category string `json:"category" yaml:"category"`

	// Scope is the text field the pattern matched: url, title, or content.
	Scope string `json:"scope" yaml:"scope"`

	// Amount is the penalty applied, always <= 0.
	Amount float64 `json:"amount" yaml:"amount"`
}

// Score is the relevance assessment for one result. Value is a pure function
// of the result's metadata, its optional content analysis, and the static
// profile; identical inputs always produce an identical Score.
type Score struct {
	// Value is the clamped relevance score in [0, 100].
	Value float64 `json:"value" yaml:"value"`

	// Label is derived from Value via the profile's cutoffs.
	Label ScoreLabel `json:"label" yaml:"label"`

	// Penalties lists the applied noise penalties. Only populated in
	// verbose mode; informational, not used downstream.
	Penalties []Penalty `json:"penalties,omitempty" yaml:"penalties,omitempty"`
}
