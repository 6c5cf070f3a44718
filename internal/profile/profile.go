// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile holds the static scoring profile: trusted-source categories,
// domain trust tiers, noise patterns, marker-extraction patterns, and score
// thresholds. The profile is loaded once at startup, validated, and passed
// explicitly into the analyzer, scorer, and aggregator.
package profile

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Tier is a domain trust tier.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
)

// Category describes one trusted-source category.
type Category struct {
	// Domains are site filters for discovery queries. An entry may include
	// a path prefix (e.g. "github.com/SigmaHQ/sigma").
	Domains []string `yaml:"domains,omitempty"`

	// QuerySuffix is appended to batched (tier 2) queries for the category.
	QuerySuffix string `yaml:"query_suffix,omitempty"`

	// Targeted enables per-domain (tier 1) queries for the category.
	Targeted bool `yaml:"targeted,omitempty"`

	// MinResults is the coverage-gap threshold: if fewer results survive
	// filtering the category is flagged as a gap.
	MinResults int `yaml:"min_results"`
}

// NoisePattern is a text signature of low-value content with its penalty.
type NoisePattern struct {
	// Category names the noise class (e.g. "marketing"). Penalties within
	// one text scope are capped at the single worst match.
	Category string `yaml:"category"`

	// Pattern is a regular expression tested against URL, title, and content.
	Pattern string `yaml:"pattern"`

	// Penalty is the score adjustment, always negative.
	Penalty float64 `yaml:"penalty"`

	re *regexp.Regexp
}

// Matches reports whether the compiled pattern matches text. Validate must
// have been called on the owning profile first.
func (n NoisePattern) Matches(text string) bool {
	return n.re != nil && n.re.MatchString(text)
}

// Weights are the positive-signal contributions of the scorer.
type Weights struct {
	TitleID       float64 `yaml:"title_id"`
	TitleName     float64 `yaml:"title_name"`
	SnippetID     float64 `yaml:"snippet_id"`
	SnippetName   float64 `yaml:"snippet_name"`
	URLPathID     float64 `yaml:"url_path_id"`
	CitedDomain   float64 `yaml:"cited_domain"`
	TierHigh      float64 `yaml:"tier_high"`
	TierMedium    float64 `yaml:"tier_medium"`
	DepthLongForm float64 `yaml:"depth_long_form"`
	DepthStandard float64 `yaml:"depth_standard"`
	CodeBlocks    float64 `yaml:"code_blocks"`
	ManyMarkers   float64 `yaml:"many_markers"`
	SomeMarkers   float64 `yaml:"some_markers"`
}

// Cutoffs are the score thresholds for the qualitative labels.
type Cutoffs struct {
	Strong   float64 `yaml:"strong"`
	Likely   float64 `yaml:"likely"`
	Possible float64 `yaml:"possible"`
}

// Sources configures the discovery providers.
type Sources struct {
	// SearchBaseURL is the HTML search endpoint queried for web results.
	SearchBaseURL string `yaml:"search_base_url"`

	// AttackBaseURL is the knowledge-base root for technique lookups.
	AttackBaseURL string `yaml:"attack_base_url"`

	// ReportsRepo/ReportsBranch/ReportsPath locate the published-reports
	// repository scanned for existing coverage.
	ReportsRepo   string `yaml:"reports_repo"`
	ReportsBranch string `yaml:"reports_branch"`
	ReportsPath   string `yaml:"reports_path"`

	// AtomicsRepo/AtomicsBranch locate the YAML test repository.
	AtomicsRepo   string `yaml:"atomics_repo"`
	AtomicsBranch string `yaml:"atomics_branch"`

	// Feeds lists security-blog RSS/Atom feeds scanned for technique mentions.
	Feeds []string `yaml:"feeds,omitempty"`
}

// Profile is the full static configuration for a run.
type Profile struct {
	Categories  map[string]Category `yaml:"categories"`
	DomainTiers map[string]Tier     `yaml:"domain_tiers"`
	Noise       []NoisePattern      `yaml:"noise_patterns"`
	Weights     Weights             `yaml:"weights"`
	Cutoffs     Cutoffs             `yaml:"cutoffs"`

	// MinScore excludes results below it from the primary partitions.
	MinScore float64 `yaml:"min_score"`

	// MarkerPatterns maps marker categories to their extraction regexes.
	MarkerPatterns map[string][]string `yaml:"marker_patterns"`

	// ProcessNoise lists executable names filtered out of process markers.
	ProcessNoise []string `yaml:"process_noise,omitempty"`

	// ThreatActorPattern matches threat group and campaign names.
	ThreatActorPattern string `yaml:"threat_actor_pattern"`

	// EmptyFloor and LowThreshold are the word-count boundaries of the
	// empty and low analysis confidences.
	EmptyFloor   int `yaml:"empty_floor"`
	LowThreshold int `yaml:"low_threshold"`

	// JSRenderedDomains lists domains whose pages need a JS-capable fetcher.
	// Carried as data for collaborators; the core never renders pages.
	JSRenderedDomains []string `yaml:"js_rendered_domains,omitempty"`

	Sources Sources `yaml:"sources"`

	processNoise map[string]struct{}
}

// Load returns the built-in profile, or the built-in profile overridden by
// the YAML file at path when path is non-empty. Top-level keys in the file
// replace the corresponding defaults; map-valued sections merge per key.
// The returned profile is validated.
func Load(path string) (*Profile, error) {
	p := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", path, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// Validate checks the profile and compiles its patterns. Scoring cannot
// proceed with an invalid profile, so callers treat an error as fatal.
func (p *Profile) Validate() error {
	if len(p.Categories) == 0 {
		return fmt.Errorf("no source categories configured")
	}
	if !(p.Cutoffs.Strong > p.Cutoffs.Likely && p.Cutoffs.Likely > p.Cutoffs.Possible && p.Cutoffs.Possible > 0) {
		return fmt.Errorf("score cutoffs must be strictly ordered: strong > likely > possible > 0 (got %.0f/%.0f/%.0f)",
			p.Cutoffs.Strong, p.Cutoffs.Likely, p.Cutoffs.Possible)
	}
	if p.MinScore < 0 || p.MinScore > 100 {
		return fmt.Errorf("min_score %.1f out of range [0, 100]", p.MinScore)
	}
	if p.EmptyFloor <= 0 || p.LowThreshold <= p.EmptyFloor {
		return fmt.Errorf("word-count thresholds must satisfy 0 < empty_floor < low_threshold (got %d/%d)",
			p.EmptyFloor, p.LowThreshold)
	}

	for i := range p.Noise {
		n := &p.Noise[i]
		if n.Category == "" {
			return fmt.Errorf("noise pattern %d has no category", i)
		}
		if n.Penalty >= 0 {
			return fmt.Errorf("noise pattern %q: penalty must be negative, got %.1f", n.Category, n.Penalty)
		}
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return fmt.Errorf("noise pattern %q: %w", n.Category, err)
		}
		n.re = re
	}

	if len(p.MarkerPatterns) == 0 {
		return fmt.Errorf("no marker patterns configured")
	}
	for cat, patterns := range p.MarkerPatterns {
		for _, pat := range patterns {
			if _, err := regexp.Compile(pat); err != nil {
				return fmt.Errorf("marker pattern %s: %w", cat, err)
			}
		}
	}
	if p.ThreatActorPattern != "" {
		if _, err := regexp.Compile(p.ThreatActorPattern); err != nil {
			return fmt.Errorf("threat actor pattern: %w", err)
		}
	}

	p.processNoise = make(map[string]struct{}, len(p.ProcessNoise))
	for _, name := range p.ProcessNoise {
		p.processNoise[strings.ToLower(name)] = struct{}{}
	}
	return nil
}

// HasCategory reports whether name is a configured source category.
func (p *Profile) HasCategory(name string) bool {
	_, ok := p.Categories[name]
	return ok
}

// TierOf returns the trust tier for a domain by exact match, after stripping
// a leading "www.". The second return is false for untiered domains.
func (p *Profile) TierOf(domain string) (Tier, bool) {
	d := strings.ToLower(strings.TrimPrefix(domain, "www."))
	t, ok := p.DomainTiers[d]
	return t, ok
}

// IsNoiseProcess reports whether an executable name is in the process noise
// set. Validate must have been called first.
func (p *Profile) IsNoiseProcess(name string) bool {
	_, ok := p.processNoise[strings.ToLower(name)]
	return ok
}
