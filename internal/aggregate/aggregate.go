// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate assembles the final result set of a run: duplicate URLs
// are collapsed before scoring, scored results are partitioned around the
// minimum-score threshold, survivors are ordered for presentation, and
// thin source categories are flagged as coverage gaps.
package aggregate

import (
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// Gap flags a source category that produced fewer surviving results than
// the profile requires.
type Gap struct {
	// Category is the source category name.
	Category string `json:"category" yaml:"category"`

	// Found is the number of surviving results in the category.
	Found int `json:"found" yaml:"found"`

	// Want is the category's configured minimum.
	Want int `json:"want" yaml:"want"`
}

// Summary is the aggregated output of a run.
type Summary struct {
	// Results are the surviving results, ordered by trust tier, then score
	// descending, then discovery position.
	Results []types.ScoredResult `json:"results" yaml:"results"`

	// Excluded are results scored below the minimum, kept for inspection.
	Excluded []types.ScoredResult `json:"excluded,omitempty" yaml:"excluded,omitempty"`

	// Gaps lists under-covered source categories.
	Gaps []Gap `json:"gaps,omitempty" yaml:"gaps,omitempty"`
}

// Partition is one category's slice of the ordered survivors.
type Partition struct {
	// Category is the source category name.
	Category string

	// Results keep their global ordering from Summary.Results.
	Results []types.ScoredResult
}

// ByCategory splits the surviving results into per-category partitions.
// Partitions appear in the order their best result ranks globally, and
// each partition preserves the global result ordering.
func (s Summary) ByCategory() []Partition {
	index := make(map[string]int)
	var parts []Partition
	for _, r := range s.Results {
		i, ok := index[r.Category]
		if !ok {
			i = len(parts)
			index[r.Category] = i
			parts = append(parts, Partition{Category: r.Category})
		}
		parts[i].Results = append(parts[i].Results, r)
	}
	return parts
}

// NormalizeURL reduces a URL to its identity key for deduplication: scheme
// and fragment are dropped, the query string is dropped, the host is
// lowercased with a leading "www." removed, and a trailing slash on the
// path is trimmed. Unparseable URLs normalize to themselves.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.Path, "/")
	return host + path
}

// Dedup collapses results that share a normalized URL, keeping the
// first-seen occurrence. The second return is the number of duplicates
// dropped. Dedup runs before scoring so duplicate pages are never fetched
// or scored twice.
func Dedup(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]struct{}, len(results))
	out := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(results) - len(out)
}

// Aggregate partitions scored results around the profile's minimum score,
// orders the survivors, and computes coverage gaps over the survivors.
func Aggregate(prof *profile.Profile, scored []types.ScoredResult) Summary {
	var s Summary
	for _, r := range scored {
		if r.Score.Value < prof.MinScore {
			s.Excluded = append(s.Excluded, r)
			continue
		}
		s.Results = append(s.Results, r)
	}

	sortResults(s.Results)
	sortResults(s.Excluded)
	s.Gaps = coverageGaps(prof, s.Results)
	return s
}

// sortResults orders results by trust tier ascending, score descending,
// and discovery position as the final tiebreaker.
func sortResults(results []types.ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Score.Value != b.Score.Value {
			return a.Score.Value > b.Score.Value
		}
		return a.Position < b.Position
	})
}

// coverageGaps counts surviving results per category and flags categories
// below their configured minimum. Gaps are sorted by category name.
func coverageGaps(prof *profile.Profile, results []types.ScoredResult) []Gap {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Category]++
	}

	var gaps []Gap
	for name, cat := range prof.Categories {
		if cat.MinResults <= 0 {
			continue
		}
		if found := counts[name]; found < cat.MinResults {
			gaps = append(gaps, Gap{Category: name, Found: found, Want: cat.MinResults})
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Category < gaps[j].Category })
	return gaps
}
