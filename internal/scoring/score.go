// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes the relevance score of a discovered source for
// the technique under research. Scoring is a pure function of the result's
// metadata, its optional content analysis, and the static profile: no hidden
// state, no ordering dependence across results, so results may be scored in
// any order or in parallel.
package scoring

import (
	"net/url"
	"strings"

	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// Scorer scores results for one technique within one run.
type Scorer struct {
	prof    *profile.Profile
	id      string // lowercased technique ID
	name    string // lowercased short name, empty when unknown
	cited   map[string]struct{}
	verbose bool
}

// New returns a Scorer for the technique. citedDomains is the set of domains
// the external knowledge base itself cites for the technique; membership is
// a positive signal. With verbose set, applied penalties are recorded on
// each Score.
func New(prof *profile.Profile, tech types.Technique, citedDomains []string, verbose bool) *Scorer {
	cited := make(map[string]struct{}, len(citedDomains))
	for _, d := range citedDomains {
		cited[normalizeDomain(d)] = struct{}{}
	}
	return &Scorer{
		prof:    prof,
		id:      strings.ToLower(tech.ID),
		name:    strings.ToLower(tech.ShortName()),
		cited:   cited,
		verbose: verbose,
	}
}

// Score evaluates one result. content is the extracted page text when
// enrichment ran (used for content-scope noise checks); when empty the
// snippet stands in for it. analysis may be nil.
func (s *Scorer) Score(r types.SearchResult, analysis *types.ContentAnalysis, content string) types.Score {
	value := s.signalContributions(r)
	value += s.analysisBonus(analysis)

	penalties := s.noisePenalties(r, content)
	for _, p := range penalties {
		value += p.Amount
	}

	if value < 0 {
		value = 0
	} else if value > 100 {
		value = 100
	}

	score := types.Score{Value: value, Label: s.labelFor(value)}
	if s.verbose {
		score.Penalties = penalties
	}
	return score
}

// signalContributions sums the positive metadata signals, each evaluated
// independently.
func (s *Scorer) signalContributions(r types.SearchResult) float64 {
	w := s.prof.Weights
	title := strings.ToLower(r.Title)
	snippet := strings.ToLower(r.Snippet)

	var value float64
	if strings.Contains(title, s.id) {
		value += w.TitleID
	}
	if s.name != "" && strings.Contains(title, s.name) {
		value += w.TitleName
	}
	if strings.Contains(snippet, s.id) {
		value += w.SnippetID
	}
	if s.name != "" && strings.Contains(snippet, s.name) {
		value += w.SnippetName
	}
	if urlPathHasID(r.URL, s.id) {
		value += w.URLPathID
	}

	domain := normalizeDomain(r.Domain)
	if _, ok := s.cited[domain]; ok {
		value += w.CitedDomain
	}
	switch tier, _ := s.prof.TierOf(domain); tier {
	case profile.TierHigh:
		value += w.TierHigh
	case profile.TierMedium:
		value += w.TierMedium
	}
	return value
}

// analysisBonus adds the content-quality contributions when an analysis is
// present.
func (s *Scorer) analysisBonus(a *types.ContentAnalysis) float64 {
	if a == nil {
		return 0
	}
	w := s.prof.Weights

	var value float64
	switch a.Depth {
	case types.DepthLongForm:
		value += w.DepthLongForm
	case types.DepthStandard:
		value += w.DepthStandard
	}
	if a.CodeBlocks >= 2 {
		value += w.CodeBlocks
	}
	switch n := len(a.Markers); {
	case n >= 3:
		value += w.ManyMarkers
	case n >= 1:
		value += w.SomeMarkers
	}
	return value
}

// noisePenalties evaluates every noise pattern against the url, title, and
// content scopes and keeps the single worst match per scope. Penalties
// across scopes all apply: a bad URL pattern and bad content pattern
// compound, but many synonymous phrases in one title do not.
func (s *Scorer) noisePenalties(r types.SearchResult, content string) []types.Penalty {
	if content == "" {
		content = r.Snippet
	}
	scopes := []struct {
		name string
		text string
	}{
		{"url", r.URL},
		{"title", r.Title},
		{"content", content},
	}

	var penalties []types.Penalty
	for _, scope := range scopes {
		if scope.text == "" {
			continue
		}
		worst, ok := worstMatch(s.prof.Noise, scope.text)
		if !ok {
			continue
		}
		penalties = append(penalties, types.Penalty{
			Category: worst.Category,
			Scope:    scope.name,
			Amount:   worst.Penalty,
		})
	}
	return penalties
}

// worstMatch folds the matching patterns down to the most negative one.
func worstMatch(patterns []profile.NoisePattern, text string) (profile.NoisePattern, bool) {
	var worst profile.NoisePattern
	found := false
	for _, n := range patterns {
		if !n.Matches(text) {
			continue
		}
		if !found || n.Penalty < worst.Penalty {
			worst = n
			found = true
		}
	}
	return worst, found
}

// labelFor maps a clamped score onto its qualitative band.
func (s *Scorer) labelFor(value float64) types.ScoreLabel {
	c := s.prof.Cutoffs
	switch {
	case value >= c.Strong:
		return types.LabelStrongMatch
	case value >= c.Likely:
		return types.LabelLikelyRelevant
	case value >= c.Possible:
		return types.LabelPossibleMatch
	default:
		return types.LabelBelowThreshold
	}
}

// urlPathHasID reports whether the technique ID appears in the URL path,
// accepting the underscore form repositories often use ("T1003_006").
func urlPathHasID(rawURL, id string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.Contains(p, id) || strings.Contains(p, strings.ReplaceAll(id, ".", "_"))
}

// normalizeDomain lowercases a host and strips a leading "www.".
func normalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}
