// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"

	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/post", "example.com/post"},
		{"http://example.com/post", "example.com/post"},
		{"https://example.com/post/", "example.com/post"},
		{"https://www.example.com/post?utm_source=x", "example.com/post"},
		{"https://Example.COM/Post#section", "example.com/Post"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.raw); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDedupFirstSeenWins(t *testing.T) {
	in := []types.SearchResult{
		{URL: "https://example.com/post", Title: "first", Position: 0},
		{URL: "http://www.example.com/post/", Title: "duplicate", Position: 1},
		{URL: "https://example.com/post?ref=feed", Title: "duplicate", Position: 2},
		{URL: "https://example.com/other", Title: "kept", Position: 3},
	}

	out, dropped := Dedup(in)
	if len(out) != 2 || dropped != 2 {
		t.Fatalf("Dedup kept %d dropped %d, want 2/2", len(out), dropped)
	}
	if out[0].Title != "first" {
		t.Errorf("kept %q, want the first-seen occurrence", out[0].Title)
	}
	if out[1].URL != "https://example.com/other" {
		t.Errorf("second survivor = %q", out[1].URL)
	}
}

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := profile.Default()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	return p
}

func scored(url, category string, tier, position int, value float64) types.ScoredResult {
	return types.ScoredResult{
		SearchResult: types.SearchResult{
			URL:      url,
			Category: category,
			Tier:     tier,
			Position: position,
		},
		Score: types.Score{Value: value},
	}
}

func TestAggregateOrdering(t *testing.T) {
	p := testProfile(t)

	in := []types.ScoredResult{
		scored("https://a.example/1", "security_research", types.Tier2, 0, 90),
		scored("https://a.example/2", "security_research", types.Tier1, 1, 50),
		scored("https://a.example/3", "security_research", types.Tier1, 2, 80),
		scored("https://a.example/4", "security_research", types.Tier1, 3, 80),
	}

	s := Aggregate(p, in)
	if len(s.Results) != 4 {
		t.Fatalf("Results = %d, want 4", len(s.Results))
	}

	wantOrder := []string{
		"https://a.example/3", // tier 1, 80, position 2
		"https://a.example/4", // tier 1, 80, position 3
		"https://a.example/2", // tier 1, 50
		"https://a.example/1", // tier 2, 90
	}
	for i, want := range wantOrder {
		if s.Results[i].URL != want {
			t.Errorf("Results[%d] = %s, want %s", i, s.Results[i].URL, want)
		}
	}
}

func TestAggregateExcludesBelowMinScore(t *testing.T) {
	p := testProfile(t)

	in := []types.ScoredResult{
		scored("https://a.example/keep", "security_research", types.Tier1, 0, p.MinScore),
		scored("https://a.example/drop", "security_research", types.Tier1, 1, p.MinScore-1),
	}

	s := Aggregate(p, in)
	if len(s.Results) != 1 || s.Results[0].URL != "https://a.example/keep" {
		t.Errorf("Results = %+v, want only the at-threshold result", s.Results)
	}
	if len(s.Excluded) != 1 || s.Excluded[0].URL != "https://a.example/drop" {
		t.Errorf("Excluded = %+v, want the below-threshold result", s.Excluded)
	}
}

func TestAggregateCoverageGaps(t *testing.T) {
	p := testProfile(t)
	p.Categories = map[string]profile.Category{
		"covered":  {MinResults: 1},
		"thin":     {MinResults: 2},
		"optional": {MinResults: 0},
	}

	in := []types.ScoredResult{
		scored("https://a.example/1", "covered", types.Tier1, 0, 70),
		scored("https://a.example/2", "thin", types.Tier1, 1, 70),
		// A thin-category result below the threshold must not count
		// toward coverage.
		scored("https://a.example/3", "thin", types.Tier1, 2, 10),
	}

	s := Aggregate(p, in)
	if len(s.Gaps) != 1 {
		t.Fatalf("Gaps = %+v, want one", s.Gaps)
	}
	g := s.Gaps[0]
	if g.Category != "thin" || g.Found != 1 || g.Want != 2 {
		t.Errorf("gap = %+v, want thin 1/2", g)
	}
}

func TestByCategoryPartitions(t *testing.T) {
	p := testProfile(t)

	in := []types.ScoredResult{
		scored("https://a.example/1", "community", types.Tier2, 0, 90),
		scored("https://a.example/2", "security_research", types.Tier1, 1, 50),
		scored("https://a.example/3", "security_research", types.Tier1, 2, 80),
	}

	parts := Aggregate(p, in).ByCategory()
	if len(parts) != 2 {
		t.Fatalf("partitions = %+v, want 2", parts)
	}
	// security_research ranks first globally (tier 1 beats tier 2).
	if parts[0].Category != "security_research" || len(parts[0].Results) != 2 {
		t.Errorf("parts[0] = %s (%d results)", parts[0].Category, len(parts[0].Results))
	}
	if parts[0].Results[0].URL != "https://a.example/3" {
		t.Errorf("partition order should follow global order, got %s first", parts[0].Results[0].URL)
	}
	if parts[1].Category != "community" {
		t.Errorf("parts[1] = %s", parts[1].Category)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	p := testProfile(t)
	p.Categories = map[string]profile.Category{"only": {MinResults: 1}}

	s := Aggregate(p, nil)
	if len(s.Results) != 0 || len(s.Excluded) != 0 {
		t.Errorf("empty input produced results: %+v", s)
	}
	if len(s.Gaps) != 1 || s.Gaps[0].Found != 0 {
		t.Errorf("Gaps = %+v, want the empty category flagged", s.Gaps)
	}
}
