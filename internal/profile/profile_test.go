// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultProfileValidates(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default profile should validate: %v", err)
	}
	if !p.HasCategory("security_research") {
		t.Error("default profile should have security_research category")
	}
	if p.Cutoffs.Strong != 60 || p.Cutoffs.Likely != 40 || p.Cutoffs.Possible != 25 {
		t.Errorf("default cutoffs = %+v, want 60/40/25", p.Cutoffs)
	}
}

func TestValidateRejectsBadProfiles(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{
			"no categories",
			func(p *Profile) { p.Categories = nil },
			"no source categories",
		},
		{
			"unordered cutoffs",
			func(p *Profile) { p.Cutoffs = Cutoffs{Strong: 40, Likely: 60, Possible: 25} },
			"cutoffs",
		},
		{
			"positive penalty",
			func(p *Profile) { p.Noise[0].Penalty = 5 },
			"penalty must be negative",
		},
		{
			"bad noise regex",
			func(p *Profile) { p.Noise[0].Pattern = "([unclosed" },
			"noise pattern",
		},
		{
			"bad marker regex",
			func(p *Profile) { p.MarkerPatterns["event_ids"] = []string{"([unclosed"} },
			"marker pattern",
		},
		{
			"min_score out of range",
			func(p *Profile) { p.MinScore = 150 },
			"min_score",
		},
		{
			"inverted word thresholds",
			func(p *Profile) { p.EmptyFloor = 200; p.LowThreshold = 100 },
			"empty_floor",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWithoutPathReturnsDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Noise) == 0 {
		t.Error("built-in profile should have noise patterns")
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	override := `
min_score: 40
categories:
  internal_notes:
    min_results: 2
domain_tiers:
  example.org: high
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.MinScore != 40 {
		t.Errorf("MinScore = %.0f, want 40", p.MinScore)
	}
	// Map sections merge: the new category joins the defaults.
	if !p.HasCategory("internal_notes") || !p.HasCategory("security_research") {
		t.Error("category override should merge with defaults")
	}
	if tier, ok := p.TierOf("example.org"); !ok || tier != TierHigh {
		t.Errorf("TierOf(example.org) = %v, %v", tier, ok)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, []byte("cutoffs:\n  strong: 10\n  likely: 25\n  possible: 50\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject inverted cutoffs")
	}
}

func TestTierOfStripsWWW(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	tier, ok := p.TierOf("www.redcanary.com")
	if !ok || tier != TierHigh {
		t.Errorf("TierOf(www.redcanary.com) = %v, %v; want high, true", tier, ok)
	}
	if _, ok := p.TierOf("unknown.example"); ok {
		t.Error("unlisted domain should have no tier")
	}
}

func TestIsNoiseProcess(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	if !p.IsNoiseProcess("Setup.exe") {
		t.Error("setup.exe should be noise (case-insensitive)")
	}
	if p.IsNoiseProcess("mimikatz.exe") {
		t.Error("mimikatz.exe should not be noise")
	}
}
