// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/source-triage/internal/aggregate"
	"github.com/pdiddy/source-triage/internal/research"
	"github.com/pdiddy/source-triage/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.ArchiveConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *research.RunResult {
	return &research.RunResult{
		Technique: types.Technique{ID: "T1003.006", Name: "DCSync"},
		StartedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		Duration:  42 * time.Second,
		Summary: aggregate.Summary{
			Results: []types.ScoredResult{
				{
					SearchResult: types.SearchResult{
						URL:      "https://redcanary.com/blog/dcsync/",
						Title:    "DCSync Explained",
						Snippet:  "Directory replication abuse",
						Domain:   "redcanary.com",
						Category: "security_research",
						Tier:     types.Tier1,
						Position: 0,
					},
					Analysis: &types.ContentAnalysis{
						WordCount:  3200,
						Depth:      types.DepthLongForm,
						Confidence: types.ConfidenceAnalyzed,
					},
					Score: types.Score{Value: 90, Label: types.LabelStrongMatch},
				},
			},
			Excluded: []types.ScoredResult{
				{
					SearchResult: types.SearchResult{
						URL:      "https://example.com/demo",
						Title:    "Request a demo",
						Domain:   "example.com",
						Category: "community",
						Tier:     types.Tier2,
						Position: 1,
					},
					Score: types.Score{Value: 0, Label: types.LabelBelowThreshold},
				},
			},
			Gaps: []aggregate.Gap{{Category: "sigma_rules", Found: 0, Want: 1}},
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("run id should be assigned")
	}

	other := sampleRun()
	other.Technique = types.Technique{ID: "T1055", Name: "Process Injection"}
	if _, err := s.SaveRun(ctx, other); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].TechniqueID != "T1055" || runs[1].TechniqueID != "T1003.006" {
		t.Errorf("order = %s, %s", runs[0].TechniqueID, runs[1].TechniqueID)
	}
	if runs[1].ResultCount != 1 || runs[1].ExcludedCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", runs[1].ResultCount, runs[1].ExcludedCount)
	}

	filtered, err := s.ListRuns(ctx, "T1055", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].TechniqueID != "T1055" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestSearchArchive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveRun(ctx, sampleRun()); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(ctx, "replication", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %+v, want 1", hits)
	}
	h := hits[0]
	if h.TechniqueID != "T1003.006" || h.Title != "DCSync Explained" || h.Label != "strong_match" {
		t.Errorf("hit = %+v", h)
	}

	none, err := s.Search(ctx, "phishing", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("hits = %+v, want none", none)
	}

	if _, err := s.Search(ctx, "", 0); err == nil {
		t.Error("empty query should error")
	}
}

func TestLoadRunRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.LoadRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (survivor + excluded)", len(results))
	}

	first := results[0]
	if first.URL != "https://redcanary.com/blog/dcsync/" {
		t.Errorf("survivors should come first, got %s", first.URL)
	}
	if first.Score.Label != types.LabelStrongMatch {
		t.Errorf("Label = %q", first.Score.Label)
	}
	if first.Analysis == nil || first.Analysis.Depth != types.DepthLongForm {
		t.Errorf("Analysis = %+v, want the stored analysis back", first.Analysis)
	}
	if results[1].Analysis != nil {
		t.Errorf("excluded result had no analysis, got %+v", results[1].Analysis)
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		s, err := NewStore(types.ArchiveConfig{Dir: dir})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}
