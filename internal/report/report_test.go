// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/source-triage/internal/aggregate"
	"github.com/pdiddy/source-triage/internal/research"
	"github.com/pdiddy/source-triage/pkg/types"
)

func sampleRun() *research.RunResult {
	return &research.RunResult{
		Technique: types.Technique{ID: "T1003.006", Name: "DCSync"},
		StartedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		Duration:  42 * time.Second,
		Stats:     research.Stats{Discovered: 6, Duplicates: 1, Excluded: 1},
		Warnings:  []string{"feeds: fetch failed"},
		Summary: aggregate.Summary{
			Results: []types.ScoredResult{
				{
					SearchResult: types.SearchResult{
						URL:      "https://redcanary.com/blog/dcsync/",
						Title:    "DCSync Explained",
						Snippet:  "Directory replication abuse and detection.",
						Domain:   "redcanary.com",
						Category: "security_research",
						Tier:     types.Tier1,
					},
					Analysis: &types.ContentAnalysis{
						WordCount:  3200,
						Depth:      types.DepthLongForm,
						CodeBlocks: 4,
						Markers: map[types.MarkerCategory][]string{
							types.MarkerEventIDs: {"4662"},
						},
						Focus:      []types.FocusTag{types.FocusDetection},
						Confidence: types.ConfidenceAnalyzed,
					},
					Score: types.Score{Value: 90, Label: types.LabelStrongMatch},
				},
			},
			Excluded: []types.ScoredResult{
				{
					SearchResult: types.SearchResult{URL: "https://example.com/demo", Title: "Request a demo"},
					Score:        types.Score{Value: 0, Label: types.LabelBelowThreshold},
				},
			},
			Gaps: []aggregate.Gap{{Category: "sigma_rules", Found: 0, Want: 1}},
		},
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Source triage: T1003.006 (DCSync)",
		"## Results (1)",
		"### security_research (1)",
		"#### 1. DCSync Explained",
		"Score: 90 (strong_match)",
		"3200 words (long_form), 4 code blocks, confidence analyzed",
		"Focus: detection",
		"event_ids: 4662",
		"## Coverage gaps",
		"`sigma_rules`: 0 of 1 wanted",
		"## Excluded (1 below threshold)",
		"## Warnings",
		"feeds: fetch failed",
		"6 discovered, 1 duplicates removed, 1 excluded.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestWriteMarkdownEmptyRun(t *testing.T) {
	run := &research.RunResult{Technique: types.Technique{ID: "T1548"}}
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, run); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No sources scored above the minimum threshold.") {
		t.Errorf("empty run output = %q", buf.String())
	}
}

func TestWriteJSONIncludesExcluded(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}

	var decoded research.RunResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Summary.Excluded) != 1 {
		t.Errorf("Excluded = %d, want 1", len(decoded.Summary.Excluded))
	}
	if decoded.Summary.Results[0].Analysis == nil {
		t.Error("analysis should round-trip through JSON")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleRun()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "<title>Source triage: T1003.006</title>") {
		t.Errorf("missing title: %s", out[:200])
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "DCSync Explained") {
		t.Error("markdown should be rendered to HTML elements")
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleRun(), Format("xml")); err == nil {
		t.Fatal("want error for unknown format")
	}
}
