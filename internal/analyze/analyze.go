// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze extracts structural triage signals from fetched page text:
// word count, code blocks, technical markers, and content focus tags. It
// records factual signals only; the scorer and the researcher decide what
// matters. The analyzer never fails on malformed input; garbage text simply
// yields an empty or low confidence with zero counts.
package analyze

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// maxTextLen caps the text considered per page.
const maxTextLen = 50000

// fencePattern matches the opening/closing line of a fenced code block.
var fencePattern = regexp.MustCompile("(?m)^```")

// Analyzer holds the compiled marker patterns for a profile. It is safe for
// concurrent use; analysis shares no mutable state across results.
type Analyzer struct {
	prof    *profile.Profile
	markers []markerSet
	actor   *regexp.Regexp
}

// markerSet is one marker category with its compiled patterns.
type markerSet struct {
	category types.MarkerCategory
	patterns []*regexp.Regexp
}

// New compiles the profile's marker patterns. The profile must already be
// validated; a compile failure here is still reported rather than panicking.
func New(p *profile.Profile) (*Analyzer, error) {
	a := &Analyzer{prof: p}

	cats := make([]string, 0, len(p.MarkerPatterns))
	for cat := range p.MarkerPatterns {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		set := markerSet{category: types.MarkerCategory(cat)}
		for _, pat := range p.MarkerPatterns[cat] {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("compiling marker pattern %s: %w", cat, err)
			}
			set.patterns = append(set.patterns, re)
		}
		a.markers = append(a.markers, set)
	}

	if p.ThreatActorPattern != "" {
		re, err := regexp.Compile(p.ThreatActorPattern)
		if err != nil {
			return nil, fmt.Errorf("compiling threat actor pattern: %w", err)
		}
		a.actor = re
	}
	return a, nil
}

// Analyze derives a ContentAnalysis from raw page text and the fetch status.
// Code blocks are counted as fenced-block pairs; use AnalyzeFile for raw
// repository files where the extension decides the counting strategy.
func (a *Analyzer) Analyze(text string, status types.FetchStatus) types.ContentAnalysis {
	return a.analyze(text, status, fenceBlocks(text))
}

// AnalyzeFile analyzes raw file content (YAML, markdown, etc.) fetched from
// a repository. Structured config formats count as a single code block; for
// markdown the fenced blocks are counted; other extensions carry none.
func (a *Analyzer) AnalyzeFile(text, filename string, status types.FetchStatus) types.ContentAnalysis {
	blocks := 0
	switch strings.ToLower(path.Ext(filename)) {
	case ".yml", ".yaml", ".xml", ".toml", ".json", ".conf":
		blocks = 1
	case ".md", ".markdown":
		blocks = fenceBlocks(text)
	}
	return a.analyze(text, status, blocks)
}

// analyze runs the confidence state machine and signal extraction.
func (a *Analyzer) analyze(text string, status types.FetchStatus, codeBlocks int) types.ContentAnalysis {
	switch status {
	case types.FetchSkipped:
		return types.ContentAnalysis{Depth: types.DepthMinimal, Confidence: types.ConfidenceNotFetched}
	case types.FetchHTTPError, types.FetchTimeout:
		// A failed fetch yields no analysis regardless of any payload.
		return types.ContentAnalysis{Depth: types.DepthMinimal, Confidence: types.ConfidenceFailed}
	}

	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}

	wordCount := len(strings.Fields(text))
	analysis := types.ContentAnalysis{
		WordCount:  wordCount,
		Depth:      types.DepthFor(wordCount),
		CodeBlocks: codeBlocks,
	}

	if wordCount < a.prof.EmptyFloor {
		analysis.Confidence = types.ConfidenceEmpty
		analysis.Focus = []types.FocusTag{types.FocusGeneral}
		return analysis
	}

	analysis.Markers = a.extractMarkers(text)
	analysis.Focus = a.classifyFocus(analysis.Markers, codeBlocks, text)

	switch {
	case wordCount < a.prof.LowThreshold:
		analysis.Confidence = types.ConfidenceLow
	case len(analysis.Markers) == 0:
		analysis.Confidence = types.ConfidencePartial
	default:
		analysis.Confidence = types.ConfidenceAnalyzed
	}
	return analysis
}

// fenceBlocks counts paired triple-backtick fences.
func fenceBlocks(text string) int {
	return len(fencePattern.FindAllStringIndex(text, -1)) / 2
}
