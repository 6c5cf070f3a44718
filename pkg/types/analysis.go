// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"sort"
	"strings"
)

// DepthLabel buckets a page's word count.
type DepthLabel string

const (
	DepthMinimal  DepthLabel = "minimal"   // < 500 words
	DepthBrief    DepthLabel = "brief"     // 500–999
	DepthStandard DepthLabel = "standard"  // 1000–2999
	DepthLongForm DepthLabel = "long_form" // >= 3000
)

// DepthFor maps a word count to its depth label.
func DepthFor(wordCount int) DepthLabel {
	switch {
	case wordCount >= 3000:
		return DepthLongForm
	case wordCount >= 1000:
		return DepthStandard
	case wordCount >= 500:
		return DepthBrief
	default:
		return DepthMinimal
	}
}

// MarkerCategory is a class of technical artifact searched for in page text.
type MarkerCategory string

const (
	MarkerEventIDs    MarkerCategory = "event_ids"
	MarkerProcesses   MarkerCategory = "processes"
	MarkerAPIs        MarkerCategory = "apis"
	MarkerRegistry    MarkerCategory = "registry"
	MarkerNetwork     MarkerCategory = "network"
	MarkerFilePaths   MarkerCategory = "filepaths"
	MarkerQuerySyntax MarkerCategory = "query_syntax"
)

// markerOrder fixes the display order for marker summaries.
var markerOrder = []MarkerCategory{
	MarkerEventIDs, MarkerProcesses, MarkerRegistry, MarkerAPIs,
	MarkerNetwork, MarkerFilePaths, MarkerQuerySyntax,
}

// FocusTag labels what a page is about, derived from its markers.
type FocusTag string

const (
	FocusDetection   FocusTag = "detection"
	FocusExecution   FocusTag = "execution"
	FocusTechnical   FocusTag = "technical"
	FocusThreatIntel FocusTag = "threat_intel"
	FocusGeneral     FocusTag = "general"
)

// Confidence labels how much the analyzer could extract from a fetch attempt.
type Confidence string

const (
	// ConfidenceNotFetched: enrichment was disabled, no fetch attempted.
	ConfidenceNotFetched Confidence = "not_fetched"

	// ConfidenceFailed: fetch attempted but returned an error or timed out.
	ConfidenceFailed Confidence = "failed"

	// ConfidenceEmpty: fetch succeeded but the text is below the minimal floor.
	ConfidenceEmpty Confidence = "empty"

	// ConfidenceLow: some text, but too little for confident marker extraction.
	ConfidenceLow Confidence = "low"

	// ConfidencePartial: enough text, but no marker category matched.
	ConfidencePartial Confidence = "partial"

	// ConfidenceAnalyzed: enough text and at least one marker category hit.
	ConfidenceAnalyzed Confidence = "analyzed"
)

// ContentAnalysis holds the structural signals extracted from a fetched page.
// It is created once per fetch attempt and never re-analyzed within a run.
type ContentAnalysis struct {
	// WordCount is the whitespace-token count of the extracted article text.
	WordCount int `json:"word_count" yaml:"word_count"`

	// Depth is the step-function bucket of WordCount.
	Depth DepthLabel `json:"depth" yaml:"depth"`

	// CodeBlocks counts structural code blocks (pre/code tags, fenced blocks).
	CodeBlocks int `json:"code_blocks" yaml:"code_blocks"`

	// Markers maps each marker category that matched to its deduplicated,
	// sorted sample values. Categories with no hits are absent.
	Markers map[MarkerCategory][]string `json:"markers,omitempty" yaml:"markers,omitempty"`

	// Focus lists the content focus tags. Always non-empty for analyzed
	// content; "general" is the fallback.
	Focus []FocusTag `json:"focus,omitempty" yaml:"focus,omitempty"`

	// Confidence labels the analysis outcome per the fetch-status state machine.
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}

// MarkerSummary builds a compact one-line summary of the hit markers for the
// report, capping each category at five sample values.
func (a ContentAnalysis) MarkerSummary() string {
	var parts []string
	for _, cat := range markerOrder {
		items := a.Markers[cat]
		if len(items) == 0 {
			continue
		}
		display := items
		if len(items) > 5 {
			display = append(append([]string{}, items[:5]...), fmt.Sprintf("+%d more", len(items)-5))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", cat, strings.Join(display, ", ")))
	}
	return strings.Join(parts, "; ")
}

// MarkerCategories returns the sorted list of marker categories that hit.
func (a ContentAnalysis) MarkerCategories() []MarkerCategory {
	cats := make([]MarkerCategory, 0, len(a.Markers))
	for cat := range a.Markers {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
