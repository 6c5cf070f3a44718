// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"sort"
	"strings"

	"github.com/pdiddy/source-triage/pkg/types"
)

// caseFoldedCategories are deduplicated case-insensitively: "SMB" and "smb"
// are one marker, not two.
var caseFoldedCategories = map[types.MarkerCategory]bool{
	types.MarkerProcesses:   true,
	types.MarkerNetwork:     true,
	types.MarkerQuerySyntax: true,
}

// extractMarkers scans text once per marker category and returns the hit
// categories with their deduplicated, sorted sample values. Each category is
// evaluated independently; a page may hit several.
func (a *Analyzer) extractMarkers(text string) map[types.MarkerCategory][]string {
	results := make(map[types.MarkerCategory][]string)

	for _, set := range a.markers {
		found := make(map[string]struct{})
		for _, re := range set.patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				value := captureValue(m)
				value = strings.TrimRight(strings.TrimSpace(value), ".,;:")
				if value != "" {
					found[value] = struct{}{}
				}
			}
		}
		if len(found) == 0 {
			continue
		}

		values := make([]string, 0, len(found))
		for v := range found {
			values = append(values, v)
		}

		if caseFoldedCategories[set.category] {
			values = dedupFold(values)
		}
		if set.category == types.MarkerProcesses {
			values = a.dropNoiseProcesses(values)
		}
		if len(values) == 0 {
			continue
		}

		sort.Strings(values)
		results[set.category] = values
	}
	return results
}

// captureValue returns the first non-empty capture group, or the whole match
// for patterns without groups.
func captureValue(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return match[0]
}

// dedupFold keeps the first-seen casing of each case-insensitive value.
func dedupFold(values []string) []string {
	sort.Strings(values)
	seen := make(map[string]string, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; !ok {
			seen[key] = v
		}
	}
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out
}

// dropNoiseProcesses filters common non-security executables.
func (a *Analyzer) dropNoiseProcesses(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if !a.prof.IsNoiseProcess(v) {
			out = append(out, v)
		}
	}
	return out
}

// classifyFocus assigns content focus tags from the extracted markers using
// a fixed priority rule. The general tag is the fallback when nothing
// specific is detected.
func (a *Analyzer) classifyFocus(markers map[types.MarkerCategory][]string, codeBlocks int, text string) []types.FocusTag {
	var tags []types.FocusTag

	// Detection: query syntax present, or multiple distinct event IDs.
	if len(markers[types.MarkerQuerySyntax]) > 0 || len(markers[types.MarkerEventIDs]) >= 2 {
		tags = append(tags, types.FocusDetection)
	}

	// Execution: code blocks plus process or API markers.
	if codeBlocks >= 2 && (len(markers[types.MarkerProcesses]) > 0 || len(markers[types.MarkerAPIs]) > 0) {
		tags = append(tags, types.FocusExecution)
	}

	// Technical analysis: several marker categories populated.
	if len(markers) >= 3 {
		tags = append(tags, types.FocusTechnical)
	}

	// Threat intelligence: named groups or campaigns mentioned.
	if a.actor != nil && a.actor.MatchString(text) {
		tags = append(tags, types.FocusThreatIntel)
	}

	if len(tags) == 0 {
		tags = append(tags, types.FocusGeneral)
	}
	return tags
}
