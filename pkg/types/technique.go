// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the source-triage pipeline:
// the technique under research, discovered search results, derived content
// analyses and relevance scores, and the configuration structs the CLI maps
// onto each stage.
package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Technique identifies the attack technique being researched.
type Technique struct {
	// ID is the normalized technique identifier, e.g. "T1003.006".
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable technique name, e.g. "DCSync".
	Name string `json:"name" yaml:"name"`
}

// techniqueIDPattern matches T#### with an optional .### sub-technique suffix.
var techniqueIDPattern = regexp.MustCompile(`^T\d{4}(\.\d{3})?$`)

// NormalizeTechniqueID upper-cases and trims a technique identifier and
// validates its shape. It returns an error for anything that is not a
// T#### or T####.### identifier.
func NormalizeTechniqueID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !techniqueIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid technique ID %q: expected T#### or T####.###", raw)
	}
	return id, nil
}

// ParentID returns the parent technique ID for a sub-technique
// ("T1003.006" → "T1003"). For a parent technique it returns the ID itself.
func (t Technique) ParentID() string {
	if i := strings.IndexByte(t.ID, '.'); i >= 0 {
		return t.ID[:i]
	}
	return t.ID
}

// IsSubtechnique reports whether the technique has a .### suffix.
func (t Technique) IsSubtechnique() bool {
	return strings.IndexByte(t.ID, '.') >= 0
}

// ShortName returns the sub-technique portion of a "Parent: Sub" style name,
// or the full name when there is no parent prefix. Name matching against
// page content uses this form.
func (t Technique) ShortName() string {
	if i := strings.LastIndexByte(t.Name, ':'); i >= 0 {
		return strings.TrimSpace(t.Name[i+1:])
	}
	return t.Name
}
