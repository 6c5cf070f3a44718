// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// Atomics checks the atomic test repository for a test file covering the
// technique. A technique without tests is not an error; the provider just
// returns no results.
type Atomics struct {
	Client   *http.Client
	Profile  *profile.Profile
	Cache    *cache.Cache
	CacheTTL time.Duration
	UA       string

	// RawBaseURL overrides the raw-content host in tests.
	RawBaseURL string
}

func (a *Atomics) rawBase() string {
	if a.RawBaseURL != "" {
		return strings.TrimRight(a.RawBaseURL, "/")
	}
	return "https://raw.githubusercontent.com"
}

func (a *Atomics) Name() string { return "atomics" }

// atomicsDoc is the subset of the test file schema we read.
type atomicsDoc struct {
	AttackTechnique string `yaml:"attack_technique"`
	DisplayName     string `yaml:"display_name"`
	AtomicTests     []struct {
		Name               string   `yaml:"name"`
		SupportedPlatforms []string `yaml:"supported_platforms"`
	} `yaml:"atomic_tests"`
}

func (a *Atomics) Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error) {
	key := "atomics_" + tech.ID
	var cached []types.SearchResult
	if a.Cache != nil && a.Cache.Get(key, &cached) {
		return cached, nil
	}

	src := a.Profile.Sources
	filePath := fmt.Sprintf("atomics/%s/%s.yaml", tech.ID, tech.ID)
	rawURL := fmt.Sprintf("%s/%s/%s/%s", a.rawBase(), src.AtomicsRepo, src.AtomicsBranch, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building atomics request: %w", err)
	}
	req.Header.Set("User-Agent", a.UA)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching atomics file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No tests exist for this technique.
		if a.Cache != nil {
			a.Cache.Put(key, []types.SearchResult{}, a.CacheTTL)
		}
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("atomics fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading atomics file: %w", err)
	}

	var doc atomicsDoc
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing atomics file: %w", err)
	}

	results := []types.SearchResult{{
		URL:      fmt.Sprintf("https://github.com/%s/blob/%s/%s", src.AtomicsRepo, src.AtomicsBranch, filePath),
		Title:    atomicsTitle(doc),
		Snippet:  atomicsSnippet(doc),
		Domain:   "github.com",
		Category: "atomic_tests",
		Tier:     types.Tier1,
	}}
	if a.Cache != nil {
		a.Cache.Put(key, results, a.CacheTTL)
	}
	return results, nil
}

func atomicsTitle(doc atomicsDoc) string {
	name := doc.DisplayName
	if name == "" {
		name = doc.AttackTechnique
	}
	return fmt.Sprintf("Atomic Red Team: %s (%d tests)", name, len(doc.AtomicTests))
}

// atomicsSnippet lists the first few test names.
func atomicsSnippet(doc atomicsDoc) string {
	var names []string
	for _, t := range doc.AtomicTests {
		names = append(names, t.Name)
		if len(names) == 3 {
			break
		}
	}
	if len(doc.AtomicTests) > 3 {
		names = append(names, fmt.Sprintf("+%d more", len(doc.AtomicTests)-3))
	}
	return strings.Join(names, "; ")
}
