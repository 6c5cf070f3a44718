// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// nameStopwords are technique-name tokens too generic to match report
// filenames on.
var nameStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "by": true, "for": true, "from": true,
	"in": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"via": true, "with": true, "using": true, "abuse": true, "attack": true,
	"technique": true,
}

// Reports scans the published-reports repository for existing coverage of
// the technique. A report naming the exact technique ID is the strongest
// match; the parent technique and name-token matches rank below it.
type Reports struct {
	Client   *http.Client
	Profile  *profile.Profile
	Cache    *cache.Cache
	CacheTTL time.Duration
	UA       string

	// Token optionally authenticates GitHub API requests, raising the
	// unauthenticated rate limit.
	Token string

	// APIBaseURL overrides the GitHub API host in tests.
	APIBaseURL string
}

func (r *Reports) apiBase() string {
	if r.APIBaseURL != "" {
		return strings.TrimRight(r.APIBaseURL, "/")
	}
	return "https://api.github.com"
}

func (r *Reports) Name() string { return "reports" }

func (r *Reports) Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error) {
	paths, err := r.listReports(ctx)
	if err != nil {
		return nil, err
	}

	src := r.Profile.Sources
	var results []types.SearchResult
	for _, p := range paths {
		kind, ok := matchReport(p, tech)
		if !ok {
			continue
		}
		results = append(results, types.SearchResult{
			URL:      fmt.Sprintf("https://github.com/%s/blob/%s/%s", src.ReportsRepo, src.ReportsBranch, p),
			Title:    path.Base(p),
			Snippet:  kind,
			Domain:   "github.com",
			Category: "existing_reports",
			Tier:     types.Tier1,
		})
	}
	return results, nil
}

// listReports returns the markdown file paths under the configured reports
// directory, from the cache or the repository tree API.
func (r *Reports) listReports(ctx context.Context) ([]string, error) {
	src := r.Profile.Sources
	key := "reports_tree_" + src.ReportsRepo + "_" + src.ReportsBranch
	var cached []string
	if r.Cache != nil && r.Cache.Get(key, &cached) {
		return cached, nil
	}

	apiURL := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", r.apiBase(), src.ReportsRepo, src.ReportsBranch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building tree request: %w", err)
	}
	req.Header.Set("User-Agent", r.UA)
	req.Header.Set("Accept", "application/vnd.github+json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("listing reports tree: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reports tree returned HTTP %d", resp.StatusCode)
	}

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("parsing reports tree: %w", err)
	}

	prefix := strings.Trim(src.ReportsPath, "/") + "/"
	var paths []string
	for _, e := range tree.Tree {
		if e.Type != "blob" || !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Path), ".md") {
			paths = append(paths, e.Path)
		}
	}
	if r.Cache != nil {
		r.Cache.Put(key, paths, r.CacheTTL)
	}
	return paths, nil
}

// matchReport classifies how a report path relates to the technique. The
// second return is false for unrelated reports.
func matchReport(reportPath string, tech types.Technique) (string, bool) {
	name := strings.ToLower(path.Base(reportPath))

	if containsID(name, tech.ID) {
		return "Existing report covers this technique", true
	}
	if tech.IsSubtechnique() && containsID(name, tech.ParentID()) {
		return "Existing report covers the parent technique", true
	}

	tokens := nameTokens(tech.ShortName())
	if len(tokens) == 0 {
		return "", false
	}
	for _, tok := range tokens {
		if !strings.Contains(name, tok) {
			return "", false
		}
	}
	return "Existing report matches the technique name", true
}

// containsID matches a technique ID in a filename, accepting the underscore
// form ("t1003_006") alongside the dotted one.
func containsID(name, id string) bool {
	id = strings.ToLower(id)
	return strings.Contains(name, id) || strings.Contains(name, strings.ReplaceAll(id, ".", "_"))
}

// nameTokens splits a technique name into lowercase tokens with stopwords
// removed.
func nameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 1 && !nameStopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
