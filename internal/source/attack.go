// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// maxCitations caps how many cited references become results.
const maxCitations = 10

// Attack looks a technique up in the ATT&CK knowledge base. Besides
// discovery results it yields the canonical technique name and the set of
// domains the technique page cites, which the scorer treats as a trust
// signal.
type Attack struct {
	Client   *http.Client
	Profile  *profile.Profile
	Cache    *cache.Cache
	CacheTTL time.Duration
	UA       string
}

// Lookup is the parsed technique page.
type Lookup struct {
	// Name is the canonical technique name from the page heading.
	Name string `json:"name"`

	// CitedDomains are the external domains the page's references point at.
	CitedDomains []string `json:"cited_domains"`

	// Results are the cited references as attack_citations results.
	Results []types.SearchResult `json:"results"`
}

func (a *Attack) Name() string { return "attack" }

// Discover satisfies Provider; it returns only the citation results. Use
// Lookup directly when the canonical name and cited domains are needed.
func (a *Attack) Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error) {
	lk, err := a.Lookup(ctx, tech)
	if err != nil {
		return nil, err
	}
	return lk.Results, nil
}

// Lookup fetches and parses the technique page, consulting the cache first.
// An unknown technique (HTTP 404) is an error: the run should stop before
// fanning out queries for an identifier that does not exist.
func (a *Attack) Lookup(ctx context.Context, tech types.Technique) (Lookup, error) {
	key := "attack_" + tech.ID
	var cached Lookup
	if a.Cache != nil && a.Cache.Get(key, &cached) {
		return cached, nil
	}

	pageURL := a.techniqueURL(tech)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Lookup{}, fmt.Errorf("building lookup request: %w", err)
	}
	req.Header.Set("User-Agent", a.UA)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return Lookup{}, fmt.Errorf("technique lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Lookup{}, fmt.Errorf("technique %s not found in the knowledge base", tech.ID)
	}
	if resp.StatusCode != http.StatusOK {
		return Lookup{}, fmt.Errorf("technique lookup returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Lookup{}, fmt.Errorf("parsing technique page: %w", err)
	}

	lk := a.parsePage(doc, tech)
	if a.Cache != nil {
		a.Cache.Put(key, lk, a.CacheTTL)
	}
	return lk, nil
}

// techniqueURL maps an ID onto the page path: T1003.006 lives at
// /techniques/T1003/006/.
func (a *Attack) techniqueURL(tech types.Technique) string {
	path := strings.ReplaceAll(tech.ID, ".", "/")
	return strings.TrimRight(a.Profile.Sources.AttackBaseURL, "/") + "/techniques/" + path + "/"
}

// parsePage extracts the heading and external references.
func (a *Attack) parsePage(doc *goquery.Document, tech types.Technique) Lookup {
	base, _ := url.Parse(a.Profile.Sources.AttackBaseURL)

	lk := Lookup{Name: strings.TrimSpace(doc.Find("h1").First().Text())}

	domains := make(map[string]struct{})
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if base != nil && host == strings.TrimPrefix(strings.ToLower(base.Host), "www.") {
			return
		}
		domains[host] = struct{}{}

		if _, dup := seen[href]; dup || len(lk.Results) >= maxCitations {
			return
		}
		seen[href] = struct{}{}

		title := strings.TrimSpace(s.Text())
		if title == "" {
			title = lk.Name + " reference"
		}
		lk.Results = append(lk.Results, types.SearchResult{
			URL:      href,
			Title:    title,
			Snippet:  fmt.Sprintf("Cited by the %s knowledge-base entry", tech.ID),
			Domain:   host,
			Category: "attack_citations",
			Tier:     types.Tier1,
		})
	})

	lk.CitedDomains = make([]string, 0, len(domains))
	for d := range domains {
		lk.CitedDomains = append(lk.CitedDomains, d)
	}
	sort.Strings(lk.CitedDomains)
	return lk
}
