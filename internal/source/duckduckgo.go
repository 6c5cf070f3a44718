// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// maxPerQuery caps how many results one search query contributes.
const maxPerQuery = 8

// DuckDuckGo discovers sources through the HTML (non-JS) search endpoint.
// Targeted categories get one site-scoped query per domain (tier 1);
// categories with a query suffix additionally get one batched query
// (tier 2).
type DuckDuckGo struct {
	Client   *http.Client
	Profile  *profile.Profile
	Cache    *cache.Cache
	CacheTTL time.Duration
	UA       string
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Discover runs the query plan for the technique. Individual query failures
// are logged and skipped; Discover only errors when every query fails.
func (d *DuckDuckGo) Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error) {
	queries := d.queryPlan(tech)

	var all []types.SearchResult
	failed := 0
	for _, q := range queries {
		raw, err := d.search(ctx, q.text)
		if err != nil {
			failed++
			zerolog.Ctx(ctx).Warn().Str("query", q.text).Err(err).Msg("search query failed")
			continue
		}
		if len(raw) > maxPerQuery {
			raw = raw[:maxPerQuery]
		}
		for _, r := range raw {
			r.Category = q.category
			r.Tier = q.tier
			all = append(all, r)
		}
	}

	if failed == len(queries) && len(queries) > 0 {
		return nil, fmt.Errorf("all %d search queries failed", len(queries))
	}
	return all, nil
}

type plannedQuery struct {
	text     string
	category string
	tier     int
}

// queryPlan builds the deterministic query list: categories are walked in
// name order, targeted categories expand to one query per domain.
func (d *DuckDuckGo) queryPlan(tech types.Technique) []plannedQuery {
	terms := strings.TrimSpace(tech.ID + " " + tech.ShortName())

	names := make([]string, 0, len(d.Profile.Categories))
	for name := range d.Profile.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var plan []plannedQuery
	for _, name := range names {
		cat := d.Profile.Categories[name]
		if cat.Targeted {
			for _, domain := range cat.Domains {
				plan = append(plan, plannedQuery{
					text:     fmt.Sprintf("site:%s %s", domain, terms),
					category: name,
					tier:     types.Tier1,
				})
			}
		}
		if cat.QuerySuffix != "" {
			plan = append(plan, plannedQuery{
				text:     terms + " " + cat.QuerySuffix,
				category: name,
				tier:     types.Tier2,
			})
		}
	}
	return plan
}

// search runs one query against the HTML endpoint, consulting the cache
// first.
func (d *DuckDuckGo) search(ctx context.Context, query string) ([]types.SearchResult, error) {
	key := "search_" + query
	var cached []types.SearchResult
	if d.Cache != nil && d.Cache.Get(key, &cached) {
		return cached, nil
	}

	endpoint := d.Profile.Sources.SearchBaseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", d.UA)

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	results, err := parseSearchPage(resp.Body)
	if err != nil {
		return nil, err
	}
	if d.Cache != nil {
		d.Cache.Put(key, results, d.CacheTTL)
	}
	return results, nil
}

// parseSearchPage extracts results from the HTML endpoint's markup. Links
// are wrapped in a redirect whose uddg parameter carries the real URL.
func parseSearchPage(body io.Reader) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing search page: %w", err)
	}

	var results []types.SearchResult
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		anchor := s.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		target := decodeRedirect(href)
		u, err := url.Parse(target)
		if err != nil || u.Host == "" {
			return
		}
		results = append(results, types.SearchResult{
			URL:     target,
			Title:   strings.TrimSpace(anchor.Text()),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
			Domain:  strings.TrimPrefix(strings.ToLower(u.Host), "www."),
		})
	})
	return results, nil
}

// decodeRedirect unwraps the search engine's link-tracking redirect. Plain
// URLs pass through unchanged.
func decodeRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
