// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/pkg/types"
)

// feedItem is the cached subset of a feed entry.
type feedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// Feeds scans configured blog RSS/Atom feeds for posts mentioning the
// technique by ID or name. Feed posts count as batched (tier 2) results
// in the security_research category.
type Feeds struct {
	Client   *http.Client
	Profile  *profile.Profile
	Cache    *cache.Cache
	CacheTTL time.Duration
	UA       string
}

func (f *Feeds) Name() string { return "feeds" }

func (f *Feeds) Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error) {
	parser := gofeed.NewParser()
	parser.Client = f.Client
	parser.UserAgent = f.UA

	id := strings.ToLower(tech.ID)
	name := strings.ToLower(tech.ShortName())

	var results []types.SearchResult
	for _, feedURL := range f.Profile.Sources.Feeds {
		items, err := f.feedItems(ctx, parser, feedURL)
		if err != nil {
			// One broken feed should not sink the others.
			zerolog.Ctx(ctx).Warn().Str("feed", feedURL).Err(err).Msg("feed fetch failed")
			continue
		}
		for _, item := range items {
			text := strings.ToLower(item.Title + " " + item.Description)
			if !strings.Contains(text, id) && (name == "" || !strings.Contains(text, name)) {
				continue
			}
			u, err := url.Parse(item.Link)
			if err != nil || u.Host == "" {
				continue
			}
			results = append(results, types.SearchResult{
				URL:      item.Link,
				Title:    strings.TrimSpace(item.Title),
				Snippet:  snippetFrom(item.Description),
				Domain:   strings.TrimPrefix(strings.ToLower(u.Host), "www."),
				Category: "security_research",
				Tier:     types.Tier2,
			})
		}
	}
	return results, nil
}

// feedItems fetches and caches one feed's entries. The cache key is
// technique-independent so one fetch serves every technique in a session.
func (f *Feeds) feedItems(ctx context.Context, parser *gofeed.Parser, feedURL string) ([]feedItem, error) {
	key := "feed_" + feedURL
	var cached []feedItem
	if f.Cache != nil && f.Cache.Get(key, &cached) {
		return cached, nil
	}

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]feedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, feedItem{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
		})
	}
	if f.Cache != nil {
		f.Cache.Put(key, items, f.CacheTTL)
	}
	return items, nil
}

// snippetFrom trims a feed description down to snippet length.
func snippetFrom(description string) string {
	s := strings.Join(strings.Fields(description), " ")
	if len(s) > 300 {
		s = s[:297] + "..."
	}
	return s
}
