// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates one triage run: technique validation and
// knowledge-base lookup, provider fan-out, deduplication, optional content
// enrichment, scoring, and aggregation.
package research

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/source-triage/internal/aggregate"
	"github.com/pdiddy/source-triage/internal/analyze"
	"github.com/pdiddy/source-triage/internal/fetch"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/internal/scoring"
	"github.com/pdiddy/source-triage/internal/source"
	"github.com/pdiddy/source-triage/pkg/types"
)

// structuredExts are file extensions analyzed as raw files rather than HTML.
var structuredExts = map[string]bool{
	".yaml": true, ".yml": true, ".json": true, ".xml": true,
	".toml": true, ".conf": true, ".md": true,
}

// Stats summarizes what happened during a run.
type Stats struct {
	Discovered        int `json:"discovered" yaml:"discovered"`
	Duplicates        int `json:"duplicates" yaml:"duplicates"`
	UnknownCategories int `json:"unknown_categories" yaml:"unknown_categories"`
	Fetched           int `json:"fetched" yaml:"fetched"`
	FetchFailures     int `json:"fetch_failures" yaml:"fetch_failures"`
	DeadLinks         int `json:"dead_links" yaml:"dead_links"`
	Excluded          int `json:"excluded" yaml:"excluded"`
}

// RunResult is the complete output of one triage run.
type RunResult struct {
	Technique types.Technique   `json:"technique" yaml:"technique"`
	Summary   aggregate.Summary `json:"summary" yaml:"summary"`
	Stats     Stats             `json:"stats" yaml:"stats"`
	Warnings  []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	StartedAt time.Time         `json:"started_at" yaml:"started_at"`
	Duration  time.Duration     `json:"duration" yaml:"duration"`
}

// Runner holds the wired pipeline stages for a session.
type Runner struct {
	Profile   *profile.Profile
	Config    types.ResearchConfig
	Fetcher   *fetch.Client
	Analyzer  *analyze.Analyzer
	Attack    *source.Attack
	Providers []source.Provider

	// Verbose records applied noise penalties on every score.
	Verbose bool
}

// Run executes the pipeline for one technique identifier. Progress is
// written to w; structured diagnostics go to the context logger.
func (r *Runner) Run(ctx context.Context, rawID string, w io.Writer) (*RunResult, error) {
	start := time.Now()
	log := zerolog.Ctx(ctx)

	id, err := types.NormalizeTechniqueID(rawID)
	if err != nil {
		return nil, err
	}
	tech := types.Technique{ID: id}

	if r.Config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Config.RunTimeout)
		defer cancel()
	}

	// Resolve the technique in the knowledge base first: this yields the
	// canonical name, the cited-domain trust set, and the citation results,
	// and it stops the run before fan-out for identifiers that don't exist.
	lookup, err := r.Attack.Lookup(ctx, tech)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", id, err)
	}
	if tech.Name == "" {
		tech.Name = lookup.Name
	}
	fmt.Fprintf(w, "researching %s (%s)\n", tech.ID, tech.Name)

	out, err := source.DiscoverAll(ctx, r.Providers, tech, w)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Technique: tech, StartedAt: start, Warnings: out.ProviderErrors}
	results := append(lookup.Results, out.Results...)
	result.Stats.Discovered = len(results)

	results, result.Stats.UnknownCategories = r.dropUnknownCategories(ctx, results)
	for i := range results {
		results[i].Position = i
	}

	results, result.Stats.Duplicates = aggregate.Dedup(results)
	if max := r.Config.MaxResults; max > 0 && len(results) > max {
		results = results[:max]
	}
	fmt.Fprintf(w, "discovered %d sources (%d duplicates removed)\n", len(results), result.Stats.Duplicates)

	analyses := make([]*types.ContentAnalysis, len(results))
	texts := make([]string, len(results))
	switch {
	case r.Config.Fetch.EnrichContent:
		r.enrich(ctx, results, analyses, texts, &result.Stats)
		fmt.Fprintf(w, "analyzed %d pages (%d fetch failures)\n", result.Stats.Fetched, result.Stats.FetchFailures)
	case r.Config.Fetch.ValidateLinks:
		results = r.validateLinks(ctx, results, &result.Stats)
		analyses = analyses[:len(results)]
		texts = texts[:len(results)]
		fmt.Fprintf(w, "validated links (%d dead)\n", result.Stats.DeadLinks)
	}

	scorer := scoring.New(r.Profile, tech, lookup.CitedDomains, r.Verbose)
	scored := make([]types.ScoredResult, len(results))
	for i, res := range results {
		scored[i] = types.ScoredResult{
			SearchResult: res,
			Analysis:     analyses[i],
			Score:        scorer.Score(res, analyses[i], texts[i]),
		}
	}

	result.Summary = aggregate.Aggregate(r.Profile, scored)
	result.Stats.Excluded = len(result.Summary.Excluded)
	result.Duration = time.Since(start)

	log.Info().
		Str("technique", tech.ID).
		Int("results", len(result.Summary.Results)).
		Int("excluded", result.Stats.Excluded).
		Int("gaps", len(result.Summary.Gaps)).
		Dur("duration", result.Duration).
		Msg("run complete")
	return result, nil
}

// dropUnknownCategories removes results whose category is not in the
// profile. Providers and profile overrides can drift apart; dropping with
// a warning beats scoring against missing category configuration.
func (r *Runner) dropUnknownCategories(ctx context.Context, results []types.SearchResult) ([]types.SearchResult, int) {
	kept := results[:0]
	dropped := 0
	for _, res := range results {
		if !r.Profile.HasCategory(res.Category) {
			dropped++
			zerolog.Ctx(ctx).Warn().
				Str("category", res.Category).
				Str("url", res.URL).
				Msg("dropping result with unknown category")
			continue
		}
		kept = append(kept, res)
	}
	return kept, dropped
}

// enrich fetches and analyzes each result with a bounded worker pool.
// Workers write into index-addressed slices, so the output order never
// depends on scheduling. Per-result failures degrade to a failed analysis
// rather than aborting the run.
func (r *Runner) enrich(ctx context.Context, results []types.SearchResult, analyses []*types.ContentAnalysis, texts []string, stats *Stats) {
	workers := r.Config.Fetch.Workers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range results {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			a, text, fetched := r.enrichOne(ctx, &results[i])
			analyses[i] = &a
			texts[i] = text

			mu.Lock()
			if fetched {
				stats.Fetched++
			} else if a.Confidence == types.ConfidenceFailed {
				stats.FetchFailures++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
}

// enrichOne analyzes a single result. Video pages are never fetched; raw
// files (test definitions, detection rules, markdown) are analyzed as
// files, everything else as an HTML page.
func (r *Runner) enrichOne(ctx context.Context, res *types.SearchResult) (types.ContentAnalysis, string, bool) {
	if fetch.IsVideoURL(res.URL) {
		res.Title = fetch.CleanVideoTitle(res.Title)
		return r.Analyzer.Analyze("", types.FetchSkipped), "", false
	}

	fetchURL := fetch.RewriteGitHubBlob(res.URL)
	page, err := r.Fetcher.Get(ctx, fetchURL)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("url", res.URL).Err(err).Msg("enrichment fetch failed")
	}
	if page.Status != types.FetchOK {
		return r.Analyzer.Analyze("", page.Status), "", false
	}

	filename := path.Base(fetchURL)
	if structuredExts[strings.ToLower(path.Ext(filename))] && !strings.Contains(page.ContentType, "html") {
		text := string(page.Body)
		return r.Analyzer.AnalyzeFile(text, filename, page.Status), text, true
	}

	a, text := r.Analyzer.AnalyzePage(page.Body, fetchURL, page.Status)
	return a, text, true
}

// validateLinks drops unreachable results. It only runs when enrichment is
// off; enrichment subsumes it.
func (r *Runner) validateLinks(ctx context.Context, results []types.SearchResult, stats *Stats) []types.SearchResult {
	workers := r.Config.Fetch.Workers
	if workers <= 0 {
		workers = 4
	}

	alive := make([]bool, len(results))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range results {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			alive[i] = r.Fetcher.Validate(ctx, results[i].URL)
		}(i)
	}
	wg.Wait()

	kept := results[:0]
	for i, res := range results {
		if !alive[i] {
			stats.DeadLinks++
			continue
		}
		kept = append(kept, res)
	}
	return kept
}
