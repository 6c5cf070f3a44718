// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source discovers candidate sources for a technique. Each provider
// queries one upstream (web search, the ATT&CK knowledge base, the atomic
// test repository, the published-reports repository, blog feeds) and returns
// uniform search results tagged with category and query tier.
package source

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/source-triage/pkg/types"
)

// Provider discovers sources from one upstream. Implementations must be
// safe for a single Discover call at a time; DiscoverAll runs providers
// concurrently but never calls one provider twice.
type Provider interface {
	Name() string
	Discover(ctx context.Context, tech types.Technique) ([]types.SearchResult, error)
}

// Output holds the combined discovery results and per-provider failures.
type Output struct {
	Results        []types.SearchResult
	ProviderErrors []string
}

// DiscoverAll fans the technique out to all providers concurrently and
// flattens their results in provider order, so the combined slice is
// deterministic regardless of completion order. A failing provider is
// reported as a warning and skipped; discovery only fails as a whole when
// every provider fails.
func DiscoverAll(ctx context.Context, providers []Provider, tech types.Technique, w io.Writer) (Output, error) {
	if len(providers) == 0 {
		return Output{}, fmt.Errorf("no discovery providers configured")
	}

	results := make([][]types.SearchResult, len(providers))
	errs := make([]error, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i], errs[i] = p.Discover(ctx, tech)
		}(i, p)
	}
	wg.Wait()

	var out Output
	failed := 0
	for i, p := range providers {
		if errs[i] != nil {
			failed++
			msg := fmt.Sprintf("%s: %v", p.Name(), errs[i])
			out.ProviderErrors = append(out.ProviderErrors, msg)
			fmt.Fprintf(w, "warning: provider %s failed: %v\n", p.Name(), errs[i])
			continue
		}
		out.Results = append(out.Results, results[i]...)
	}

	if failed == len(providers) {
		return out, fmt.Errorf("all %d discovery providers failed", len(providers))
	}
	return out, nil
}
