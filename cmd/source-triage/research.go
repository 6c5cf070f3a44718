// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/source-triage/internal/analyze"
	"github.com/pdiddy/source-triage/internal/archive"
	"github.com/pdiddy/source-triage/internal/cache"
	"github.com/pdiddy/source-triage/internal/fetch"
	"github.com/pdiddy/source-triage/internal/profile"
	"github.com/pdiddy/source-triage/internal/report"
	"github.com/pdiddy/source-triage/internal/research"
	"github.com/pdiddy/source-triage/internal/source"
	"github.com/pdiddy/source-triage/pkg/types"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultDelay      = 2 * time.Second
	defaultRunTimeout = 10 * time.Minute
	defaultUserAgent  = "source-triage/0.1"
)

var researchCmd = &cobra.Command{
	Use:   "research [technique-id]",
	Short: "Discover and score research sources for a technique",
	Long: `Research runs the full triage pipeline for one attack technique ID
(e.g. T1003.006): knowledge-base lookup, provider discovery, optional page
enrichment, relevance scoring, and aggregation. The ranked report is
written to stdout or --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("profile", "", "YAML file overriding the built-in scoring profile")
	researchCmd.Flags().Bool("enrich", false, "fetch and analyze result pages before scoring")
	researchCmd.Flags().Bool("validate-links", false, "drop unreachable results (implied off when --enrich is set)")
	researchCmd.Flags().Int("workers", 0, "concurrent page fetches (default 4)")
	researchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	researchCmd.Flags().Duration("delay", 0, "delay between page fetches (default 2s)")
	researchCmd.Flags().Duration("run-timeout", 0, "overall run deadline (default 10m)")
	researchCmd.Flags().Int("max-results", 0, "cap on results kept after deduplication (0 = no cap)")
	researchCmd.Flags().String("format", "markdown", "report format: markdown, json, or html")
	researchCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	researchCmd.Flags().Bool("archive", false, "save the completed run to the archive")
	researchCmd.Flags().String("archive-dir", "", "archive directory (default archive)")
	researchCmd.Flags().String("cache-dir", "", "cache directory (default output/.cache)")
	researchCmd.Flags().Bool("no-cache", false, "bypass the search and lookup cache")
	researchCmd.Flags().String("github-token", "", "GitHub API token for the reports scanner (default: .secrets/github-token)")
	researchCmd.Flags().BoolP("verbose", "v", false, "record applied noise penalties on every score")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := researchConfig(cmd)

	profilePath, _ := cmd.Flags().GetString("profile")
	if profilePath == "" {
		profilePath = cfg.ProfilePath
	}
	prof, err := profile.Load(profilePath)
	if err != nil {
		return err
	}

	analyzer, err := analyze.New(prof)
	if err != nil {
		return err
	}

	var store *cache.Cache
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		store = cache.New(cfg.Cache.Dir)
	}

	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	ua := cfg.Fetch.UserAgent
	token, _ := cmd.Flags().GetString("github-token")

	attack := &source.Attack{
		Client: client, Profile: prof,
		Cache: store, CacheTTL: cfg.Cache.LookupTTL, UA: ua,
	}
	providers := []source.Provider{
		&source.DuckDuckGo{Client: client, Profile: prof, Cache: store, CacheTTL: cfg.Cache.SearchTTL, UA: ua},
		&source.Atomics{Client: client, Profile: prof, Cache: store, CacheTTL: cfg.Cache.LookupTTL, UA: ua},
		&source.Reports{Client: client, Profile: prof, Cache: store, CacheTTL: cfg.Cache.LookupTTL, UA: ua,
			Token: secretDefault("github-token", token)},
		&source.Feeds{Client: client, Profile: prof, Cache: store, CacheTTL: cfg.Cache.SearchTTL, UA: ua},
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	runner := &research.Runner{
		Profile:   prof,
		Config:    cfg,
		Fetcher:   fetch.New(cfg.Fetch),
		Analyzer:  analyzer,
		Attack:    attack,
		Providers: providers,
		Verbose:   verbose,
	}

	run, err := runner.Run(cmd.Context(), args[0], os.Stderr)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("archive"); save {
		arc, err := archive.NewStore(cfg.Archive)
		if err != nil {
			return err
		}
		defer arc.Close()
		id, err := arc.SaveRun(cmd.Context(), run)
		if err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "archived as run %d\n", id)
	}

	format, _ := cmd.Flags().GetString("format")
	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return report.Write(out, run, report.Format(format))
}

// researchConfig merges flag values over config-file values over defaults.
func researchConfig(cmd *cobra.Command) types.ResearchConfig {
	cfg := types.ResearchConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   durationSetting(cmd, "timeout", "fetch.timeout", defaultTimeout),
				UserAgent: stringSetting("fetch.user_agent", defaultUserAgent),
			},
			RequestDelay: durationSetting(cmd, "delay", "fetch.request_delay", defaultDelay),
			Workers:      intSetting(cmd, "workers", "fetch.workers", 4),
		},
		Cache: types.CacheConfig{
			Dir:       pathSetting(cmd, "cache-dir", "cache.dir", "output/.cache"),
			SearchTTL: durationSetting(cmd, "", "cache.search_ttl", 24*time.Hour),
			LookupTTL: durationSetting(cmd, "", "cache.lookup_ttl", 168*time.Hour),
		},
		Archive:     archiveConfig(cmd),
		ProfilePath: stringSetting("profile_path", ""),
		MaxResults:  intSetting(cmd, "max-results", "max_results", 0),
		RunTimeout:  durationSetting(cmd, "run-timeout", "run_timeout", defaultRunTimeout),
	}

	enrich, _ := cmd.Flags().GetBool("enrich")
	validate, _ := cmd.Flags().GetBool("validate-links")
	cfg.Fetch.EnrichContent = enrich || viper.GetBool("fetch.enrich_content")
	cfg.Fetch.ValidateLinks = validate || viper.GetBool("fetch.validate_links")
	return cfg
}

func archiveConfig(cmd *cobra.Command) types.ArchiveConfig {
	return types.ArchiveConfig{
		Dir:        pathSetting(cmd, "archive-dir", "archive.dir", "archive"),
		MaxResults: intSetting(cmd, "limit", "archive.max_results", 0),
	}
}

// durationSetting resolves a duration from flag, then config file, then default.
func durationSetting(cmd *cobra.Command, flag, key string, fallback time.Duration) time.Duration {
	if flag != "" {
		if v, _ := cmd.Flags().GetDuration(flag); v != 0 {
			return v
		}
	}
	if v := viper.GetDuration(key); v != 0 {
		return v
	}
	return fallback
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if flag != "" && cmd.Flags().Lookup(flag) != nil {
		if v, _ := cmd.Flags().GetInt(flag); v != 0 {
			return v
		}
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func pathSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if flag != "" && cmd.Flags().Lookup(flag) != nil {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			return v
		}
	}
	return stringSetting(key, fallback)
}

func stringSetting(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}
