// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-triage/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived triage runs (list, search, show)",
	Long: `Archive manages the local SQLite store of completed runs. Use
subcommands to list past runs, full-text search archived results, or
reload one run's scored results.`,
}

// --- list subcommand ---

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	techniqueID, _ := cmd.Flags().GetString("technique")
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := store.ListRuns(cmd.Context(), techniqueID, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-12s  %-30s  %-17s  %-8s  %s\n",
		"Run", "Technique", "Name", "Started", "Results", "Excluded")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range runs {
		name := r.TechniqueName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-6d  %-12s  %-30s  %-17s  %-8d  %d\n",
			r.ID, r.TechniqueID, name, r.StartedAt.Format("2006-01-02 15:04"),
			r.ResultCount, r.ExcludedCount)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- search subcommand ---

var archiveSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over archived result titles and snippets",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArchiveSearch,
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(hits)
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, h := range hits {
		fmt.Fprintf(os.Stdout, "%d. [%s, run %d] %s (%.0f %s)\n   %s\n",
			i+1, h.TechniqueID, h.RunID, h.Title, h.Score, h.Label, h.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d matches\n", len(hits))
	return nil
}

// --- show subcommand ---

var archiveShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Reload one archived run's scored results",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("run ID must be numeric, got %q", args[0])
	}

	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.LoadRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no archived run with ID %d", runID)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(results)
	}

	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%d. %s (%.0f %s)\n   %s\n",
			i+1, r.Title, r.Score.Value, r.Score.Label, r.URL)
		if r.Analysis != nil {
			fmt.Fprintf(os.Stdout, "   %d words (%s), confidence %s\n",
				r.Analysis.WordCount, r.Analysis.Depth, r.Analysis.Confidence)
		}
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "", "archive directory (default archive)")
	archiveCmd.PersistentFlags().Int("limit", 0, "maximum rows returned (0 = store default)")
	archiveCmd.PersistentFlags().Bool("json", false, "output as JSON")

	archiveListCmd.Flags().String("technique", "", "filter runs by technique ID")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveShowCmd)

	rootCmd.AddCommand(archiveCmd)
}
