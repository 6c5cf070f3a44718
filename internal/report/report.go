// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a completed run as markdown, JSON, or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/source-triage/internal/research"
	"github.com/pdiddy/source-triage/pkg/types"
)

// Format names an output renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Write renders the run in the requested format.
func Write(w io.Writer, run *research.RunResult, format Format) error {
	switch format {
	case FormatMarkdown:
		return WriteMarkdown(w, run)
	case FormatJSON:
		return WriteJSON(w, run)
	case FormatHTML:
		return WriteHTML(w, run)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON emits the complete run, excluded results included, as indented
// JSON for downstream tooling.
func WriteJSON(w io.Writer, run *research.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// WriteMarkdown renders the human-readable triage report.
func WriteMarkdown(w io.Writer, run *research.RunResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Source triage: %s", run.Technique.ID)
	if run.Technique.Name != "" {
		fmt.Fprintf(&b, " (%s)", run.Technique.Name)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Run started %s, finished in %s.\n\n",
		run.StartedAt.Format("2006-01-02 15:04 MST"), run.Duration.Round(time.Second))

	fmt.Fprintf(&b, "## Results (%d)\n\n", len(run.Summary.Results))
	if len(run.Summary.Results) == 0 {
		b.WriteString("No sources scored above the minimum threshold.\n\n")
	}
	for _, part := range run.Summary.ByCategory() {
		fmt.Fprintf(&b, "### %s (%d)\n\n", part.Category, len(part.Results))
		for i, r := range part.Results {
			writeResult(&b, i+1, r)
		}
	}

	if len(run.Summary.Gaps) > 0 {
		b.WriteString("## Coverage gaps\n\n")
		for _, g := range run.Summary.Gaps {
			fmt.Fprintf(&b, "- `%s`: %d of %d wanted results\n", g.Category, g.Found, g.Want)
		}
		b.WriteString("\n")
	}

	if n := len(run.Summary.Excluded); n > 0 {
		fmt.Fprintf(&b, "## Excluded (%d below threshold)\n\n", n)
		for _, r := range run.Summary.Excluded {
			fmt.Fprintf(&b, "- [%.0f] %s (<%s>)\n", r.Score.Value, orURL(r.Title, r.URL), r.URL)
		}
		b.WriteString("\n")
	}

	if len(run.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range run.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n\n%d discovered, %d duplicates removed, %d excluded.\n",
		run.Stats.Discovered, run.Stats.Duplicates, run.Stats.Excluded)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, rank int, r types.ScoredResult) {
	fmt.Fprintf(b, "#### %d. %s\n\n", rank, orURL(r.Title, r.URL))
	fmt.Fprintf(b, "- URL: <%s>\n", r.URL)
	fmt.Fprintf(b, "- Score: %.0f (%s)\n", r.Score.Value, r.Score.Label)
	fmt.Fprintf(b, "- Tier %d, %s\n", r.Tier, r.Domain)

	if a := r.Analysis; a != nil {
		fmt.Fprintf(b, "- Content: %d words (%s), %d code blocks, confidence %s\n",
			a.WordCount, a.Depth, a.CodeBlocks, a.Confidence)
		if len(a.Focus) > 0 {
			fmt.Fprintf(b, "- Focus: %s\n", joinFocus(a.Focus))
		}
		if summary := a.MarkerSummary(); summary != "" {
			fmt.Fprintf(b, "- Markers: %s\n", summary)
		}
	}

	for _, p := range r.Score.Penalties {
		fmt.Fprintf(b, "- Penalty: %s on %s (%.0f)\n", p.Category, p.Scope, p.Amount)
	}

	if r.Snippet != "" {
		fmt.Fprintf(b, "\n> %s\n", r.Snippet)
	}
	b.WriteString("\n")
}

// WriteHTML renders the markdown report through goldmark with a minimal
// standalone wrapper.
func WriteHTML(w io.Writer, run *research.RunResult) error {
	var md strings.Builder
	if err := WriteMarkdown(&md, run); err != nil {
		return err
	}

	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body strings.Builder
	if err := gm.Convert([]byte(md.String()), &body); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Source triage: %s</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; }
blockquote { color: #555; border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; }
code { background: #f4f4f4; padding: 0 0.2rem; }
</style>
</head>
<body>
%s</body>
</html>
`, run.Technique.ID, body.String())
	return err
}

func orURL(title, url string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	return url
}

func joinFocus(tags []types.FocusTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
