// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/pdiddy/source-triage/pkg/types"
)

// highlightClasses are common syntax-highlighter wrapper classes.
var highlightClasses = []string{
	"highlight", "codehilite", "prism", "rouge", "syntax", "code-block", "sourceCode",
}

// AnalyzePage analyzes a fetched HTML page: article text is extracted with
// boilerplate (navigation, sidebars, footers) stripped, and code blocks are
// counted on the full document. The extracted text is returned alongside the
// analysis so the scorer can run noise checks against it.
func (a *Analyzer) AnalyzePage(body []byte, pageURL string, status types.FetchStatus) (types.ContentAnalysis, string) {
	if status != types.FetchOK {
		return a.analyze("", status, 0), ""
	}
	text := ExtractText(body, pageURL)
	return a.analyze(text, status, CountCodeBlocks(body)), text
}

// ExtractText returns the main article text of an HTML page. Readability
// extraction strips boilerplate; when it finds nothing usable the whole
// document text is used instead, so thin pages still get word-counted.
func ExtractText(body []byte, pageURL string) string {
	u, _ := url.Parse(pageURL)

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return collapseSpace(text)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()
	return collapseSpace(doc.Text())
}

// CountCodeBlocks counts structural code blocks in an HTML document:
// pre elements, block-level code elements outside pre, and syntax
// highlighter wrappers. Nested constructs count once.
func CountCodeBlocks(body []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0
	}

	seen := make(map[*html.Node]struct{})
	add := func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			seen[n] = struct{}{}
		}
	}

	doc.Find("pre").Each(add)

	doc.Find("code").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("pre").Length() > 0 {
			return // counted via the pre wrapper
		}
		if strings.Contains(s.Text(), "\n") {
			for _, n := range s.Nodes {
				seen[n] = struct{}{}
			}
		}
	})

	for _, cls := range highlightClasses {
		doc.Find("[class*='" + cls + "']").Each(func(i int, s *goquery.Selection) {
			if s.Find("pre").Length() > 0 {
				return // counted via the inner pre
			}
			add(i, s)
		})
	}

	return len(seen)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
