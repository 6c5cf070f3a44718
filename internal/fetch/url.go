// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// RewriteGitHubBlob converts a github.com blob URL into its
// raw.githubusercontent.com equivalent so the raw file contents can be
// fetched instead of the HTML file browser. Other URLs pass through
// unchanged.
func RewriteGitHubBlob(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(strings.TrimPrefix(u.Host, "www."), "github.com") {
		return rawURL
	}

	// /<owner>/<repo>/blob/<ref>/<path...>
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 5 || parts[2] != "blob" {
		return rawURL
	}

	raw := *u
	raw.Scheme = "https"
	raw.Host = "raw.githubusercontent.com"
	raw.Path = "/" + strings.Join(append(parts[:2], parts[3:]...), "/")
	raw.RawQuery = ""
	raw.Fragment = ""
	return raw.String()
}

var videoHosts = map[string]bool{
	"youtube.com": true,
	"youtu.be":    true,
	"vimeo.com":   true,
}

// IsVideoURL reports whether a URL points at a video platform. Video pages
// are never fetched for enrichment; only their titles are scored.
func IsVideoURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	return videoHosts[host]
}

// videoTitleSuffix strips platform branding appended to video titles.
var videoTitleSuffix = regexp.MustCompile(`(?i)\s*[-|\x{2013}\x{2014}]\s*(YouTube|Vimeo)\s*$`)

// CleanVideoTitle removes platform suffixes and collapses whitespace in a
// video title.
func CleanVideoTitle(title string) string {
	title = videoTitleSuffix.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}
