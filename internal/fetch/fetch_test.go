// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testClient(timeout time.Duration) *Client {
	return New(types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: "source-triage-test/1.0",
		},
	})
}

func TestGetOK(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>hello</html>"))
	}))
	defer ts.Close()

	page, err := testClient(5 * time.Second).Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	if page.Status != types.FetchOK {
		t.Errorf("Status = %q, want ok", page.Status)
	}
	if string(page.Body) != "<html>hello</html>" {
		t.Errorf("Body = %q", page.Body)
	}
	if page.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", page.ContentType)
	}
	if gotUA != "source-triage-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestGetHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	page, err := testClient(5 * time.Second).Get(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("want error for 404")
	}
	if page.Status != types.FetchHTTPError {
		t.Errorf("Status = %q, want http_error", page.Status)
	}
	if page.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", page.StatusCode)
	}
}

func TestGetTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	page, err := testClient(20 * time.Millisecond).Get(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("want error for timed-out request")
	}
	if page.Status != types.FetchTimeout {
		t.Errorf("Status = %q, want timeout", page.Status)
	}
}

func TestGetConnectionRefused(t *testing.T) {
	page, err := testClient(time.Second).Get(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("want error for refused connection")
	}
	if page.Status != types.FetchTimeout {
		t.Errorf("Status = %q, want timeout", page.Status)
	}
}

func TestRateLimitSpacesRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := New(types.FetchConfig{
		HTTPConfig:   types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "t"},
		RequestDelay: 30 * time.Millisecond,
	})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(context.Background(), ts.URL)
		}()
	}
	wg.Wait()

	// Three requests with a 30 ms spacing need at least 60 ms in total.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("3 requests finished in %v, want rate limiting to space them", elapsed)
	}
}

func TestValidate(t *testing.T) {
	var headCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&headCalls, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := testClient(5 * time.Second)
	if !c.Validate(context.Background(), ts.URL) {
		t.Error("Validate should pass for a 200 response")
	}
	if atomic.LoadInt32(&headCalls) != 1 {
		t.Errorf("head calls = %d, want 1", headCalls)
	}

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()
	if c.Validate(context.Background(), gone.URL) {
		t.Error("Validate should fail for a 410 response")
	}
}

func TestValidateFallsBackToGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if !testClient(5 * time.Second).Validate(context.Background(), ts.URL) {
		t.Error("Validate should fall back to GET when HEAD is rejected")
	}
}

func TestRewriteGitHubBlob(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://github.com/redcanaryco/atomic-red-team/blob/master/atomics/T1003.006/T1003.006.yaml",
			"https://raw.githubusercontent.com/redcanaryco/atomic-red-team/master/atomics/T1003.006/T1003.006.yaml",
		},
		{
			"https://github.com/SigmaHQ/sigma/blob/master/rules/windows/builtin/security/win_security_dcsync.yml",
			"https://raw.githubusercontent.com/SigmaHQ/sigma/master/rules/windows/builtin/security/win_security_dcsync.yml",
		},
		// Repo root and tree URLs pass through.
		{"https://github.com/SigmaHQ/sigma", "https://github.com/SigmaHQ/sigma"},
		{"https://github.com/SigmaHQ/sigma/tree/master/rules", "https://github.com/SigmaHQ/sigma/tree/master/rules"},
		{"https://example.com/blob/main/x", "https://example.com/blob/main/x"},
	}
	for _, tt := range tests {
		if got := RewriteGitHubBlob(tt.in); got != tt.want {
			t.Errorf("RewriteGitHubBlob(%q)\n got %q\nwant %q", tt.in, got, tt.want)
		}
	}
}

func TestIsVideoURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://youtu.be/abc123", true},
		{"https://vimeo.com/12345", true},
		{"https://m.youtube.com/watch?v=abc123", true},
		{"https://example.com/video", false},
	}
	for _, tt := range tests {
		if got := IsVideoURL(tt.url); got != tt.want {
			t.Errorf("IsVideoURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestCleanVideoTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DCSync Attack Explained - YouTube", "DCSync Attack Explained"},
		{"DCSync Attack Explained | YouTube", "DCSync Attack Explained"},
		{"Detection   Deep  Dive", "Detection Deep Dive"},
		{"Plain title", "Plain title"},
	}
	for _, tt := range tests {
		if got := CleanVideoTitle(tt.in); got != tt.want {
			t.Errorf("CleanVideoTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
