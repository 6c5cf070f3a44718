// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(t.TempDir())

	type payload struct {
		URLs []string `json:"urls"`
	}
	c.Put("search_T1003", payload{URLs: []string{"https://a", "https://b"}}, time.Hour)

	var got payload
	require.True(t, c.Get("search_T1003", &got))
	assert.Equal(t, []string{"https://a", "https://b"}, got.URLs)
}

func TestGetMissForAbsentKey(t *testing.T) {
	c := New(t.TempDir())
	var out string
	assert.False(t, c.Get("never_stored", &out))
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(t.TempDir())
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("k", "v", time.Minute)

	var out string
	require.True(t, c.Get("k", &out), "fresh entry should hit")

	// Advance past the TTL; the entry stays on disk but reads as a miss.
	c.now = func() time.Time { return base.Add(time.Minute) }
	assert.False(t, c.Get("k", &out))
}

func TestKeyNamespacesDoNotCollide(t *testing.T) {
	c := New(t.TempDir())
	c.Put("search/T1003", "one", time.Hour)
	c.Put("lookup/T1003", "two", time.Hour)

	var a, b string
	require.True(t, c.Get("search/T1003", &a))
	require.True(t, c.Get("lookup/T1003", &b))
	assert.Equal(t, "one", a)
	assert.Equal(t, "two", b)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	c.Put("k", "v", time.Hour)

	// Overwrite with garbage; Get must degrade to a miss, not error.
	require.NoError(t, os.WriteFile(c.keyPath("k"), []byte("{not json"), 0o644))
	var out string
	assert.False(t, c.Get("k", &out))
}

func TestStatsAndClear(t *testing.T) {
	c := New(t.TempDir())
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("fresh", 1, time.Hour)
	c.Put("stale", 2, time.Minute)

	c.now = func() time.Time { return base.Add(10 * time.Minute) }
	valid, expired := c.Stats()
	assert.Equal(t, 1, valid)
	assert.Equal(t, 1, expired)

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	valid, expired = c.Stats()
	assert.Zero(t, valid)
	assert.Zero(t, expired)
}

func TestClearOnMissingDir(t *testing.T) {
	c := New(t.TempDir() + "/nonexistent")
	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
