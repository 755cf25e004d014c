package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vlr-matches/internal/match"
)

func testMatch(url string) *match.Match {
	return &match.Match{
		Date:  "Saturday, February 14th",
		Time:  "12:00 PM EST",
		Team1: "Sentinels",
		Team2: "LOUD",
		Score: "2 : 1",
		URL:   url,
	}
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), ttl, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t, time.Hour)
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	m := testMatch(url)

	c.Set(url, m)

	got, ok := c.Get(url)
	if !ok {
		t.Fatal("expected cache hit immediately after Set")
	}
	if *got != *m {
		t.Errorf("round-tripped match differs: got %+v, expected %+v", *got, *m)
	}

	// A second Get with no intervening Set returns the same data.
	again, ok := c.Get(url)
	if !ok {
		t.Fatal("expected repeat hit")
	}
	if *again != *got {
		t.Errorf("repeat Get differs: %+v vs %+v", *again, *got)
	}
}

func TestGetMissForUnknownURL(t *testing.T) {
	c := newTestCache(t, time.Hour)
	if _, ok := c.Get("https://www.vlr.gg/99999/never-stored"); ok {
		t.Error("expected miss for URL never stored")
	}
}

func TestDiskHitAfterMemoryEviction(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour, true, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	urls := []string{
		"https://www.vlr.gg/1/a-vs-b",
		"https://www.vlr.gg/2/c-vs-d",
		"https://www.vlr.gg/3/e-vs-f",
	}
	for _, u := range urls {
		c.Set(u, testMatch(u))
	}

	// Capacity 2: the first URL has been evicted from memory but must
	// still be served from disk.
	got, ok := c.Get(urls[0])
	if !ok {
		t.Fatal("expected disk hit after memory eviction")
	}
	if got.URL != urls[0] {
		t.Errorf("got wrong match: %s", got.URL)
	}
}

func TestExpiryBoundary(t *testing.T) {
	c := newTestCache(t, 100*time.Millisecond)
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	c.Set(url, testMatch(url))

	if _, ok := c.Get(url); !ok {
		t.Fatal("entry should be a hit before TTL")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get(url); ok {
		t.Error("entry should be a miss after TTL")
	}
}

func TestExpiredDiskEntryDeleted(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 50*time.Millisecond, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	c.Set(url, testMatch(url))

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 1 {
		t.Fatalf("expected 1 cache file, got %d", len(files))
	}

	time.Sleep(80 * time.Millisecond)
	c.Get(url)

	// The miss path removes the expired file opportunistically.
	files, _ = filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 0 {
		t.Errorf("expected expired file to be deleted, found %d", len(files))
	}
}

func TestCorruptEntryIsMissAndDeleted(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	c.Set(url, testMatch(url))

	// Corrupt the on-disk entry, then force a disk read by using a
	// fresh cache instance with an empty memory tier.
	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 1 {
		t.Fatalf("expected 1 cache file, got %d", len(files))
	}
	if err := os.WriteFile(files[0], []byte("{not json"), 0644); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	c2, err := New(dir, time.Hour, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c2.Get(url); ok {
		t.Error("corrupt entry should be a miss")
	}
	files, _ = filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 0 {
		t.Error("corrupt file should be deleted on the miss path")
	}
}

func TestInvalidateIdempotent(t *testing.T) {
	c := newTestCache(t, time.Hour)
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	c.Set(url, testMatch(url))

	if !c.Invalidate(url) {
		t.Error("first Invalidate should report removal")
	}
	if c.Invalidate(url) {
		t.Error("second Invalidate should report nothing removed")
	}
	if _, ok := c.Get(url); ok {
		t.Error("invalidated entry should be a miss")
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, time.Hour)
	for _, u := range []string{"https://www.vlr.gg/1/a", "https://www.vlr.gg/2/b"} {
		c.Set(u, testMatch(u))
	}

	if removed := c.Clear(); removed != 4 {
		// 2 disk files + 2 memory entries.
		t.Errorf("expected 4 removals reported, got %d", removed)
	}
	if _, ok := c.Get("https://www.vlr.gg/1/a"); ok {
		t.Error("cleared entry should be a miss")
	}
}

func TestClearExpired(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 50*time.Millisecond, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Set("https://www.vlr.gg/1/old", testMatch("https://www.vlr.gg/1/old"))
	time.Sleep(80 * time.Millisecond)
	c.Set("https://www.vlr.gg/2/fresh", testMatch("https://www.vlr.gg/2/fresh"))

	// Add a corrupt file; it counts as expired.
	if err := os.WriteFile(filepath.Join(dir, "bogus.json"), []byte("???"), 0644); err != nil {
		t.Fatalf("writing bogus file: %v", err)
	}

	if removed := c.ClearExpired(); removed != 2 {
		t.Errorf("expected 2 removals (expired + corrupt), got %d", removed)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 1 {
		t.Errorf("expected the fresh entry to survive, found %d files", len(files))
	}
}

func TestDisabledCacheIsAlwaysMiss(t *testing.T) {
	c, err := New(t.TempDir(), time.Hour, false, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"

	c.Set(url, testMatch(url))
	if _, ok := c.Get(url); ok {
		t.Error("disabled cache must always miss")
	}
	if c.Invalidate(url) {
		t.Error("disabled cache Invalidate must report false")
	}
}

func TestDiskEnvelopeShape(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	url := "https://www.vlr.gg/12345/sentinels-vs-loud"
	c.Set(url, testMatch(url))

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 1 {
		t.Fatalf("expected 1 cache file, got %d", len(files))
	}

	// Key is the 64-hex-char SHA-256 of the URL.
	base := filepath.Base(files[0])
	if len(base) != 64+len(".json") {
		t.Errorf("unexpected cache file name: %s", base)
	}

	raw, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("reading cache file: %v", err)
	}
	var envelope struct {
		URL       string      `json:"url"`
		Timestamp float64     `json:"timestamp"`
		Data      match.Match `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("cache file is not valid JSON: %v", err)
	}
	if envelope.URL != url {
		t.Errorf("envelope url = %q, expected %q", envelope.URL, url)
	}
	if envelope.Timestamp <= 0 {
		t.Error("envelope timestamp should be set")
	}
	if envelope.Data.Team1 != "Sentinels" {
		t.Errorf("envelope data team1 = %q", envelope.Data.Team1)
	}
}

func TestGetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 50*time.Millisecond, true, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Set("https://www.vlr.gg/1/old", testMatch("https://www.vlr.gg/1/old"))
	time.Sleep(80 * time.Millisecond)
	c.Set("https://www.vlr.gg/2/fresh", testMatch("https://www.vlr.gg/2/fresh"))

	stats := c.GetStats()
	if stats.DiskTotal != 2 {
		t.Errorf("DiskTotal = %d, expected 2", stats.DiskTotal)
	}
	if stats.DiskValid != 1 || stats.DiskExpired != 1 {
		t.Errorf("valid/expired = %d/%d, expected 1/1", stats.DiskValid, stats.DiskExpired)
	}
}
