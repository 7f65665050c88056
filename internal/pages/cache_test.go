package pages

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	src := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4\nhello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	key, err := cache.Key(src)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if _, ok := cache.Get(key); ok {
		t.Fatal("empty cache should miss")
	}
	want := Collection{"1": "hello"}
	if err := cache.Put(key, "ocr", want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := cache.Get(key)
	if !ok || got["1"] != "hello" {
		t.Fatalf("Get() = %#v, %v", got, ok)
	}
	if _, err := os.Stat(filepath.Join(cache.Dir(), key+collectionSuffix+partialSuffix)); !os.IsNotExist(err) {
		t.Fatalf("partial file should be renamed away, stat err = %v", err)
	}
}

func TestCacheExpiresEntries(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	if err := cache.Put("abc", "ocr", Collection{"1": "x"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("abc"); ok {
		t.Fatal("stale entry should miss")
	}
}

func TestCacheKeyChangesWithContent(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	_ = os.WriteFile(a, []byte("one"), 0o644)
	_ = os.WriteFile(b, []byte("two"), 0o644)
	ka, _ := cache.Key(a)
	kb, _ := cache.Key(b)
	if ka == "" || ka == kb {
		t.Fatalf("expected distinct keys, got %q and %q", ka, kb)
	}
}
