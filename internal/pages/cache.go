package pages

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheSubdir      = "docview/ocr"
	DefaultCacheTTL  = 7 * 24 * time.Hour
	partialSuffix    = ".part"
	collectionSuffix = ".json"
)

// Cache stores OCR results on disk keyed by the digest of the source file,
// so reopening a document does not repeat the OCR round-trip.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	Source   string     `json:"source"`
	CachedAt time.Time  `json:"cachedAt"`
	Pages    Collection `json:"pages"`
}

// NewCache creates the cache directory. An empty dir falls back to the
// user cache directory.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "docview-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Dir() string { return c.dir }

// Key digests the file at path.
func (c *Cache) Key(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns a fresh cached collection.
func (c *Cache) Get(key string) (Collection, bool) {
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl || entry.Pages == nil {
		return nil, false
	}
	return entry.Pages, true
}

// Put writes the collection through a partial file and renames it into
// place so readers never observe a torn entry.
func (c *Cache) Put(key, source string, pages Collection) error {
	data, err := json.MarshalIndent(cacheEntry{
		Source:   source,
		CachedAt: c.now().UTC(),
		Pages:    pages,
	}, "", "  ")
	if err != nil {
		return err
	}
	final := c.pathFor(key)
	partial := final + partialSuffix
	if err := os.WriteFile(partial, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return os.Rename(partial, final)
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, key+collectionSuffix)
}
