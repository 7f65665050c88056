package pages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func fixedCount(n int) func(string) (int, error) {
	return func(string) (int, error) { return n, nil }
}

func TestLoaderUsesOCRAndFillsCache(t *testing.T) {
	t.Parallel()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	path := writeFixture(t, "pdf-bytes")
	calls := 0
	loader := &Loader{
		Cache:      cache,
		CountPages: fixedCount(2),
		OCR: func(ctx context.Context, p string) (Collection, error) {
			calls++
			return Collection{"1": "one", "2": "two"}, nil
		},
	}

	doc, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Source != SourceOCR || doc.TotalPages != 2 || doc.Pages["2"] != "two" {
		t.Fatalf("unexpected document %#v", doc)
	}

	doc, err = loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if doc.Source != SourceCache {
		t.Fatalf("expected cache hit, got %s", doc.Source)
	}
	if calls != 1 {
		t.Fatalf("OCR called %d times", calls)
	}
}

func TestLoaderFallsBackToTextLayer(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "pdf-bytes")
	loader := &Loader{
		CountPages:    fixedCount(1),
		FallbackLocal: true,
		OCR: func(ctx context.Context, p string) (Collection, error) {
			return nil, errors.New("service down")
		},
		ExtractText: func(string) (Collection, error) {
			return Collection{"1": "embedded"}, nil
		},
	}
	doc, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Source != SourcePDF || doc.Pages["1"] != "embedded" {
		t.Fatalf("unexpected document %#v", doc)
	}
}

func TestLoaderSurfacesOCRErrorWithoutFallback(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "pdf-bytes")
	boom := errors.New("service down")
	loader := &Loader{
		CountPages: fixedCount(1),
		OCR: func(ctx context.Context, p string) (Collection, error) {
			return nil, boom
		},
	}
	if _, err := loader.Load(context.Background(), path); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped OCR error, got %v", err)
	}
}

func TestLoaderCountsTextPagesWhenPageCountFails(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, "not really a pdf")
	loader := &Loader{
		CountPages: func(string) (int, error) { return 0, errors.New("malformed xref") },
		OCR: func(ctx context.Context, p string) (Collection, error) {
			return Collection{"1": "one", "2": "two", "3": "three"}, nil
		},
	}
	doc, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.TotalPages != 3 || doc.Source != SourceOCR {
		t.Fatalf("expected 3 pages from OCR, got %#v", doc)
	}
}

func TestLoadSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pages.json")
	if err := os.WriteFile(path, []byte(`{"pages":{"1":"a","2":"b","3":"c"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if doc.TotalPages != 3 || doc.Source != SourceSnapshot {
		t.Fatalf("unexpected document %#v", doc)
	}
}
