package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Source names where a document's page text came from.
type Source string

const (
	SourceOCR      Source = "ocr"
	SourceCache    Source = "cache"
	SourcePDF      Source = "pdf"
	SourceSnapshot Source = "snapshot"
)

// Document is everything the viewer needs once loading completes.
type Document struct {
	Path       string
	TotalPages int
	Pages      Collection
	Source     Source
}

// OCRFunc sends a file to the OCR service.
type OCRFunc func(ctx context.Context, path string) (Collection, error)

// Loader resolves a PDF into a Document: page count from the PDF itself,
// page text from the cache, the OCR service, or the embedded text layer.
type Loader struct {
	OCR           OCRFunc
	Cache         *Cache
	FallbackLocal bool
	Logger        *slog.Logger

	// CountPages and ExtractText default to the package functions.
	CountPages  func(path string) (int, error)
	ExtractText func(path string) (Collection, error)
}

// Load reads path and its page text. OCR failures fall back to the PDF
// text layer when FallbackLocal is set. When the PDF's page count cannot be
// read, the number of pages with text is used instead.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	count, extract := l.CountPages, l.ExtractText
	if count == nil {
		count = CountPages
	}
	if extract == nil {
		extract = ExtractText
	}
	total, err := count(path)
	if err != nil {
		log.Warn("page count failed", "path", path, "error", err)
		total = 0
	}
	doc := &Document{Path: path, TotalPages: total}

	var key string
	if l.Cache != nil {
		if key, err = l.Cache.Key(path); err != nil {
			log.Warn("cache key failed", "path", path, "error", err)
		} else if cached, ok := l.Cache.Get(key); ok {
			return doc.with(cached, SourceCache), nil
		}
	}

	var ocrErr error
	if l.OCR != nil {
		collection, err := l.OCR(ctx, path)
		if err == nil {
			doc.with(collection, SourceOCR)
			if l.Cache != nil && key != "" {
				if err := l.Cache.Put(key, string(SourceOCR), collection); err != nil {
					log.Warn("cache write failed", "path", path, "error", err)
				}
			}
			return doc, nil
		}
		ocrErr = err
		log.Error("ocr failed", "path", path, "error", err)
	}

	if !l.FallbackLocal {
		if ocrErr == nil {
			ocrErr = errors.New("no ocr service configured")
		}
		return nil, fmt.Errorf("load page text: %w", ocrErr)
	}
	collection, err := extract(path)
	if err != nil {
		return nil, errors.Join(ocrErr, err)
	}
	return doc.with(collection, SourcePDF), nil
}

func (d *Document) with(collection Collection, source Source) *Document {
	d.Pages = collection
	d.Source = source
	if d.TotalPages <= 0 {
		d.TotalPages = collection.Len()
	}
	return d
}

// LoadSnapshot reads a saved OCR response ({"pages": {...}}) from disk. The
// page count is the number of pages in the snapshot.
func LoadSnapshot(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	collection, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Document{
		Path:       path,
		TotalPages: collection.Len(),
		Pages:      collection,
		Source:     SourceSnapshot,
	}, nil
}
