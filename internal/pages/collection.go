// Package pages holds the page text collection shown next to the document
// and the loaders that produce it.
package pages

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Collection maps a page identifier ("1", "2", ...) to its extracted text.
// It is treated as immutable once loaded.
type Collection map[string]string

// FromSlice numbers texts from 1 in order.
func FromSlice(texts []string) Collection {
	c := make(Collection, len(texts))
	for i, text := range texts {
		c[strconv.Itoa(i+1)] = text
	}
	return c
}

// Keys returns the page identifiers in natural order: integer ids ascending,
// then any other ids lexically.
func (c Collection) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := pageIndex(keys[i])
		b, bok := pageIndex(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Texts returns the page texts in natural order.
func (c Collection) Texts() []string {
	keys := c.Keys()
	texts := make([]string, 0, len(keys))
	for _, key := range keys {
		texts = append(texts, c[key])
	}
	return texts
}

// Page returns the text of a 1-based page number.
func (c Collection) Page(n int) (string, bool) {
	text, ok := c[strconv.Itoa(n)]
	return text, ok
}

// Lookup returns the text stored under a page identifier.
func (c Collection) Lookup(id string) (string, bool) {
	text, ok := c[id]
	return text, ok
}

func (c Collection) Len() int { return len(c) }

// Search returns the page numbers, ascending, whose text contains term
// case-insensitively. Blank terms match nothing.
func (c Collection) Search(term string) []int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var hits []int
	for _, key := range c.Keys() {
		n, ok := pageIndex(key)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(c[key]), term) {
			hits = append(hits, n)
		}
	}
	return hits
}

func pageIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

// OCRResponse is the body returned by the OCR service.
type OCRResponse struct {
	Pages Collection `json:"pages"`
}

// Decode parses an OCR response body.
func Decode(data []byte) (Collection, error) {
	var resp OCRResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	if resp.Pages == nil {
		return Collection{}, nil
	}
	return resp.Pages, nil
}
