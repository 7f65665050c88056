package pages

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var extraneousWhitespace = regexp.MustCompile(`[ \t]+`)

// CountPages reports the number of pages in a PDF file.
func CountPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return n, nil
}

// ExtractText reads the embedded text layer of each page. Pages without a
// text layer map to an empty string so the numbering stays aligned with the
// rendered document.
func ExtractText(path string) (Collection, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimSpace(extraneousWhitespace.ReplaceAllString(text, " ")))
	}
	return FromSlice(texts), nil
}
