package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csheth/docview/internal/service"
	"github.com/csheth/docview/internal/stub"
)

func TestRemoteDocumentCleanupRemovesDownload(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "current.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 placeholder"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := stub.NewServer(stub.Fixture{
		Pages:   map[string]string{"1": "The sky is blue.", "2": "Water boils at 100C."},
		PDFPath: pdfPath,
	}, log)
	srv := httptest.NewServer(backend)
	defer srv.Close()

	client, err := service.New(service.Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Logger: log})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	dir := t.TempDir()
	load, cleanup := remoteDocument(client, dir, log)

	doc, err := load(context.Background())
	if err != nil {
		t.Fatalf("load remote document: %v", err)
	}
	if doc.TotalPages != 2 || doc.Pages["2"] != "Water boils at 100C." {
		t.Fatalf("unexpected document %#v", doc)
	}
	if _, err := os.Stat(doc.Path); err != nil {
		t.Fatalf("downloaded file should exist while viewing: %v", err)
	}

	cleanup()
	if _, err := os.Stat(doc.Path); !os.IsNotExist(err) {
		t.Fatalf("downloaded file should be removed, stat err = %v", err)
	}
	leftovers, err := filepath.Glob(filepath.Join(dir, "remote-*.pdf"))
	if err != nil || len(leftovers) != 0 {
		t.Fatalf("unexpected leftovers %v (err %v)", leftovers, err)
	}
}
