package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/service"
	"github.com/csheth/docview/internal/session"
	"github.com/csheth/docview/internal/tui"
)

var (
	viewPagesFile string
	viewRemote    bool
	viewLocal     bool
	viewNoAlt     bool
)

var viewCmd = &cobra.Command{
	Use:   "view [file.pdf]",
	Short: "Open the interactive viewer",
	Long: `Open a document in the interactive viewer.

The page text comes from one of:
  docview view report.pdf              # OCR service, cached, PDF text layer as fallback
  docview view --local report.pdf      # PDF text layer only
  docview view --pages report.json     # a saved OCR response (see: docview ocr --save)
  docview view --remote                # the service's current document and its OCR pages

Keys: ←/→ pages, +/- zoom, tab layout, p pause timer, q ask, j/k and enter
to show an answer on its page, / search, ? help, esc or ctrl+c quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := 0
		if len(args) == 1 {
			sources++
		}
		if viewPagesFile != "" {
			sources++
		}
		if viewRemote {
			sources++
		}
		if sources != 1 {
			return errors.New("give exactly one of a PDF path, --pages or --remote")
		}

		if err := ensureParent(settings.LogFile); err != nil {
			return err
		}
		logFile, err := tea.LogToFile(settings.LogFile, "docview")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
		defer closeQuietly(logFile, log, "log file")

		client, err := newClient(log)
		if err != nil {
			return err
		}

		cfg := tui.Config{
			Asker:        client,
			InitialScale: settings.InitialScale,
			Layout:       settings.LayoutMode(),
			Timeout:      settings.RequestTimeout,
			Logger:       log,
		}
		switch {
		case viewPagesFile != "":
			doc, err := pages.LoadSnapshot(viewPagesFile)
			if err != nil {
				return fmt.Errorf("load pages: %w", err)
			}
			cfg.Document = doc
		case viewRemote:
			load, cleanup := remoteDocument(client, settings.CacheDir, log)
			defer cleanup()
			cfg.Load = load
		default:
			loader, err := documentLoader(client, log, viewLocal)
			if err != nil {
				return err
			}
			path := args[0]
			cfg.Load = func(ctx context.Context) (*pages.Document, error) {
				return loader.Load(ctx, path)
			}
		}

		visibility := session.NewManualSource()
		defer closeQuietly(visibility, log, "visibility source")
		cfg.Visibility = visibility

		opts := []tea.ProgramOption{}
		if settings.AltScreen && !viewNoAlt {
			opts = append(opts, tea.WithAltScreen())
		}
		program := tea.NewProgram(tui.New(cfg), opts...)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			<-ctx.Done()
			program.Quit()
		}()

		log.Info("viewer starting", "base_url", client.BaseURL(), "args", args, "pages", viewPagesFile, "remote", viewRemote)
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("program error: %w", err)
		}
		return nil
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewPagesFile, "pages", "", "saved OCR response to view instead of a PDF")
	viewCmd.Flags().BoolVar(&viewRemote, "remote", false, "view the service's current document")
	viewCmd.Flags().BoolVar(&viewLocal, "local", false, "read page text from the PDF only, without OCR")
	viewCmd.Flags().BoolVar(&viewNoAlt, "no-alt-screen", false, "disable the alternate screen buffer")
	viewCmd.Flags().String("layout", "", "initial layout: split or full")
	viewCmd.Flags().Float64("initial-scale", 0, "initial zoom between 0.6 and 1.5")

	rootCmd.AddCommand(viewCmd)
}

// documentLoader builds the PDF loader: cached OCR results first, then the
// OCR service, then the PDF's own text layer.
func documentLoader(client *service.Client, log *slog.Logger, localOnly bool) (*pages.Loader, error) {
	loader := &pages.Loader{FallbackLocal: true, Logger: log}
	if localOnly {
		return loader, nil
	}
	cache, err := pages.NewCache(filepath.Join(settings.CacheDir, "ocr"), settings.CacheTTL)
	if err != nil {
		return nil, err
	}
	loader.Cache = cache
	loader.OCR = client.OCRFile
	return loader, nil
}

// remoteDocument fetches the service's current PDF into dir and pairs it
// with the service's current OCR pages. The returned cleanup removes the
// downloaded file.
func remoteDocument(client *service.Client, dir string, log *slog.Logger) (tui.DocumentLoader, func()) {
	var (
		mu         sync.Mutex
		downloaded []string
	)
	load := func(ctx context.Context) (*pages.Document, error) {
		link, err := client.Download(ctx)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		f, err := os.CreateTemp(dir, "remote-*.pdf")
		if err != nil {
			return nil, err
		}
		mu.Lock()
		downloaded = append(downloaded, f.Name())
		mu.Unlock()
		if _, err := client.FetchFile(ctx, link, f); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		collection, err := client.CurrentOCR(ctx)
		if err != nil {
			return nil, err
		}
		total, err := pages.CountPages(f.Name())
		if err != nil {
			total = collection.Len()
		}
		return &pages.Document{
			Path:       f.Name(),
			TotalPages: total,
			Pages:      collection,
			Source:     pages.SourceOCR,
		}, nil
	}
	cleanup := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, path := range downloaded {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("remove downloaded document", "path", path, "error", err)
			}
		}
		downloaded = nil
	}
	return load, cleanup
}
