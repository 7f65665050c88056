package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/csheth/docview/internal/config"
	"github.com/csheth/docview/internal/service"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool

	// settings is resolved before any sub-command runs.
	settings config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docview",
	Short: "Read a document next to its OCR text and ask it questions",
	Long: `docview shows a PDF's OCR-extracted page text in the terminal, tracks
how long you spend on each page, and answers questions about the document
using a remote question-answering service. Answers link back to the
sentence on the page they came from.

Configuration is read from docview.yaml (./ or ~/.docview), DOCVIEW_*
environment variables, and flags, in increasing order of precedence.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(cfgFile)
		if err := loader.BindFlags(cmd.Flags()); err != nil {
			return err
		}
		cfg, err := loader.Load()
		if err != nil {
			return err
		}
		settings = cfg
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./docview.yaml or ~/.docview/docview.yaml)")
	flags.StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
	flags.String("base-url", "", "OCR/QA service base URL")
	flags.Duration("request-timeout", 0, "timeout for each service request")
	flags.String("cache-dir", "", "directory for cached OCR results")
	flags.String("log-file", "", "log file used while the viewer is open")

	rootCmd.AddCommand(versionCmd)
}

// cliLogger writes warnings to stderr, or everything with --verbose.
func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClient(log *slog.Logger) (*service.Client, error) {
	return service.New(service.Config{
		BaseURL: settings.BaseURL,
		Timeout: settings.RequestTimeout,
		Logger:  log,
	})
}

func ensureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func closeQuietly(c io.Closer, log *slog.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn(fmt.Sprintf("close %s", what), "error", err)
	}
}
