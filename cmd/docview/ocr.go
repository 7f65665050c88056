package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/csheth/docview/internal/pages"
)

var (
	ocrSave    string
	ocrCurrent bool
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file.pdf]",
	Short: "Extract page text with the OCR service",
	Long: `Send a PDF to the OCR service and print its page text. Without a file,
--current prints the page text of the service's current document.

--save writes the raw response so it can be reopened with
"docview view --pages" or "docview ask --pages".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(cliLogger())
		if err != nil {
			return err
		}

		var collection pages.Collection
		switch {
		case len(args) == 1:
			collection, err = client.OCRFile(ctx, args[0])
		case ocrCurrent:
			collection, err = client.CurrentOCR(ctx)
		default:
			return fmt.Errorf("give a PDF path or --current")
		}
		if err != nil {
			return err
		}

		resp := pages.OCRResponse{Pages: collection}
		if ocrSave != "" {
			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(ocrSave, data, 0o644); err != nil {
				return fmt.Errorf("save ocr response: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved %d pages to %s\n", collection.Len(), ocrSave)
		}
		return writeOutput(cmd.OutOrStdout(), map[string]any{"pages": orderedPages(collection)})
	},
}

type pageText struct {
	Page string `json:"page" yaml:"page"`
	Text string `json:"text" yaml:"text"`
}

// orderedPages lists pages in reading order for display.
func orderedPages(c pages.Collection) []pageText {
	out := make([]pageText, 0, c.Len())
	for _, key := range c.Keys() {
		out = append(out, pageText{Page: key, Text: c[key]})
	}
	return out
}

func init() {
	ocrCmd.Flags().StringVar(&ocrSave, "save", "", "write the OCR response as JSON to this file")
	ocrCmd.Flags().BoolVar(&ocrCurrent, "current", false, "use the service's current document")
	rootCmd.AddCommand(ocrCmd)
}
