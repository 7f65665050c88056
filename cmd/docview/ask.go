package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/qa"
)

var (
	askPagesFile string
	askLocal     bool
)

type askContext struct {
	Answer             string `json:"answer" yaml:"answer"`
	SupportingSentence string `json:"supporting_sentence" yaml:"supporting_sentence"`
	Page               string `json:"page" yaml:"page"`
	Position           [2]int `json:"position" yaml:"position,flow"`
}

type askResult struct {
	Question string       `json:"question" yaml:"question"`
	Answer   string       `json:"answer,omitempty" yaml:"answer,omitempty"`
	Contexts []askContext `json:"contexts" yaml:"contexts"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question> [file.pdf]",
	Short: "Ask a question about a document without opening the viewer",
	Long: `Ask a question about a document and print the ranked answers.

Examples:
  docview ask "What is the discharge diagnosis?" report.pdf
  docview ask "What is the discharge diagnosis?" --pages report.json -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := cliLogger()
		client, err := newClient(log)
		if err != nil {
			return err
		}

		var doc *pages.Document
		switch {
		case askPagesFile != "":
			doc, err = pages.LoadSnapshot(askPagesFile)
		case len(args) == 2:
			loader, lerr := documentLoader(client, log, askLocal)
			if lerr != nil {
				return lerr
			}
			doc, err = loader.Load(ctx, args[1])
		default:
			return fmt.Errorf("give a PDF path or --pages")
		}
		if err != nil {
			return fmt.Errorf("load pages: %w", err)
		}

		sess := qa.NewSession(client, log)
		if err := sess.Submit(ctx, args[0], doc.Pages); err != nil {
			if sess.Error() != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), sess.Error())
			}
			return err
		}
		return writeOutput(cmd.OutOrStdout(), summarizeAnswers(sess))
	},
}

func summarizeAnswers(sess *qa.Session) askResult {
	result := askResult{Question: sess.Question(), Contexts: []askContext{}}
	if primary, ok := sess.PrimaryAnswer(); ok {
		result.Answer = primary
	}
	for _, a := range sess.SupportingContexts() {
		result.Contexts = append(result.Contexts, askContext{
			Answer:             a.Text,
			SupportingSentence: a.SupportingSentence,
			Page:               a.Page,
			Position:           [2]int{a.Start, a.End},
		})
	}
	return result
}

func init() {
	askCmd.Flags().StringVar(&askPagesFile, "pages", "", "saved OCR response to ask against")
	askCmd.Flags().BoolVar(&askLocal, "local", false, "read page text from the PDF only, without OCR")
	rootCmd.AddCommand(askCmd)
}
