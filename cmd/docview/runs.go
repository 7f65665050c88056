package main

import (
	"sort"

	"github.com/spf13/cobra"
)

type runEntry struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List processing runs known to the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cliLogger())
		if err != nil {
			return err
		}
		runs, err := client.Runs(cmd.Context())
		if err != nil {
			return err
		}
		entries := make([]runEntry, 0, len(runs))
		for id, label := range runs {
			entries = append(entries, runEntry{ID: id, Label: label})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		return writeOutput(cmd.OutOrStdout(), map[string]any{"runs": entries})
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
