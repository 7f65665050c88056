package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadFetch string

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a document to the service",
	Long: `Upload a document and print the link the service returns for it.
With --fetch the document is downloaded again from that link, which checks
the round trip.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := cliLogger()
		client, err := newClient(log)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer closeQuietly(f, log, args[0])

		link, err := client.Upload(ctx, filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		result := map[string]any{"download_url": link}
		if uploadFetch != "" {
			out, err := os.Create(uploadFetch)
			if err != nil {
				return err
			}
			n, err := client.FetchFile(ctx, link, out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("fetch uploaded file: %w", err)
			}
			result["fetched_bytes"] = n
			result["fetched_to"] = uploadFetch
		}
		return writeOutput(cmd.OutOrStdout(), result)
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFetch, "fetch", "", "download the uploaded file again to this path")
	rootCmd.AddCommand(uploadCmd)
}
