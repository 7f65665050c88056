package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/docview/internal/stub"
)

var stubAddr string

var stubCmd = &cobra.Command{
	Use:   "stub <fixture.yaml>",
	Short: "Serve canned OCR and QA responses for offline use",
	Long: `Serve the OCR/QA wire API from a YAML fixture. The stub does no OCR and
no answer extraction; it returns what the fixture lists.

Example:
  docview stub testdata/fixture.yaml --addr 127.0.0.1:8000
  DOCVIEW_BASE_URL=http://127.0.0.1:8000 docview view --remote`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

		fix, err := stub.LoadFixture(args[0])
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", stubAddr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		srv := &http.Server{
			Handler:           stub.NewServer(fix, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()
		logger.Info("stub service listening", "addr", ln.Addr().String(), "fixture", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", ln.Addr().String())

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("stub service shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "127.0.0.1:8000", "address to listen on")
	rootCmd.AddCommand(stubCmd)
}
