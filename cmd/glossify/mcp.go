package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the workflow as the run_transcript_workflow MCP tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, err := opts.newOrchestrator()
			if err != nil {
				return err
			}
			s := mcp.NewServer(orchestrator, version)

			if addr == "" {
				return mcp.ServeStdio(ctx, s, os.Stdin, os.Stdout, os.Stderr)
			}
			return serveHTTP(ctx, addr, mcp.NewHTTPHandler(s))
		},
	}

	addWorkflowFlags(cmd, opts)
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	return cmd
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	log := logging.NewLogger(ctx)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("mcp serving on http://%s/mcp", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
