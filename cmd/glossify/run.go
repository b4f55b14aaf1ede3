package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/mcp"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/timestamp"
	"github.com/Nephrolytics-ai/glossify/pkg/workflow"
	"github.com/spf13/cobra"
)

type batchEntry struct {
	VideoURL string            `json:"videoUrl"`
	Response model.RunResponse `json:"response"`
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		table       bool
		remote      string
		remoteToken string
		batch       workflow.BatchOptions
	)

	cmd := &cobra.Command{
		Use:   "run <video-url> [video-url...]",
		Short: "Build the glossary for one or more videos and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = logging.ContextWithFields(ctx, map[string]any{"transport": "cli"})

			var handler workflow.Handler
			if remote != "" {
				runner, err := mcp.NewRemoteRunner(ctx, remote, remoteToken)
				if err != nil {
					return err
				}
				defer runner.Close()
				handler = runner
			} else {
				orchestrator, err := opts.newOrchestrator()
				if err != nil {
					return err
				}
				handler = orchestrator
			}

			if len(args) == 1 {
				resp := handler.Handle(ctx, model.RunRequest{
					Type:     model.MessageTypeRunTranscriptWorkflow,
					VideoURL: args[0],
				})
				return printResponse(cmd.OutOrStdout(), resp, table)
			}
			return printBatch(cmd.OutOrStdout(), workflow.RunBatch(ctx, handler, args, batch), table)
		},
	}

	addWorkflowFlags(cmd, opts)
	cmd.Flags().BoolVar(&table, "table", false, "print one line per term instead of JSON")
	cmd.Flags().StringVar(&remote, "remote", "", "run on a glossify MCP server at this URL instead of locally")
	cmd.Flags().StringVar(&remoteToken, "remote-token", os.Getenv("GLOSSIFY_MCP_TOKEN"), "Authorization header for --remote")
	cmd.Flags().IntVar(&batch.Concurrency, "concurrency", workflow.DefaultBatchConcurrency, "videos processed at once when several are given")
	cmd.Flags().IntVar(&batch.RatePerMinute, "rate", workflow.DefaultBatchRatePerMinute, "runs started per minute when several videos are given")
	return cmd
}

// printResponse writes resp and returns its error so the exit status reflects failure.
func printResponse(w io.Writer, resp model.RunResponse, table bool) error {
	if table && resp.Success {
		renderTable(w, resp.Glossary)
		return nil
	}

	bits, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(bits))

	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}

// printBatch writes every result and fails if any run failed.
func printBatch(w io.Writer, results []workflow.BatchResult, table bool) error {
	failed := 0
	entries := make([]batchEntry, 0, len(results))
	for _, result := range results {
		if !result.Response.Success {
			failed++
		}
		entries = append(entries, batchEntry{VideoURL: result.VideoURL, Response: result.Response})
	}

	if table {
		for _, entry := range entries {
			fmt.Fprintf(w, "== %s\n", entry.VideoURL)
			if entry.Response.Success {
				renderTable(w, entry.Response.Glossary)
			} else {
				fmt.Fprintf(w, "error: %s\n", entry.Response.Error)
			}
		}
	} else {
		bits, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(bits))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func renderTable(w io.Writer, glossary model.GlossarySet) {
	if len(glossary) == 0 {
		fmt.Fprintln(w, "no difficult terms found")
		return
	}
	for _, entry := range glossary {
		label := strings.TrimSpace(entry.Timestamp)
		if label == "" {
			label = timestamp.Format(float64(entry.Seconds))
		}
		fmt.Fprintf(w, "[%s] %s - %s (x%d)\n", label, entry.Term, entry.Meaning, entry.Tally)
	}
}
