package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/nativehost"
	"github.com/spf13/cobra"
)

func newNativeHostCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "native-host [origin]",
		Short: "Serve the browser extension over native messaging on stdin/stdout",
		Long: `Serve RUN_TRANSCRIPT_WORKFLOW requests from the browser extension using the
native-messaging protocol. The browser starts this command itself and passes
the calling origin as an argument.`,
		Args: cobra.ArbitraryArgs,
		// Browsers append flags such as --parent-window on some platforms.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, err := opts.newOrchestrator()
			if err != nil {
				return err
			}

			log := logging.NewLogger(ctx)
			if len(args) > 0 {
				log = log.WithField("origin", args[0])
			}
			log.Infof("native host started")

			return nativehost.NewHost(orchestrator).Serve(ctx, os.Stdin, os.Stdout)
		},
	}

	addWorkflowFlags(cmd, opts)
	return cmd
}
