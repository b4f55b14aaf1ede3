package main

import (
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/completion"
	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/settings"
	"github.com/Nephrolytics-ai/glossify/pkg/transcript"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/Nephrolytics-ai/glossify/pkg/workflow"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel     string
	logFormat    string
	settingsPath string

	backend       string
	modelName     string
	reasoning     string
	baseURL       string
	transcriptURL string
	actorID       string
	timeout       time.Duration
	ignoreInvalid bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "glossify",
		Short: "Build a glossary of difficult terms from a video transcript",
		Long: `Glossify fetches the transcript of a video, asks a language model for the
terms a viewer may not know, and returns them as a glossary sorted latest first.
It runs one-shot, as a browser native-messaging host, or as an MCP tool.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from "+logging.EnvLogLevel+")")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json (default from "+logging.EnvLogFormat+")")
	flags.StringVar(&opts.settingsPath, "settings", "", "settings file (default $"+settings.EnvSettingsFile+" or ~/"+settings.DefaultSettingsFileName+")")

	root.AddCommand(
		newRunCmd(opts),
		newNativeHostCmd(opts),
		newMCPCmd(opts),
		newConfigCmd(opts),
		newSchemaCmd(),
	)
	return root
}

// addWorkflowFlags registers the flags shared by every command that runs the workflow.
func addWorkflowFlags(cmd *cobra.Command, opts *rootOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.backend, "backend", string(model.BackendResponses), "completion backend: responses, chat, gemini, bedrock or ollama")
	flags.StringVar(&opts.modelName, "model", "", "completion model (default depends on backend)")
	flags.StringVar(&opts.reasoning, "reasoning", "", "reasoning effort for reasoning models: none, low, med, high")
	flags.StringVar(&opts.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	flags.StringVar(&opts.transcriptURL, "transcript-url", "", "Apify API base URL")
	flags.StringVar(&opts.actorID, "actor", "", "Apify actor that scrapes transcripts")
	flags.DurationVar(&opts.timeout, "timeout", model.DefaultHTTPTimeout, "per-request HTTP timeout")
	flags.BoolVar(&opts.ignoreInvalid, "ignore-invalid-options", false, "drop options the model does not support instead of failing")
}

func (o *rootOptions) setupLogging() error {
	if err := logging.ConfigureFromEnv(); err != nil {
		return err
	}
	return logging.Configure(o.logLevel, o.logFormat)
}

// openStore layers the settings file over the process environment and seeds
// first-run defaults.
func (o *rootOptions) openStore() (*settings.LayeredStore, *settings.DotenvStore, error) {
	path := strings.TrimSpace(o.settingsPath)
	if path == "" {
		var err error
		path, err = settings.DefaultSettingsPath()
		if err != nil {
			return nil, nil, err
		}
	}

	file := settings.NewDotenvStore(path)
	if err := settings.Seed(file, settings.DefaultSeeds()); err != nil {
		return nil, nil, utils.WrapIfNotNil(err)
	}
	return settings.NewLayeredStore(file, settings.EnvStore{}), file, nil
}

func (o *rootOptions) modelOptions() ([]model.Option, error) {
	backend, err := model.ParseBackend(o.backend)
	if err != nil {
		return nil, err
	}

	opts := []model.Option{
		model.WithBackend(backend),
		model.WithHTTPTimeout(o.timeout),
		model.WithIgnoreInvalidOptions(o.ignoreInvalid),
	}
	if o.modelName != "" {
		opts = append(opts, model.WithModel(o.modelName))
	}
	if o.reasoning != "" {
		opts = append(opts, model.WithReasoningLevel(model.ReasoningLevel(o.reasoning)))
	}
	if o.baseURL != "" {
		opts = append(opts, model.WithURL(o.baseURL))
	}
	if o.transcriptURL != "" {
		opts = append(opts, model.WithTranscriptURL(o.transcriptURL))
	}
	if o.actorID != "" {
		opts = append(opts, model.WithActorID(o.actorID))
	}
	return opts, nil
}

func (o *rootOptions) newOrchestrator() (*workflow.Orchestrator, error) {
	store, _, err := o.openStore()
	if err != nil {
		return nil, err
	}
	opts, err := o.modelOptions()
	if err != nil {
		return nil, err
	}
	requester, err := completion.NewRequester(opts...)
	if err != nil {
		return nil, err
	}
	return workflow.New(store, transcript.NewApifyClient(opts...), requester), nil
}
