package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/completion"
	"github.com/Nephrolytics-ai/glossify/pkg/jsonextract"
	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/settings"
	"github.com/Nephrolytics-ai/glossify/pkg/transcript"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
)

type State string

const (
	StateIdle               State = "Idle"
	StateCredentialsLoaded  State = "CredentialsLoaded"
	StateTranscriptFetched  State = "TranscriptFetched"
	StatePromptBuilt        State = "PromptBuilt"
	StateCompletionReceived State = "CompletionReceived"
	StateExtracted          State = "Extracted"
	StateSorted             State = "Sorted"
	StateDone               State = "Done"
	StateFailed             State = "Failed"
)

const maxRawPayloadInError = 16 << 10

const (
	msgMissingCompletionKey = "OpenAI API key missing. Set it in the extension popup."
	msgMissingTranscriptKey = "Apify token missing. Set it in the extension popup."
	msgEmptyTranscript      = "Transcript empty or could not be fetched."
	msgNoTextualContent     = "Failed to parse AI output: No textual content in OpenAI response."
	msgNoJSON               = "Failed to parse AI output: Could not locate JSON in model output"
	msgNotArray             = "OpenAI did not return expected JSON array. Raw: "
)

// Orchestrator runs fetch, prompt, complete, extract and sort for one video.
// It holds no per-run state, so concurrent runs are independent.
type Orchestrator struct {
	store     settings.Store
	fetcher   transcript.Fetcher
	requester completion.Requester
}

func New(store settings.Store, fetcher transcript.Fetcher, requester completion.Requester) *Orchestrator {
	return &Orchestrator{
		store:     store,
		fetcher:   fetcher,
		requester: requester,
	}
}

type run struct {
	log   logging.Logger
	state State
}

func (r *run) enter(state State) {
	r.state = state
	r.log.Debugf("workflow state=%s", state)
}

func (r *run) fail(err *model.WorkflowError) error {
	r.state = StateFailed
	if err.Err != nil {
		r.log.Errorf("workflow failed kind=%s message=%q cause=%v", err.Kind, err.Message, err.Err)
	} else {
		r.log.Errorf("workflow failed kind=%s message=%q", err.Kind, err.Message)
	}
	return err
}

// Run returns the glossary sorted latest first, or a *model.WorkflowError.
func (o *Orchestrator) Run(ctx context.Context, videoURL string) (model.GlossarySet, error) {
	start := time.Now()
	r := &run{log: logging.NewLogger(ctx).WithField("video_url", videoURL), state: StateIdle}
	r.log.Infof("workflow start")

	creds := settings.LoadCredentials(o.store)
	r.log.Debugf("workflow keys loaded completion_api_key=%t transcript_token=%t", creds.CompletionAPIKey != "", creds.TranscriptToken != "")
	if creds.CompletionAPIKey == "" && completion.RequiresAPIKey(o.requester) {
		return nil, r.fail(model.NewWorkflowError(model.ErrorKindMissingCredential, msgMissingCompletionKey, nil))
	}
	if creds.TranscriptToken == "" {
		return nil, r.fail(model.NewWorkflowError(model.ErrorKindMissingCredential, msgMissingTranscriptKey, nil))
	}
	r.enter(StateCredentialsLoaded)

	text, err := o.fetcher.Fetch(ctx, videoURL, creds.TranscriptToken)
	if err != nil {
		return nil, r.fail(model.NewWorkflowError(model.ErrorKindTranscriptUnavailable, describe("Transcript unavailable", err), err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, r.fail(model.NewWorkflowError(model.ErrorKindTranscriptUnavailable, msgEmptyTranscript, nil))
	}
	r.log.Debugf("workflow transcript_chars=%d", len(text))
	r.enter(StateTranscriptFetched)

	prompt := completion.BuildPrompt(text)
	r.enter(StatePromptBuilt)

	payload, err := o.requester.Complete(ctx, creds.CompletionAPIKey, prompt)
	if err != nil {
		return nil, r.fail(model.NewWorkflowError(model.ErrorKindCompletionBackend, describe("Completion request failed", err), err))
	}
	r.enter(StateCompletionReceived)

	glossary, wfErr := extractGlossary(r.log, payload)
	if wfErr != nil {
		return nil, r.fail(wfErr)
	}
	r.enter(StateExtracted)

	glossary.SortBySecondsDesc()
	r.enter(StateSorted)

	r.enter(StateDone)
	r.log.Infof("workflow finished entries=%d latency_ms=%d", len(glossary), time.Since(start).Milliseconds())
	return glossary, nil
}

func extractGlossary(log logging.Logger, payload completion.Payload) (model.GlossarySet, *model.WorkflowError) {
	resp := completion.Decode(payload)
	text := completion.JoinFragments(resp.TextFragments())
	log.Debugf("workflow payload shape=%s text=%q", resp.Shape, utils.Truncate(text, 300))
	if text == "" {
		return nil, model.NewWorkflowError(model.ErrorKindUnparsableModelOutput, msgNoTextualContent, nil)
	}

	match, err := jsonextract.Locate(text)
	if err != nil {
		return nil, model.NewWorkflowError(model.ErrorKindUnparsableModelOutput, msgNoJSON, err)
	}
	if match.Fallback {
		log.Warnf("workflow extractor used end-offset fallback start=%d end=%d", match.Start, match.End)
	}

	raw := json.RawMessage(match.Raw)
	if !jsonextract.IsArray(raw) {
		return nil, model.NewWorkflowError(
			model.ErrorKindUnparsableModelOutput,
			msgNotArray+utils.Truncate(payload.String(), maxRawPayloadInError),
			nil,
		)
	}

	glossary := model.GlossarySet{}
	if err := json.Unmarshal(raw, &glossary); err != nil {
		return nil, model.NewWorkflowError(
			model.ErrorKindUnparsableModelOutput,
			fmt.Sprintf("OpenAI returned glossary entries of unexpected shape: %v", err),
			err,
		)
	}
	return glossary, nil
}

// describe builds the user-facing text for a backend failure. Status errors
// already read well; anything else is reduced to its innermost cause so
// request URLs (which carry the token) never reach the user.
func describe(prefix string, err error) string {
	var statusErr *model.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	if errors.Is(err, transcript.ErrNoTranscriptData) {
		return prefix + ": " + transcript.ErrNoTranscriptData.Error()
	}
	if errors.Is(err, transcript.ErrTranscriptMissing) {
		return prefix + ": " + transcript.ErrTranscriptMissing.Error()
	}
	return prefix + ": " + utils.RootCause(err).Error()
}
