package completion

import (
	"context"
	"errors"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const defaultResponsesModel = "o3-mini"

// ResponsesRequester talks to the single-input /responses endpoint.
type ResponsesRequester struct {
	cfg       model.Config
	modelName string
}

func NewResponsesRequester(opts ...model.Option) (*ResponsesRequester, error) {
	cfg := model.ResolveOptions(opts...)
	modelName := resolveModelName(cfg, defaultResponsesModel)

	if cfg.ReasoningLevel == nil && isReasoningModel(modelName) {
		level := model.ReasoningLevelMed
		cfg.ReasoningLevel = &level
	}

	cfg, err := normalizeOptionsForModel(modelName, cfg, logging.NewLogger(context.Background()))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &ResponsesRequester{cfg: cfg, modelName: modelName}, nil
}

func (r *ResponsesRequester) Complete(ctx context.Context, apiKey string, prompt string) (Payload, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()
	log.Infof(
		"completion.ResponsesRequester.Complete model=%s prompt_chars=%d reasoning=%v max_tokens=%v",
		r.modelName,
		len(prompt),
		r.cfg.ReasoningLevel,
		r.cfg.MaxTokens,
	)

	client := newAPIClient(r.cfg, apiKey)
	response, err := client.Responses.New(ctx, r.buildParams(prompt))
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, asStatusError(err)
	}
	if response == nil {
		err = errors.New("responses API returned nil response")
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	log.Debugf(
		"completion.ResponsesRequester.Complete response_id=%s status=%s input_tokens=%d output_tokens=%d latency_ms=%d",
		response.ID,
		response.Status,
		response.Usage.InputTokens,
		response.Usage.OutputTokens,
		time.Since(start).Milliseconds(),
	)
	return Payload(response.RawJSON()), nil
}

func (r *ResponsesRequester) buildParams(prompt string) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(r.modelName),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}
	if r.cfg.ReasoningLevel != nil {
		params.Reasoning = shared.ReasoningParam{
			Effort: mapReasoningLevel(*r.cfg.ReasoningLevel),
		}
	}
	if r.cfg.Temperature != nil {
		params.Temperature = openai.Float(*r.cfg.Temperature)
	}
	if r.cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*r.cfg.MaxTokens))
	}
	return params
}

func mapReasoningLevel(level model.ReasoningLevel) shared.ReasoningEffort {
	switch level {
	case model.ReasoningLevelNone:
		return shared.ReasoningEffortNone
	case model.ReasoningLevelLow:
		return shared.ReasoningEffortLow
	case model.ReasoningLevelMed:
		return shared.ReasoningEffortMedium
	case model.ReasoningLevelHigh:
		return shared.ReasoningEffortHigh
	default:
		return shared.ReasoningEffortMedium
	}
}
