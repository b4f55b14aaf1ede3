package completion

import (
	"context"
	"errors"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultChatModel       = "gpt-4o-mini"
	defaultChatTemperature = 0.2
	defaultChatMaxTokens   = 4096
)

// ChatRequester talks to an OpenAI-compatible /chat/completions endpoint.
// Pointing WithURL at another router (Hugging Face, Ollama) works as long as
// it speaks the same shape.
type ChatRequester struct {
	cfg       model.Config
	modelName string
}

func NewChatRequester(opts ...model.Option) (*ChatRequester, error) {
	cfg := model.ResolveOptions(opts...)
	modelName := resolveModelName(cfg, defaultChatModel)

	if cfg.Temperature == nil && !isReasoningModel(modelName) {
		temperature := defaultChatTemperature
		cfg.Temperature = &temperature
	}
	if cfg.MaxTokens == nil {
		maxTokens := defaultChatMaxTokens
		cfg.MaxTokens = &maxTokens
	}

	cfg, err := normalizeOptionsForModel(modelName, cfg, logging.NewLogger(context.Background()))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &ChatRequester{cfg: cfg, modelName: modelName}, nil
}

func (r *ChatRequester) Complete(ctx context.Context, apiKey string, prompt string) (Payload, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()
	log.Infof(
		"completion.ChatRequester.Complete model=%s prompt_chars=%d temperature=%v max_tokens=%v",
		r.modelName,
		len(prompt),
		r.cfg.Temperature,
		r.cfg.MaxTokens,
	)

	client := newAPIClient(r.cfg, apiKey)
	completion, err := client.Chat.Completions.New(ctx, r.buildParams(prompt))
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, asStatusError(err)
	}
	if completion == nil {
		err = errors.New("chat completions API returned nil response")
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	log.Debugf(
		"completion.ChatRequester.Complete response_id=%s choices=%d prompt_tokens=%d completion_tokens=%d latency_ms=%d",
		completion.ID,
		len(completion.Choices),
		completion.Usage.PromptTokens,
		completion.Usage.CompletionTokens,
		time.Since(start).Milliseconds(),
	)
	return Payload(completion.RawJSON()), nil
}

func (r *ChatRequester) buildParams(prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if r.cfg.Temperature != nil {
		params.Temperature = openai.Float(*r.cfg.Temperature)
	}
	if r.cfg.MaxTokens != nil {
		// Reasoning models reject max_tokens on this endpoint.
		if isReasoningModel(r.modelName) {
			params.MaxCompletionTokens = openai.Int(int64(*r.cfg.MaxTokens))
		} else {
			params.MaxTokens = openai.Int(int64(*r.cfg.MaxTokens))
		}
	}
	if r.cfg.ReasoningLevel != nil {
		params.ReasoningEffort = mapReasoningLevel(*r.cfg.ReasoningLevel)
	}
	return params
}
