package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	serviceName      = "OpenAI"
	maxErrorBodySize = 4096
)

// Requester sends one prompt and returns the backend's raw reply.
type Requester interface {
	Complete(ctx context.Context, apiKey string, prompt string) (Payload, error)
}

// NewRequester picks the requester for cfg.Backend.
func NewRequester(opts ...model.Option) (Requester, error) {
	cfg := model.ResolveOptions(opts...)
	switch cfg.Backend {
	case model.BackendResponses, "":
		return NewResponsesRequester(opts...)
	case model.BackendChat:
		return NewChatRequester(opts...)
	case model.BackendGemini:
		return NewGeminiRequester(opts...)
	case model.BackendBedrock:
		return NewBedrockRequester(opts...)
	case model.BackendOllama:
		return NewOllamaRequester(opts...)
	default:
		return nil, utils.WrapIfNotNil(fmt.Errorf("unsupported completion backend %q", cfg.Backend))
	}
}

// RequiresAPIKey reports whether r needs the stored completion key. Backends
// that authenticate some other way implement RequiresAPIKey() bool.
func RequiresAPIKey(r Requester) bool {
	if keyed, ok := r.(interface{ RequiresAPIKey() bool }); ok {
		return keyed.RequiresAPIKey()
	}
	return true
}

func newAPIClient(cfg model.Config, apiKey string) openai.Client {
	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if baseURL := strings.TrimSpace(cfg.URL); baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(requestOpts...)
}

// asStatusError turns SDK API errors into model.HTTPStatusError so callers
// see one error type for both backends.
func asStatusError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return utils.WrapIfNotNil(err)
	}

	body := strings.TrimSpace(apiErr.RawJSON())
	if body == "" {
		body = apiErr.Message
	}
	return newStatusError(serviceName, apiErr.StatusCode, body)
}

func newStatusError(service string, statusCode int, body string) *model.HTTPStatusError {
	return &model.HTTPStatusError{
		Service:    service,
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Body:       utils.Truncate(strings.TrimSpace(body), maxErrorBodySize),
	}
}

func resolveModelName(cfg model.Config, fallback string) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
		}
	}
	return fallback
}

func isReasoningModel(modelName string) bool {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return false
	}

	return strings.HasPrefix(name, "o1") ||
		strings.HasPrefix(name, "o3") ||
		strings.HasPrefix(name, "o4") ||
		strings.HasPrefix(name, "gpt-5")
}

func normalizeOptionsForModel(modelName string, cfg model.Config, log logging.Logger) (model.Config, error) {
	reasoningModel := isReasoningModel(modelName)

	if cfg.Temperature != nil && reasoningModel {
		if !cfg.IgnoreInvalidOptions {
			return cfg, utils.WrapIfNotNil(
				fmt.Errorf("temperature is not supported for reasoning model %q", modelName),
			)
		}
		if log != nil {
			log.Warnf("ignoring temperature for reasoning model %q", modelName)
		}
		cfg.Temperature = nil
	}

	if cfg.ReasoningLevel != nil && !reasoningModel {
		if !cfg.IgnoreInvalidOptions {
			return cfg, utils.WrapIfNotNil(
				fmt.Errorf("reasoning effort is not supported for non-reasoning model %q", modelName),
			)
		}
		if log != nil {
			log.Warnf("ignoring reasoning effort for non-reasoning model %q", modelName)
		}
		cfg.ReasoningLevel = nil
	}

	return cfg, nil
}
