package completion

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	geminiServiceName  = "Gemini"
	EnvGeminiKey       = "GEMINI_KEY"
)

// GeminiRequester calls generateContent on the Gemini API. The key comes from
// GEMINI_KEY when set, otherwise from the stored completion key.
type GeminiRequester struct {
	cfg       model.Config
	modelName string
}

func NewGeminiRequester(opts ...model.Option) (*GeminiRequester, error) {
	cfg := model.ResolveOptions(opts...)
	return &GeminiRequester{cfg: cfg, modelName: resolveModelName(cfg, defaultGeminiModel)}, nil
}

func (r *GeminiRequester) RequiresAPIKey() bool {
	return strings.TrimSpace(os.Getenv(EnvGeminiKey)) == ""
}

func (r *GeminiRequester) Complete(ctx context.Context, apiKey string, prompt string) (Payload, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()
	log.Infof("completion.GeminiRequester.Complete model=%s prompt_chars=%d", r.modelName, len(prompt))

	client, err := r.newClient(ctx, apiKey)
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := r.buildConfig()

	response, err := client.Models.GenerateContent(ctx, r.modelName, contents, config)
	if err != nil && config.ThinkingConfig != nil && utils.ContainsErrorSubstring(err, "Thinking level is not supported for this model") {
		log.Warnf("thinking level unsupported for model %q; retrying without thinking config", r.modelName)
		config.ThinkingConfig = nil
		response, err = client.Models.GenerateContent(ctx, r.modelName, contents, config)
	}
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, geminiStatusError(err)
	}

	log.Debugf("completion.GeminiRequester.Complete latency_ms=%d", time.Since(start).Milliseconds())
	return TextPayload(response.Text()), nil
}

func (r *GeminiRequester) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: r.cfg.HTTPTimeout},
	}

	token := strings.TrimSpace(os.Getenv(EnvGeminiKey))
	if token == "" {
		token = strings.TrimSpace(apiKey)
	}
	clientCfg.APIKey = token

	if baseURL := strings.TrimSpace(r.cfg.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	return genai.NewClient(ctx, clientCfg)
}

func (r *GeminiRequester) buildConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if r.cfg.Temperature != nil {
		temp := float32(*r.cfg.Temperature)
		config.Temperature = &temp
	}
	if r.cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*r.cfg.MaxTokens)
	}
	if r.cfg.ReasoningLevel != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: mapThinkingLevel(*r.cfg.ReasoningLevel),
		}
	}
	return config
}

func mapThinkingLevel(level model.ReasoningLevel) genai.ThinkingLevel {
	switch level {
	case model.ReasoningLevelNone:
		return genai.ThinkingLevelMinimal
	case model.ReasoningLevelLow:
		return genai.ThinkingLevelLow
	case model.ReasoningLevelHigh:
		return genai.ThinkingLevelHigh
	default:
		return genai.ThinkingLevelMedium
	}
}

// geminiStatusError turns a genai.APIError into an HTTPStatusError so the
// status and server message reach the user.
func geminiStatusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(geminiServiceName, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newStatusError(geminiServiceName, apiErrPtr.Code, apiErrPtr.Message)
	}
	return utils.WrapIfNotNil(err)
}
