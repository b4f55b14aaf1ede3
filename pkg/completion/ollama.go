package completion

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

const (
	defaultOllamaModel   = "llama3.1"
	defaultOllamaBaseURL = "http://localhost:11434"
	EnvOllamaBaseURL     = "OLLAMA_BASE_URL"
)

// OllamaRequester talks to a local Ollama server, which needs no key.
type OllamaRequester struct {
	client    *ollamasdk.OllamaClient
	baseURL   string
	modelName string
	timeout   time.Duration
}

func NewOllamaRequester(opts ...model.Option) (*OllamaRequester, error) {
	cfg := model.ResolveOptions(opts...)

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(EnvOllamaBaseURL))
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &OllamaRequester{
		client:    ollamasdk.NewClient(baseURL),
		baseURL:   baseURL,
		modelName: resolveModelName(cfg, defaultOllamaModel),
		timeout:   cfg.HTTPTimeout,
	}, nil
}

func (r *OllamaRequester) RequiresAPIKey() bool {
	return false
}

type ollamaResult struct {
	text string
	err  error
}

// Complete returns when the server answers, ctx is done or the configured
// timeout passes. The SDK call takes no context, so a late answer is dropped.
func (r *OllamaRequester) Complete(ctx context.Context, apiKey string, prompt string) (Payload, error) {
	log := logging.NewLogger(ctx)
	start := time.Now()
	log.Infof("completion.OllamaRequester.Complete model=%s base_url=%s prompt_chars=%d", r.modelName, r.baseURL, len(prompt))

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan ollamaResult, 1)
	go func() {
		text, err := r.client.Chat(r.modelName, []ollamasdk.ChatMessage{
			{Role: "user", Content: prompt},
		})
		done <- ollamaResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Errorf("error: %v", ctx.Err())
		return nil, utils.WrapIfNotNil(ctx.Err())
	case result := <-done:
		if result.err != nil {
			log.Errorf("error: %v", result.err)
			return nil, utils.WrapIfNotNil(result.err)
		}
		log.Debugf("completion.OllamaRequester.Complete latency_ms=%d", time.Since(start).Milliseconds())
		return TextPayload(result.text), nil
	}
}
