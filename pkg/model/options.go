package model

import (
	"fmt"
	"strings"
	"time"
)

// Backend names the completion endpoint a run talks to. Responses and chat
// are OpenAI-compatible; the rest are native provider APIs.
type Backend string

const (
	BackendResponses Backend = "responses"
	BackendChat      Backend = "chat"
	BackendGemini    Backend = "gemini"
	BackendBedrock   Backend = "bedrock"
	BackendOllama    Backend = "ollama"
)

var Backends = []Backend{BackendResponses, BackendChat, BackendGemini, BackendBedrock, BackendOllama}

func ParseBackend(value string) (Backend, error) {
	normalized := Backend(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return BackendResponses, nil
	}
	for _, backend := range Backends {
		if normalized == backend {
			return backend, nil
		}
	}
	return "", fmt.Errorf("unknown completion backend %q (want one of %v)", value, Backends)
}

type ReasoningLevel string

const (
	ReasoningLevelNone ReasoningLevel = "none"
	ReasoningLevelLow  ReasoningLevel = "low"
	ReasoningLevelMed  ReasoningLevel = "med"
	ReasoningLevelHigh ReasoningLevel = "high"
)

const DefaultHTTPTimeout = 90 * time.Second

type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(cfg *Config) {
	f(cfg)
}

type Config struct {
	IgnoreInvalidOptions bool
	Backend              Backend
	// URL overrides the completion backend base URL (OpenAI-compatible).
	URL string
	// TranscriptURL overrides the transcript backend base URL.
	TranscriptURL  string
	ActorID        string
	Model          *string
	ReasoningLevel *ReasoningLevel
	Temperature    *float64
	MaxTokens      *int
	HTTPTimeout    time.Duration
}

func ResolveOptions(opts ...Option) Config {
	cfg := Config{
		Backend:     BackendResponses,
		HTTPTimeout: DefaultHTTPTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

func WithIgnoreInvalidOptions(value bool) Option {
	return optionFunc(func(cfg *Config) {
		cfg.IgnoreInvalidOptions = value
	})
}

func WithBackend(value Backend) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Backend = value
	})
}

func WithURL(value string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.URL = value
	})
}

func WithTranscriptURL(value string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.TranscriptURL = value
	})
}

func WithActorID(value string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.ActorID = value
	})
}

func WithModel(value string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Model = &value
	})
}

func WithReasoningLevel(level ReasoningLevel) Option {
	return optionFunc(func(cfg *Config) {
		cfg.ReasoningLevel = &level
	})
}

func WithTemperature(value float64) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Temperature = &value
	})
}

func WithMaxTokens(value int) Option {
	return optionFunc(func(cfg *Config) {
		cfg.MaxTokens = &value
	})
}

// WithHTTPTimeout bounds each outbound call. Zero or negative keeps the default.
func WithHTTPTimeout(value time.Duration) Option {
	return optionFunc(func(cfg *Config) {
		if value > 0 {
			cfg.HTTPTimeout = value
		}
	})
}
