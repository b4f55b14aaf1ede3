// Package settings holds the credentials and UI preferences a run reads.
// Stores are injected into the workflow rather than reached through globals.
package settings

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Nephrolytics-ai/glossify/pkg/model"
)

const (
	KeyCompletionAPIKey = "OPENAI_API_KEY"
	KeyTranscriptToken  = "APIFY_TOKEN"
	KeyOnboardingSeen   = "GLOSSIFY_ONBOARDING_SEEN"
	KeySidebarWidth     = "GLOSSIFY_SIDEBAR_WIDTH"

	EnvSettingsFile         = "GLOSSIFY_SETTINGS_FILE"
	DefaultSettingsFileName = ".glossify.env"
)

// KnownKeys lists every key the application reads or writes.
var KnownKeys = []string{
	KeyCompletionAPIKey,
	KeyTranscriptToken,
	KeyOnboardingSeen,
	KeySidebarWidth,
}

type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Keys() []string
}

// IsSecret reports whether key holds a credential that must not be echoed.
func IsSecret(key string) bool {
	return key == KeyCompletionAPIKey || key == KeyTranscriptToken
}

// Mask hides all but the last four characters of a secret.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// LoadCredentials reads both secrets; absent keys come back empty.
func LoadCredentials(store Store) model.Credentials {
	apiKey, _ := store.Get(KeyCompletionAPIKey)
	token, _ := store.Get(KeyTranscriptToken)
	return model.Credentials{
		CompletionAPIKey: strings.TrimSpace(apiKey),
		TranscriptToken:  strings.TrimSpace(token),
	}
}

// DefaultSeeds are written on first run for keys that are not present yet.
func DefaultSeeds() map[string]string {
	return map[string]string{
		KeyTranscriptToken: "",
	}
}

// Seed sets every key in defaults that the store does not already hold.
func Seed(store Store, defaults map[string]string) error {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := store.Get(key); ok {
			continue
		}
		if err := store.Set(key, defaults[key]); err != nil {
			return err
		}
	}
	return nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.values)
}

// EnvStore reads and writes the process environment.
type EnvStore struct{}

func (EnvStore) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (EnvStore) Set(key string, value string) error {
	return os.Setenv(key, value)
}

func (EnvStore) Keys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for _, key := range KnownKeys {
		if _, ok := os.LookupEnv(key); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// LayeredStore reads from the first layer that has a key and writes to the
// first layer only.
type LayeredStore struct {
	layers []Store
}

func NewLayeredStore(primary Store, fallbacks ...Store) *LayeredStore {
	return &LayeredStore{layers: append([]Store{primary}, fallbacks...)}
}

func (s *LayeredStore) Get(key string) (string, bool) {
	for _, layer := range s.layers {
		if value, ok := layer.Get(key); ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	for _, layer := range s.layers {
		if value, ok := layer.Get(key); ok {
			return value, true
		}
	}
	return "", false
}

func (s *LayeredStore) Set(key string, value string) error {
	return s.layers[0].Set(key, value)
}

func (s *LayeredStore) Keys() []string {
	seen := map[string]string{}
	for _, layer := range s.layers {
		for _, key := range layer.Keys() {
			seen[key] = ""
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
