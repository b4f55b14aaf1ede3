package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/joho/godotenv"
)

// Characters escaped inside double-quoted values, matching what godotenv
// unescapes on read.
var dotenvEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
	`!`, `\!`,
	`$`, `\$`,
	"`", "\\`",
)

// DotenvStore persists settings in a KEY=value file. The file is re-read on
// every Get so edits from another process are picked up; writes are
// last-write-wins.
type DotenvStore struct {
	mu   sync.Mutex
	path string
}

func NewDotenvStore(path string) *DotenvStore {
	return &DotenvStore{path: path}
}

// DefaultSettingsPath honours GLOSSIFY_SETTINGS_FILE, then $HOME/.glossify.env.
func DefaultSettingsPath() (string, error) {
	if fromEnv := strings.TrimSpace(os.Getenv(EnvSettingsFile)); fromEnv != "" {
		return fromEnv, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return filepath.Join(homeDir, DefaultSettingsFileName), nil
}

func (s *DotenvStore) Path() string {
	return s.path
}

func (s *DotenvStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		logging.NewLogger(context.Background()).Warnf("settings file %s unreadable: %v", s.path, err)
		return "", false
	}
	value, ok := values[key]
	return value, ok
}

func (s *DotenvStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	values[key] = value

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return utils.WrapIfNotNil(err)
		}
	}
	if err := os.WriteFile(s.path, []byte(marshalQuoted(values)), 0o600); err != nil {
		return utils.WrapIfNotNil(err, s.path)
	}
	return utils.WrapIfNotNil(os.Chmod(s.path, 0o600))
}

func (s *DotenvStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		logging.NewLogger(context.Background()).Warnf("settings file %s unreadable: %v", s.path, err)
		return nil
	}
	return sortedKeys(values)
}

func (s *DotenvStore) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return values, nil
}

// marshalQuoted writes every value double-quoted. godotenv.Marshal leaves
// integer-looking values bare, which drops leading zeros and signs.
func marshalQuoted(values map[string]string) string {
	var b strings.Builder
	for _, key := range sortedKeys(values) {
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(dotenvEscaper.Replace(values[key]))
		b.WriteString("\"\n")
	}
	return b.String()
}
