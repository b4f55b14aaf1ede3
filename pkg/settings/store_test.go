package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	dir string
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *StoreSuite) TestMemoryStore() {
	store := NewMemoryStore(map[string]string{KeyCompletionAPIKey: "sk-1"})
	value, ok := store.Get(KeyCompletionAPIKey)
	s.True(ok)
	s.Equal("sk-1", value)

	_, ok = store.Get(KeyTranscriptToken)
	s.False(ok)

	s.Require().NoError(store.Set(KeyTranscriptToken, "apify-1"))
	s.Equal([]string{KeyTranscriptToken, KeyCompletionAPIKey}, store.Keys())
}

func (s *StoreSuite) TestDotenvStoreRoundTrip() {
	path := filepath.Join(s.dir, "nested", "settings.env")
	store := NewDotenvStore(path)

	_, ok := store.Get(KeyCompletionAPIKey)
	s.False(ok)
	s.Empty(store.Keys())

	s.Require().NoError(store.Set(KeyCompletionAPIKey, "sk-with \"quotes\""))
	s.Require().NoError(store.Set(KeySidebarWidth, "420"))

	reopened := NewDotenvStore(path)
	value, ok := reopened.Get(KeyCompletionAPIKey)
	s.True(ok)
	s.Equal("sk-with \"quotes\"", value)

	width, ok := reopened.Get(KeySidebarWidth)
	s.True(ok)
	s.Equal("420", width)

	info, err := os.Stat(path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), info.Mode().Perm())
}

func (s *StoreSuite) TestDotenvStoreKeepsValuesVerbatim() {
	path := filepath.Join(s.dir, "verbatim.env")
	values := []string{"0123456", "+42", "-7", "abc$HOME", `a"b`, "x#y", `back\slash`, "two\nlines", "bang!", " padded "}

	for _, value := range values {
		s.Require().NoError(NewDotenvStore(path).Set(KeyTranscriptToken, value))
		got, ok := NewDotenvStore(path).Get(KeyTranscriptToken)
		s.True(ok, value)
		s.Equal(value, got)
	}

	raw, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal("APIFY_TOKEN=\" padded \"\n", string(raw))
}

func (s *StoreSuite) TestDotenvStoreLogsUnreadableFile() {
	buf := &bytes.Buffer{}
	logging.SetOutput(buf)
	defer logging.SetOutput(os.Stderr)

	path := filepath.Join(s.dir, "broken.env")
	s.Require().NoError(os.WriteFile(path, []byte("OPENAI_API_KEY=\"unterminated\n"), 0o600))

	store := NewDotenvStore(path)
	_, ok := store.Get(KeyCompletionAPIKey)
	s.False(ok)
	s.Nil(store.Keys())
	s.Contains(buf.String(), "unreadable")
	s.Contains(buf.String(), path)
}

func (s *StoreSuite) TestSeedKeepsExistingValues() {
	store := NewMemoryStore(map[string]string{KeyTranscriptToken: "existing"})
	s.Require().NoError(Seed(store, map[string]string{
		KeyTranscriptToken: "",
		KeyOnboardingSeen:  "false",
	}))

	token, _ := store.Get(KeyTranscriptToken)
	s.Equal("existing", token)
	seen, ok := store.Get(KeyOnboardingSeen)
	s.True(ok)
	s.Equal("false", seen)
}

func (s *StoreSuite) TestSeedDefaultsWriteEmptyToken() {
	store := NewDotenvStore(filepath.Join(s.dir, "seed.env"))
	s.Require().NoError(Seed(store, DefaultSeeds()))

	token, ok := store.Get(KeyTranscriptToken)
	s.True(ok)
	s.Equal("", token)
}

func (s *StoreSuite) TestLoadCredentialsTrims() {
	store := NewMemoryStore(map[string]string{
		KeyCompletionAPIKey: "  sk-2 \n",
	})
	creds := LoadCredentials(store)
	s.Equal("sk-2", creds.CompletionAPIKey)
	s.Equal("", creds.TranscriptToken)
	s.NotContains(creds.String(), "sk-2")
}

func (s *StoreSuite) TestLayeredStorePrefersNonEmpty() {
	primary := NewMemoryStore(map[string]string{KeyTranscriptToken: ""})
	fallback := NewMemoryStore(map[string]string{
		KeyTranscriptToken:  "from-env",
		KeyCompletionAPIKey: "sk-env",
	})
	layered := NewLayeredStore(primary, fallback)

	token, ok := layered.Get(KeyTranscriptToken)
	s.True(ok)
	s.Equal("from-env", token)

	s.Require().NoError(layered.Set(KeySidebarWidth, "300"))
	_, ok = fallback.Get(KeySidebarWidth)
	s.False(ok)
	s.Equal([]string{KeyTranscriptToken, KeySidebarWidth, KeyCompletionAPIKey}, layered.Keys())
}

func (s *StoreSuite) TestEnvStore() {
	s.T().Setenv(KeyCompletionAPIKey, "sk-env")
	value, ok := EnvStore{}.Get(KeyCompletionAPIKey)
	s.True(ok)
	s.Equal("sk-env", value)
	s.Contains(EnvStore{}.Keys(), KeyCompletionAPIKey)
}

func (s *StoreSuite) TestMask() {
	s.Equal("", Mask(""))
	s.Equal("***", Mask("abc"))
	s.Equal("****wxyz", Mask("abcdwxyz"))
	s.True(IsSecret(KeyTranscriptToken))
	s.False(IsSecret(KeySidebarWidth))
}

func (s *StoreSuite) TestDefaultSettingsPathFromEnv() {
	s.T().Setenv(EnvSettingsFile, "/tmp/custom.env")
	path, err := DefaultSettingsPath()
	s.Require().NoError(err)
	s.Equal("/tmp/custom.env", path)
}
