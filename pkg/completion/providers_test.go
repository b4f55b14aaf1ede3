package completion

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/glossify/pkg/model"
)

func (s *RequesterSuite) TestTextPayloadDecodesAsLegacy() {
	resp := Decode(TextPayload(`noise [{"term":"ethos"}]`))
	s.Equal(ShapeLegacyText, resp.Shape)
	s.Equal(`noise [{"term":"ethos"}]`, JoinFragments(resp.TextFragments()))
}

func (s *RequesterSuite) TestNewRequesterDispatch() {
	s.T().Setenv(EnvGeminiKey, "")

	cases := map[model.Backend]any{
		model.BackendChat:    &ChatRequester{},
		model.BackendGemini:  &GeminiRequester{},
		model.BackendBedrock: &BedrockRequester{},
		model.BackendOllama:  &OllamaRequester{},
	}
	for backend, want := range cases {
		requester, err := NewRequester(model.WithBackend(backend))
		s.Require().NoError(err, backend)
		s.IsType(want, requester, backend)
	}
}

func (s *RequesterSuite) TestRequiresAPIKey() {
	s.T().Setenv(EnvGeminiKey, "")

	chat, err := NewChatRequester()
	s.Require().NoError(err)
	s.True(RequiresAPIKey(chat))

	gemini, err := NewGeminiRequester()
	s.Require().NoError(err)
	s.True(RequiresAPIKey(gemini))
	s.T().Setenv(EnvGeminiKey, "g-key")
	s.False(RequiresAPIKey(gemini))

	bedrock, err := NewBedrockRequester()
	s.Require().NoError(err)
	s.False(RequiresAPIKey(bedrock))

	ollama, err := NewOllamaRequester()
	s.Require().NoError(err)
	s.False(RequiresAPIKey(ollama))
}

func (s *RequesterSuite) TestGeminiRequest() {
	s.T().Setenv(EnvGeminiKey, "")
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		s.Equal("g-test", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"seconds\":9}]"}]},"finishReason":"STOP"}]}`))
	}

	requester, err := NewGeminiRequester(model.WithURL(s.server.URL), model.WithHTTPTimeout(5*time.Second))
	s.Require().NoError(err)

	payload, err := requester.Complete(context.Background(), "g-test", "the prompt")
	s.Require().NoError(err)
	s.Equal([]string{`[{"seconds":9}]`}, Decode(payload).TextFragments())
}

func (s *RequesterSuite) TestBedrockRequest() {
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	s.T().Setenv("AWS_REGION", "us-west-2")
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasSuffix(r.URL.Path, "/converse"), r.URL.Path)
		s.Contains(r.Header.Get("Authorization"), "AKIDEXAMPLE")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":{"message":{"role":"assistant","content":[{"text":"[{\"seconds\":4}]"}]}},"stopReason":"end_turn","usage":{"inputTokens":1,"outputTokens":1,"totalTokens":2},"metrics":{"latencyMs":1}}`))
	}

	requester, err := NewBedrockRequester(model.WithURL(s.server.URL), model.WithHTTPTimeout(5*time.Second))
	s.Require().NoError(err)

	payload, err := requester.Complete(context.Background(), "", "the prompt")
	s.Require().NoError(err)
	s.Equal([]string{`[{"seconds":4}]`}, Decode(payload).TextFragments())
	s.Equal(int32(1), s.calls.Load())
}

func (s *RequesterSuite) TestGeminiErrorKeepsStatus() {
	s.T().Setenv(EnvGeminiKey, "")
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}

	requester, err := NewGeminiRequester(model.WithURL(s.server.URL), model.WithHTTPTimeout(5*time.Second))
	s.Require().NoError(err)

	_, err = requester.Complete(context.Background(), "g-test", "the prompt")
	var statusErr *model.HTTPStatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal("Gemini", statusErr.Service)
	s.Equal(http.StatusBadRequest, statusErr.StatusCode)
	s.Contains(statusErr.Body, "API key not valid")
}

func (s *RequesterSuite) TestBedrockErrorKeepsStatus() {
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	s.T().Setenv("AWS_REGION", "us-west-2")
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Amzn-Errortype", "ValidationException")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The provided model identifier is invalid."}`))
	}

	requester, err := NewBedrockRequester(model.WithURL(s.server.URL), model.WithHTTPTimeout(5*time.Second))
	s.Require().NoError(err)

	_, err = requester.Complete(context.Background(), "", "the prompt")
	var statusErr *model.HTTPStatusError
	s.Require().ErrorAs(err, &statusErr)
	s.Equal("Bedrock", statusErr.Service)
	s.Equal(http.StatusBadRequest, statusErr.StatusCode)
	s.Contains(statusErr.Body, "The provided model identifier is invalid.")
	s.Equal(int32(1), s.calls.Load())
}

func (s *RequesterSuite) TestBedrockRejectsReasoning() {
	_, err := NewBedrockRequester(model.WithReasoningLevel(model.ReasoningLevelHigh))
	s.Error(err)

	_, err = NewBedrockRequester(model.WithReasoningLevel(model.ReasoningLevelHigh), model.WithIgnoreInvalidOptions(true))
	s.NoError(err)
}

func (s *RequesterSuite) TestAWSConfigNeedsBothKeys() {
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err := loadAWSConfig(context.Background())
	s.ErrorContains(err, "both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")

	s.T().Setenv("AWS_ACCESS_KEY_ID", "")
	s.T().Setenv("AWS_PROFILE", "")
	_, err = loadAWSConfig(context.Background())
	s.ErrorContains(err, "missing AWS credentials")
}

func (s *RequesterSuite) TestOllamaHonoursContext() {
	release := make(chan struct{})
	defer close(release)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}

	requester, err := NewOllamaRequester(model.WithURL(s.server.URL))
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = requester.Complete(ctx, "", "the prompt")
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *RequesterSuite) TestOllamaAppliesConfiguredTimeout() {
	release := make(chan struct{})
	defer close(release)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}

	requester, err := NewOllamaRequester(model.WithURL(s.server.URL), model.WithHTTPTimeout(50*time.Millisecond))
	s.Require().NoError(err)
	s.Equal(50*time.Millisecond, requester.timeout)

	_, err = requester.Complete(context.Background(), "", "the prompt")
	s.ErrorIs(err, context.DeadlineExceeded)
}
