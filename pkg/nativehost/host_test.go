package nativehost

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/stretchr/testify/suite"
)

type recordingHandler struct {
	requests []model.RunRequest
	response model.RunResponse
}

func (h *recordingHandler) Handle(ctx context.Context, req model.RunRequest) model.RunResponse {
	h.requests = append(h.requests, req)
	return h.response
}

type HostSuite struct {
	suite.Suite
}

func TestHostSuite(t *testing.T) {
	suite.Run(t, new(HostSuite))
}

func frame(s *HostSuite, payload string) []byte {
	buf := &bytes.Buffer{}
	s.Require().NoError(WriteMessage(buf, []byte(payload)))
	return buf.Bytes()
}

func readAll(s *HostSuite, r io.Reader) []map[string]any {
	out := []map[string]any{}
	for {
		msg, err := ReadMessage(r)
		if errors.Is(err, io.EOF) {
			return out
		}
		s.Require().NoError(err)
		decoded := map[string]any{}
		s.Require().NoError(json.Unmarshal(msg, &decoded))
		out = append(out, decoded)
	}
}

func (s *HostSuite) TestFramingRoundTrip() {
	buf := &bytes.Buffer{}
	s.Require().NoError(WriteMessage(buf, []byte(`{"a":1}`)))
	s.Equal(uint32(7), binary.LittleEndian.Uint32(buf.Bytes()[:4]))

	msg, err := ReadMessage(buf)
	s.Require().NoError(err)
	s.Equal(`{"a":1}`, string(msg))

	_, err = ReadMessage(buf)
	s.ErrorIs(err, io.EOF)
}

func (s *HostSuite) TestTruncatedMessage() {
	data := frame(s, `{"type":"RUN_TRANSCRIPT_WORKFLOW"}`)
	_, err := ReadMessage(bytes.NewReader(data[:10]))
	s.ErrorIs(err, io.ErrUnexpectedEOF)

	_, err = ReadMessage(bytes.NewReader(data[:2]))
	s.ErrorIs(err, io.ErrUnexpectedEOF)
}

func (s *HostSuite) TestOversizedMessages() {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], MaxInboundMessageSize+1)
	_, err := ReadMessage(bytes.NewReader(header[:]))
	s.ErrorIs(err, ErrMessageTooLarge)

	err = WriteMessage(io.Discard, make([]byte, MaxOutboundMessageSize+1))
	s.ErrorIs(err, ErrMessageTooLarge)
}

func (s *HostSuite) TestServeDispatchesInOrder() {
	handler := &recordingHandler{response: model.NewRunSuccess(model.GlossarySet{{Term: "telos", Seconds: 9, Tally: 1}})}
	input := append(
		frame(s, `{"type":"RUN_TRANSCRIPT_WORKFLOW","videoUrl":"https://youtu.be/1"}`),
		frame(s, `{"type":"RUN_TRANSCRIPT_WORKFLOW","videoUrl":"https://youtu.be/2"}`)...,
	)
	output := &bytes.Buffer{}

	err := NewHost(handler).Serve(context.Background(), bytes.NewReader(input), output)
	s.Require().NoError(err)

	s.Require().Len(handler.requests, 2)
	s.Equal("https://youtu.be/1", handler.requests[0].VideoURL)
	s.Equal("https://youtu.be/2", handler.requests[1].VideoURL)

	responses := readAll(s, output)
	s.Require().Len(responses, 2)
	s.Equal(true, responses[0]["success"])
	s.Len(responses[0]["glossary"], 1)
}

func (s *HostSuite) TestMalformedRequestGetsFailure() {
	handler := &recordingHandler{}
	output := &bytes.Buffer{}

	err := NewHost(handler).Serve(context.Background(), bytes.NewReader(frame(s, `{not json`)), output)
	s.Require().NoError(err)
	s.Empty(handler.requests)

	responses := readAll(s, output)
	s.Require().Len(responses, 1)
	s.Equal(false, responses[0]["success"])
	s.True(strings.HasPrefix(responses[0]["error"].(string), "malformed request"))
}

func (s *HostSuite) TestOversizedResponseBecomesFailure() {
	big := make(model.GlossarySet, 0, 20000)
	for i := 0; i < 20000; i++ {
		big = append(big, model.GlossaryEntry{Term: strings.Repeat("x", 80), Tally: 1})
	}
	handler := &recordingHandler{response: model.NewRunSuccess(big)}
	output := &bytes.Buffer{}

	err := NewHost(handler).Serve(context.Background(), bytes.NewReader(frame(s, `{"type":"RUN_TRANSCRIPT_WORKFLOW","videoUrl":"u"}`)), output)
	s.Require().NoError(err)

	responses := readAll(s, output)
	s.Require().Len(responses, 1)
	s.Equal(false, responses[0]["success"])
	s.Contains(responses[0]["error"], "exceeds the native messaging limit")
}

func (s *HostSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewHost(&recordingHandler{}).Serve(ctx, bytes.NewReader(nil), io.Discard)
	s.ErrorIs(err, context.Canceled)
}
