package completion

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Payload is the undecoded body returned by a completion backend.
type Payload json.RawMessage

func (p Payload) String() string {
	return string(p)
}

// TextPayload wraps plain model output as a legacy {"output_text": ...} body
// for backends whose SDKs return text rather than JSON.
func TextPayload(text string) Payload {
	bits, _ := json.Marshal(map[string]string{"output_text": text})
	return Payload(bits)
}

// Shape tags which backend generation produced a payload.
type Shape string

const (
	ShapeResponses  Shape = "responses"
	ShapeChat       Shape = "chat"
	ShapeLegacyText Shape = "legacy_text"
	ShapeUnknown    Shape = "unknown"
)

// Response is a payload decoded into exactly one of its known shapes.
type Response struct {
	Shape     Shape
	Responses *ResponsesBody
	Chat      *ChatBody
	Legacy    *LegacyBody
}

// ResponsesBody is the "output blocks" shape. Response and OutputText are
// fallbacks some gateways add next to or instead of Output.
type ResponsesBody struct {
	Output     []OutputBlock
	Response   string
	OutputText string
}

type OutputBlock struct {
	Type string
	// Content holds every text found in the block's content list, in order.
	Content []string
	// HasContent is true when the block carried a content list at all.
	HasContent bool
	Text       string
}

type ChatBody struct {
	Choices []ChatChoice
}

type ChatChoice struct {
	Content []string
}

// LegacyBody is a bare {"response": ...} or {"output_text": ...} reply.
type LegacyBody struct {
	Response   string
	OutputText string
}

type rawOutputBlock struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Text    json.RawMessage `json:"text"`
}

type rawChatChoice struct {
	Message struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// Decode detects the payload shape from which fields are present. It never
// fails; anything unrecognised becomes ShapeUnknown.
func Decode(p Payload) Response {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return Response{Shape: ShapeUnknown}
	}

	if blocks, ok := rawArray(fields["output"]); ok {
		body := &ResponsesBody{
			Output:     decodeOutputBlocks(blocks),
			Response:   textOf(fields["response"]),
			OutputText: textOf(fields["output_text"]),
		}
		return Response{Shape: ShapeResponses, Responses: body}
	}

	if choices, ok := rawArray(fields["choices"]); ok {
		return Response{Shape: ShapeChat, Chat: &ChatBody{Choices: decodeChoices(choices)}}
	}

	_, hasResponse := fields["response"]
	_, hasOutputText := fields["output_text"]
	if hasResponse || hasOutputText {
		return Response{Shape: ShapeLegacyText, Legacy: &LegacyBody{
			Response:   textOf(fields["response"]),
			OutputText: textOf(fields["output_text"]),
		}}
	}

	return Response{Shape: ShapeUnknown}
}

// TextFragments lists the textual content of the response in encounter order.
func (r Response) TextFragments() []string {
	fragments := make([]string, 0)
	switch r.Shape {
	case ShapeResponses:
		if r.Responses == nil {
			return fragments
		}
		for _, block := range r.Responses.Output {
			if block.HasContent {
				fragments = append(fragments, block.Content...)
			} else if block.Text != "" {
				fragments = append(fragments, block.Text)
			}
		}
		if len(fragments) == 0 && r.Responses.Response != "" {
			fragments = append(fragments, r.Responses.Response)
		}
		if len(fragments) == 0 && r.Responses.OutputText != "" {
			fragments = append(fragments, r.Responses.OutputText)
		}
	case ShapeChat:
		if r.Chat == nil {
			return fragments
		}
		for _, choice := range r.Chat.Choices {
			fragments = append(fragments, choice.Content...)
		}
	case ShapeLegacyText:
		if r.Legacy == nil {
			return fragments
		}
		if r.Legacy.Response != "" {
			fragments = append(fragments, r.Legacy.Response)
		} else if r.Legacy.OutputText != "" {
			fragments = append(fragments, r.Legacy.OutputText)
		}
	}
	return fragments
}

// JoinFragments concatenates fragments one per line and trims the result.
func JoinFragments(fragments []string) string {
	return strings.TrimSpace(strings.Join(fragments, "\n"))
}

func decodeOutputBlocks(raw []json.RawMessage) []OutputBlock {
	blocks := make([]OutputBlock, 0, len(raw))
	for _, item := range raw {
		decoded := rawOutputBlock{}
		if err := json.Unmarshal(item, &decoded); err != nil {
			continue
		}

		block := OutputBlock{Type: decoded.Type, Text: textOf(decoded.Text)}
		if contents, ok := rawArray(decoded.Content); ok {
			block.HasContent = true
			block.Content = contentTexts(contents)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func decodeChoices(raw []json.RawMessage) []ChatChoice {
	choices := make([]ChatChoice, 0, len(raw))
	for _, item := range raw {
		decoded := rawChatChoice{}
		if err := json.Unmarshal(item, &decoded); err != nil {
			continue
		}

		choice := ChatChoice{}
		if s, ok := rawString(decoded.Message.Content); ok {
			if s != "" {
				choice.Content = []string{s}
			}
		} else if parts, ok := rawArray(decoded.Message.Content); ok {
			choice.Content = contentTexts(parts)
		}
		choices = append(choices, choice)
	}
	return choices
}

// contentTexts collects {"text": "..."} objects and bare strings.
func contentTexts(items []json.RawMessage) []string {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := rawString(item); ok {
			texts = append(texts, s)
			continue
		}
		part := struct {
			Text json.RawMessage `json:"text"`
		}{}
		if err := json.Unmarshal(item, &part); err != nil {
			continue
		}
		if text := textOf(part.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func rawString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// textOf returns a string field's value, or the JSON text of a non-string
// scalar. Objects, arrays, null and false yield "".
func textOf(raw json.RawMessage) string {
	if s, ok := rawString(raw); ok {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{', '[', 'n', 'f':
		return ""
	}
	return string(trimmed)
}
