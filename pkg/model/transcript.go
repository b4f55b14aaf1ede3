package model

import (
	"encoding/json"
	"fmt"
)

// TranscriptSegment is one timed line as returned by the transcript backend.
type TranscriptSegment struct {
	StartTimeText string `json:"startTimeText"`
	Text          string `json:"text"`
}

type transcriptSegmentWire struct {
	StartTimeText json.RawMessage `json:"startTimeText"`
	Text          json.RawMessage `json:"text"`
}

// UnmarshalJSON accepts numbers as well as strings, so a scraper that emits
// `"startTimeText": 12` still yields "12".
func (s *TranscriptSegment) UnmarshalJSON(data []byte) error {
	wire := transcriptSegmentWire{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.StartTimeText = coerceString(wire.StartTimeText)
	s.Text = coerceString(wire.Text)
	return nil
}

// Credentials are the two secrets a run needs.
type Credentials struct {
	CompletionAPIKey string
	TranscriptToken  string
}

// String never prints the secrets themselves.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{completion_api_key:%t transcript_token:%t}", c.CompletionAPIKey != "", c.TranscriptToken != "")
}
