package jsonextract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ExtractSuite struct {
	suite.Suite
}

func TestExtractSuite(t *testing.T) {
	suite.Run(t, new(ExtractSuite))
}

func (s *ExtractSuite) TestArrayWrappedInProse() {
	raw, err := Extract(`Here is your answer: [{"a":1}] thanks`)
	s.Require().NoError(err)
	s.Equal(`[{"a":1}]`, string(raw))
	s.True(IsArray(raw))
}

func (s *ExtractSuite) TestEscapedQuoteInsideString() {
	value, err := ExtractValue(`{"a":"say \"hi\""}`)
	s.Require().NoError(err)
	s.Equal(map[string]any{"a": `say "hi"`}, value)
}

func (s *ExtractSuite) TestEscapedBackslashBeforeQuote() {
	text := `result: {"path":"C:\\"} and a stray } afterwards`
	m, err := Locate(text)
	s.Require().NoError(err)
	s.Equal(`{"path":"C:\\"}`, m.Raw)
	s.False(m.Fallback)
}

func (s *ExtractSuite) TestBracketsInsideStringsAreIgnored() {
	raw, err := Extract(`noise [{"term":"]","meaning":"closing [bracket]"}] more ]`)
	s.Require().NoError(err)
	s.Equal(`[{"term":"]","meaning":"closing [bracket]"}]`, string(raw))
}

func (s *ExtractSuite) TestMarkdownFence() {
	text := "Sure!\n```json\n[\n  {\"term\": \"ennui\", \"seconds\": 12}\n]\n```\nLet me know."
	var out []map[string]any
	s.Require().NoError(ExtractInto(text, &out))
	s.Len(out, 1)
	s.Equal("ennui", out[0]["term"])
}

func (s *ExtractSuite) TestOnlyFirstRegionIsConsidered() {
	raw, err := Extract(`first [1] then a much larger [1,2,3,4,5]`)
	s.Require().NoError(err)
	s.Equal(`[1]`, string(raw))
}

func (s *ExtractSuite) TestObjectBeforeArrayWins() {
	m, err := Locate(`{"k":[1,2]} [3]`)
	s.Require().NoError(err)
	s.Equal(0, m.Start)
	s.Equal(`{"k":[1,2]}`, m.Raw)
	s.False(IsArray([]byte(m.Raw)))
}

func (s *ExtractSuite) TestNoBrackets() {
	_, err := Extract("the model refused to answer")
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNoJSONStart))
	s.True(errors.Is(err, ErrNotFound))
	s.False(errors.Is(err, ErrNoValidJSON))
}

func (s *ExtractSuite) TestEmptyInput() {
	_, err := Extract("")
	s.ErrorIs(err, ErrNoJSONStart)
}

func (s *ExtractSuite) TestStuckAtFirstStartIndex() {
	// {bad} appears first; the later valid [1,2] is never tried.
	_, err := Extract(`{bad} [1,2]`)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNoValidJSON))
	s.True(errors.Is(err, ErrNotFound))
	s.False(errors.Is(err, ErrNoJSONStart))
}

func (s *ExtractSuite) TestUnterminatedArray() {
	_, err := Extract(`[{"term":"hubris", "seconds": 4}`)
	s.ErrorIs(err, ErrNoValidJSON)
}

func (s *ExtractSuite) TestBalancedEndUnbalanced() {
	_, ok := balancedEnd(`[[1]`, 0)
	s.False(ok)

	end, ok := balancedEnd(`x{"a":{"b":"}"}}y`, 1)
	s.True(ok)
	s.Equal(15, end)
}

func (s *ExtractSuite) TestMismatchedKindsAreNotCounted() {
	// Only '[' and ']' count when the value opens with '['.
	end, ok := balancedEnd(`[{]`, 0)
	s.True(ok)
	s.Equal(2, end)

	_, err := Extract(`[{]`)
	s.ErrorIs(err, ErrNoValidJSON)
}

func (s *ExtractSuite) TestLargeNoisyInput() {
	var b strings.Builder
	b.WriteString("preamble ")
	b.WriteString("[")
	for i := 0; i < 500; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"term":"t","seconds":1}`)
	}
	b.WriteString("] trailing prose")

	raw, err := Extract(b.String())
	s.Require().NoError(err)
	s.True(strings.HasSuffix(string(raw), "}]"))
}
