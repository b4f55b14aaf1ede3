// Package jsonextract finds the first JSON array or object embedded in free
// text, such as a model reply wrapped in prose or markdown fences.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every extraction failure.
	ErrNotFound = errors.New("no JSON found")
	// ErrNoJSONStart means the text has no '[' or '{' at all.
	ErrNoJSONStart = fmt.Errorf("%w: text contains no '[' or '{'", ErrNotFound)
	// ErrNoValidJSON means a start was found but nothing from it parses.
	ErrNoValidJSON = fmt.Errorf("%w: no substring from the first bracket parses", ErrNotFound)
)

// Match describes where the extracted value sits in the input.
type Match struct {
	// Start and End are byte offsets, End exclusive.
	Start int
	End   int
	Raw   string
	// Fallback is true when the balanced scan failed and the value was found
	// by trying successive end offsets.
	Fallback bool
}

// Locate returns the first valid JSON value that begins at the earliest '['
// or '{' in text. Only that one start index is ever considered.
func Locate(text string) (Match, error) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return Match{}, ErrNoJSONStart
	}

	if end, ok := balancedEnd(text, start); ok {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return Match{Start: start, End: end + 1, Raw: candidate}, nil
		}
	}

	// Increasing end offsets, so the shortest parsable substring wins. A valid
	// array or object can only end on a closing bracket, and JSON allows no
	// shorter valid prefix ending elsewhere, so other offsets are skipped
	// without changing which substring is chosen. Worst case is quadratic.
	for end := start + 1; end <= len(text); end++ {
		last := text[end-1]
		if last != ']' && last != '}' {
			continue
		}
		candidate := text[start:end]
		if json.Valid([]byte(candidate)) {
			return Match{Start: start, End: end, Raw: candidate, Fallback: true}, nil
		}
	}

	return Match{}, ErrNoValidJSON
}

// Extract returns the raw bytes of the first JSON value in text.
func Extract(text string) (json.RawMessage, error) {
	m, err := Locate(text)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(m.Raw), nil
}

// ExtractInto decodes the first JSON value in text into v.
func ExtractInto(text string, v any) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ExtractValue decodes the first JSON value in text into generic Go values
// ([]any, map[string]any, ...).
func ExtractValue(text string) (any, error) {
	var v any
	if err := ExtractInto(text, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// IsArray reports whether raw holds a JSON array.
func IsArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

// balancedEnd scans from text[start] and returns the index of the closing
// bracket that brings the depth back to zero. Only brackets of the opening
// kind count, and brackets inside string literals are ignored.
func balancedEnd(text string, start int) (int, bool) {
	open := text[start]
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
