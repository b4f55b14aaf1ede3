package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GlossaryEntry is one vocabulary item returned by the completion backend.
type GlossaryEntry struct {
	Timestamp      string `json:"timestamp"`
	Seconds        int    `json:"seconds" jsonschema:"minimum=0"`
	Term           string `json:"term"`
	Meaning        string `json:"meaning"`
	ContextExcerpt string `json:"context_excerpt"`
	Tally          int    `json:"tally" jsonschema:"minimum=1"`
}

type glossaryEntryWire struct {
	Timestamp      json.RawMessage `json:"timestamp"`
	Seconds        json.RawMessage `json:"seconds"`
	Term           json.RawMessage `json:"term"`
	Meaning        json.RawMessage `json:"meaning"`
	ContextExcerpt json.RawMessage `json:"context_excerpt"`
	Tally          json.RawMessage `json:"tally"`
}

// UnmarshalJSON accepts the loose typing models tend to produce: numbers
// quoted as strings, fractional seconds, missing tally.
func (e *GlossaryEntry) UnmarshalJSON(data []byte) error {
	wire := glossaryEntryWire{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	seconds, _ := coerceInt(wire.Seconds)
	if seconds < 0 {
		seconds = 0
	}
	tally, ok := coerceInt(wire.Tally)
	if !ok || tally < 1 {
		tally = 1
	}

	*e = GlossaryEntry{
		Timestamp:      coerceString(wire.Timestamp),
		Seconds:        seconds,
		Term:           coerceString(wire.Term),
		Meaning:        coerceString(wire.Meaning),
		ContextExcerpt: coerceString(wire.ContextExcerpt),
		Tally:          tally,
	}
	return nil
}

// GlossarySet is ordered by Seconds, latest first. Duplicates are allowed.
type GlossarySet []GlossaryEntry

// SortBySecondsDesc stable-sorts the set in place and returns it.
func (g GlossarySet) SortBySecondsDesc() GlossarySet {
	sort.SliceStable(g, func(i, j int) bool {
		return g[i].Seconds > g[j].Seconds
	})
	return g
}

// MarshalJSON always emits an array, never null.
func (g GlossarySet) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]GlossaryEntry(g))
}

func coerceString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func coerceInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return floorToInt(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, parseErr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if parseErr != nil {
			return 0, false
		}
		return floorToInt(parsed)
	}

	return 0, false
}

func floorToInt(n float64) (int, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return int(math.Floor(n)), true
}
