// Package timestamp converts between "MM:SS" / "HH:MM:SS" labels and seconds.
// Malformed input never fails; it degrades to 0.
package timestamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse returns the number of seconds a label represents.
func Parse(s string) int {
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2, 3:
		total := 0.0
		for _, part := range parts {
			n, ok := number(part)
			if !ok {
				return 0
			}
			total = total*60 + n
		}
		return toInt(total)
	default:
		n, ok := number(s)
		if !ok {
			return 0
		}
		return toInt(n)
	}
}

// Format renders seconds as "MM:SS", or "HH:MM:SS" once an hour is reached.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))

	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

// number is lenient numeric coercion: surrounding whitespace is ignored and a
// blank part counts as zero.
func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toInt(n float64) int {
	if n < 0 {
		return int(math.Ceil(n))
	}
	return int(math.Floor(n))
}
