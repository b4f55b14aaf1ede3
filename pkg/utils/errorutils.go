package utils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
)

// ContainsErrorSubstring checks if the error or any of its wrapped errors contain the target substring.
func ContainsErrorSubstring(err error, target string) bool {
	for err != nil {
		if strings.Contains(err.Error(), target) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// WrapIfNotNil prefixes err with the calling function, e.g.
// "transcript.(*ApifyClient).runActor - context: cause".
func WrapIfNotNil(err error, context ...string) error {
	if err == nil {
		return nil
	}

	parts := make([]string, 0, 1+len(context))
	parts = append(parts, callerName(2))
	parts = append(parts, context...)

	return fmt.Errorf("%s: %w", strings.Join(parts, " - "), err)
}

// RootCause follows the single-error Unwrap chain to its end.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Truncate shortens s to at most limit bytes, never splitting a rune, and
// marks the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// LogStack writes the goroutine's stack at error level, starting at the
// caller of LogStack. Meant for recovered panics.
func LogStack(log logging.Logger, title string) {
	log.Errorf("%s stack trace:", title)

	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			log.Errorf("    %s (%s:%d)", shortFuncName(frame.Function), frame.File, frame.Line)
		}
		if !more {
			return
		}
	}
}

func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return shortFuncName(fn.Name())
}

// shortFuncName drops the module path, keeping "pkg.Func" or "pkg.(*T).Method".
func shortFuncName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
