package util

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// NewLogger writes JSON lines to stdout at the given level (info when unparseable).
func NewLogger(level string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger with an explicit sink; the tick command keeps stdout for its result.
func NewLoggerTo(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Truncate shortens s to at most n bytes, marking the cut with "...".
// The cut never splits a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:runeCut(s, n)]
	}
	return s[:runeCut(s, n-3)] + "..."
}

func runeCut(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
