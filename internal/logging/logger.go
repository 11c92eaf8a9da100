// Package logging provides leveled logging with redaction support. The same
// logger serves the Lambda handler (plain lines, CloudWatch-friendly) and the
// operator CLI (colored glyphs on a terminal).
//
// Key material must never reach a log line. Wrap sensitive values in Secret,
// or scrub whole strings with Redact, before handing them to any formatter.
package logging

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes leveled messages to stderr.
type Logger struct {
	debug   bool
	noColor bool
	prefix  string
}

// New creates a logger. Color is disabled for the Lambda runtime, where the
// escape codes would just clutter CloudWatch.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor}
}

// With returns a copy of the logger that prefixes every line, typically with
// the CloudFormation request id so one invocation's lines group together.
func (l *Logger) With(prefix string) *Logger {
	return &Logger{debug: l.debug, noColor: l.noColor, prefix: prefix}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a debug message when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(glyph, plainGlyph, format string, args ...interface{}) {
	g := glyph
	if l.noColor {
		g = plainGlyph
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		fmt.Fprintf(os.Stderr, "%s [%s] %s\n", g, l.prefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", g, msg)
}

// Secret wraps a sensitive value so any fmt verb renders it redacted.
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string { return "[REDACTED]" }

// Redact replaces each of the given sensitive values inside s.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		// Skip trivial values that would shred unrelated text.
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
