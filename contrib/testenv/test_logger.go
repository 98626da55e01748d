package testenv

import (
	"fmt"
	"strings"
	"sync"

	"github.com/surrealcrud/surrealcrud/pkg/logger"
)

// TestLogger is a logger.Logger that records message index, level and
// message content without timestamps, so test log output is
// deterministic.
type TestLogger struct {
	mu                  sync.Mutex
	lines               []string
	ignoreErrorPrefixes []string
	ignoreDebug         bool
}

var _ logger.Logger = (*TestLogger)(nil)

// TestLoggerOption is a function that configures a TestLogger
type TestLoggerOption func(*TestLogger)

// WithIgnoreErrorPrefixes drops error messages starting with any prefix.
func WithIgnoreErrorPrefixes(prefixes ...string) TestLoggerOption {
	return func(l *TestLogger) {
		l.ignoreErrorPrefixes = append(l.ignoreErrorPrefixes, prefixes...)
	}
}

// WithIgnoreDebug drops DEBUG messages.
func WithIgnoreDebug() TestLoggerOption {
	return func(l *TestLogger) {
		l.ignoreDebug = true
	}
}

func NewTestLogger(opts ...TestLoggerOption) *TestLogger {
	l := &TestLogger{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *TestLogger) Error(msg string, args ...any) {
	for _, prefix := range l.ignoreErrorPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return
		}
	}
	l.record("ERROR", msg, args)
}

func (l *TestLogger) Warn(msg string, args ...any) { l.record("WARN", msg, args) }

func (l *TestLogger) Info(msg string, args ...any) { l.record("INFO", msg, args) }

func (l *TestLogger) Debug(msg string, args ...any) {
	if l.ignoreDebug {
		return
	}
	l.record("DEBUG", msg, args)
}

// Lines returns the recorded lines, formatted as
// "[index] LEVEL: message key=value, key=value".
func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func (l *TestLogger) record(level, msg string, args []any) {
	var sb strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i+1 < len(args) {
			fmt.Fprintf(&sb, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&sb, "%v", args[i])
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%d] %s: %s", len(l.lines), level, msg)
	if sb.Len() > 0 {
		line += " " + sb.String()
	}
	l.lines = append(l.lines, line)
}
