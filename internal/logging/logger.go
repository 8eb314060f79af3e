package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Style selects how log lines are rendered
type Style int

const (
	// StyleText renders glyph-prefixed lines for terminals
	StyleText Style = iota
	// StyleActions renders GitHub Actions workflow commands
	StyleActions
)

// Logger provides structured logging with redaction support
type Logger struct {
	debug   bool
	noColor bool
	style   Style
	out     io.Writer

	mu      sync.Mutex
	secrets []string
}

// NewWithWriter creates a logger with an explicit output and style
func NewWithWriter(out io.Writer, style Style, debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
		style:   style,
		out:     out,
	}
}

// Style returns the rendering style of the logger
func (l *Logger) Style() Style {
	return l.style
}

// Mask registers a value that must never appear in log output
func (l *Logger) Mask(value string) {
	if value == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.secrets = append(l.secrets, value)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	msg := l.render(format, args...)
	switch {
	case l.style == StyleActions:
		l.write(msg)
	case !l.noColor:
		l.write(fmt.Sprintf("\033[32m✓\033[0m %s", msg))
	default:
		l.write(fmt.Sprintf("✓ %s", msg))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	msg := l.render(format, args...)
	switch {
	case l.style == StyleActions:
		l.write("::warning::" + EscapeData(msg))
	case !l.noColor:
		l.write(fmt.Sprintf("\033[33m⚠\033[0m %s", msg))
	default:
		l.write(fmt.Sprintf("⚠ %s", msg))
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	msg := l.render(format, args...)
	switch {
	case l.style == StyleActions:
		l.write("::error::" + EscapeData(msg))
	case !l.noColor:
		l.write(fmt.Sprintf("\033[31m✗\033[0m %s", msg))
	default:
		l.write(fmt.Sprintf("✗ %s", msg))
	}
}

// Debug logs a debug message if debug mode is enabled.
// Workflow debug commands are always emitted; the runner decides whether to show them.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.style == StyleActions {
		l.write("::debug::" + EscapeData(l.render(format, args...)))
		return
	}
	if !l.debug {
		return
	}
	msg := l.render(format, args...)
	if !l.noColor {
		l.write(fmt.Sprintf("\033[36m[DEBUG]\033[0m %s", msg))
	} else {
		l.write(fmt.Sprintf("[DEBUG] %s", msg))
	}
}

// Command writes a raw line, used for workflow commands other than log levels
func (l *Logger) Command(line string) {
	l.write(line)
}

func (l *Logger) render(format string, args ...interface{}) string {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return Redact(msg, l.secrets)
}

func (l *Logger) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

// EscapeData escapes a workflow command message
func EscapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// EscapeProperty escapes a workflow command property value
func EscapeProperty(s string) string {
	s = EscapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED]
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
