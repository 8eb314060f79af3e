// Package actions implements the run context of a GitHub Actions step:
// masking values, exporting variables to later steps and reporting status.
package actions

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/systmms/secrets-action/internal/logging"
)

// Context is the host surface a step talks to
type Context struct {
	logger    *logging.Logger
	envFile   string
	setenv    func(key, value string) error
	delimiter func() string
	failed    bool
}

// Option customizes a Context
type Option func(*Context)

// WithEnvFile sets the file that exported variables are appended to
func WithEnvFile(path string) Option {
	return func(c *Context) {
		c.envFile = path
	}
}

// WithSetenv replaces how the current process environment is updated
func WithSetenv(fn func(key, value string) error) Option {
	return func(c *Context) {
		c.setenv = fn
	}
}

// WithDelimiter replaces the heredoc delimiter generator
func WithDelimiter(fn func() string) Option {
	return func(c *Context) {
		c.delimiter = fn
	}
}

// New creates a run context. The env file defaults to $GITHUB_ENV.
func New(logger *logging.Logger, opts ...Option) *Context {
	c := &Context{
		logger:  logger,
		envFile: os.Getenv("GITHUB_ENV"),
		setenv:  os.Setenv,
		delimiter: func() string {
			return "ghadelimiter_" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the logger messages are written to
func (c *Context) Logger() *logging.Logger {
	return c.logger
}

// SetSecret registers value so that it is masked in every log sink
func (c *Context) SetSecret(value string) {
	if value == "" {
		return
	}
	c.logger.Mask(value)
	if c.logger.Style() == logging.StyleActions {
		c.logger.Command("::add-mask::" + logging.EscapeData(value))
	}
}

// ExportVariable makes name=value visible to this process and to the
// following steps of the job
func (c *Context) ExportVariable(name, value string) error {
	if err := c.setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}

	if c.envFile != "" {
		return c.appendEnvFile(name, value)
	}

	if c.logger.Style() == logging.StyleActions {
		c.logger.Command(fmt.Sprintf("::set-env name=%s::%s", logging.EscapeProperty(name), logging.EscapeData(value)))
	}
	return nil
}

func (c *Context) appendEnvFile(name, value string) error {
	delim := c.delimiter()
	if strings.Contains(name, delim) {
		return fmt.Errorf("unexpected input: name should not contain the delimiter %q", delim)
	}
	if strings.Contains(value, delim) {
		return fmt.Errorf("unexpected input: value should not contain the delimiter %q", delim)
	}

	f, err := os.OpenFile(c.envFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delim, value, delim); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}

// Debug emits a debug message
func (c *Context) Debug(format string, args ...interface{}) {
	c.logger.Debug(format, args...)
}

// Info emits an informational message
func (c *Context) Info(format string, args ...interface{}) {
	c.logger.Info(format, args...)
}

// Warning emits a warning annotation
func (c *Context) Warning(format string, args ...interface{}) {
	c.logger.Warn(format, args...)
}

// Error emits an error annotation
func (c *Context) Error(format string, args ...interface{}) {
	c.logger.Error(format, args...)
}

// SetFailed reports message as the step's terminal failure
func (c *Context) SetFailed(message string) {
	c.failed = true
	c.logger.Error("%s", message)
}

// Failed reports whether SetFailed was called
func (c *Context) Failed() bool {
	return c.failed
}
