package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/systmms/secrets-action/internal/actions"
	"github.com/systmms/secrets-action/internal/config"
	dserrors "github.com/systmms/secrets-action/internal/errors"
	"github.com/systmms/secrets-action/internal/logging"
	"github.com/systmms/secrets-action/internal/metrics"
)

// Log formats accepted by --log-format
const (
	LogFormatAuto    = "auto"
	LogFormatActions = "actions"
	LogFormatText    = "text"
)

// ErrStepFailed is returned once a failure has been reported through the
// run context, so the caller only has to set the exit code
var ErrStepFailed = errors.New("step failed")

// Runtime carries the global flags and the process surface the commands
// run against
type Runtime struct {
	ConfigPath string
	Debug      bool
	NoColor    bool
	LogFormat  string

	Lookup     config.LookupFunc
	Out        io.Writer
	Setenv     func(key, value string) error
	HTTPClient *http.Client
}

// NewRuntime returns a runtime bound to the process environment
func NewRuntime() *Runtime {
	return &Runtime{
		LogFormat: LogFormatAuto,
		Lookup:    os.LookupEnv,
		Out:       os.Stdout,
		Setenv:    os.Setenv,
	}
}

func (rt *Runtime) env(key string) string {
	if rt.Lookup == nil {
		return os.Getenv(key)
	}
	v, _ := rt.Lookup(key)
	return v
}

func (rt *Runtime) style() (logging.Style, error) {
	switch rt.LogFormat {
	case "", LogFormatAuto:
		if rt.env("GITHUB_ACTIONS") == "true" {
			return logging.StyleActions, nil
		}
		return logging.StyleText, nil
	case LogFormatActions:
		return logging.StyleActions, nil
	case LogFormatText:
		return logging.StyleText, nil
	default:
		return logging.StyleText, dserrors.UserError{
			Message:    fmt.Sprintf("Unknown log format: %s", rt.LogFormat),
			Suggestion: "Use one of: auto, actions, text",
		}
	}
}

// newRunContext builds the logger and run context for a command. An invalid
// log format is reported through a text-style context.
func (rt *Runtime) newRunContext() (*actions.Context, error) {
	out := rt.Out
	if out == nil {
		out = os.Stdout
	}
	style, err := rt.style()
	logger := logging.NewWithWriter(out, style, rt.Debug, rt.NoColor)

	opts := []actions.Option{actions.WithEnvFile(rt.env("GITHUB_ENV"))}
	if rt.Setenv != nil {
		opts = append(opts, actions.WithSetenv(rt.Setenv))
	}
	return actions.New(logger, opts...), err
}

func (rt *Runtime) lookup() config.LookupFunc {
	if rt.Lookup == nil {
		return os.LookupEnv
	}
	return rt.Lookup
}

// finish records the step metrics and turns err into the reported failure.
// A nil recorder records nothing, which is used before the inputs are known.
func finish(runCtx *actions.Context, recorder *metrics.Recorder, step, method, metricsFile string, start time.Time, err error) error {
	if recorder != nil {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = dserrors.Kind(err)
		}
		recorder.RecordRun(step, method, outcome, time.Since(start))
		if werr := recorder.WriteTextfile(metricsFile); werr != nil {
			runCtx.Warning("Failed to write metrics file: %s", werr.Error())
		}
	}

	if err == nil {
		return nil
	}
	runCtx.SetFailed(err.Error())
	return ErrStepFailed
}
