// Package export runs the main step: authenticate, fetch the secrets and
// publish them as environment variables or as a file.
package export

import (
	"context"
	"encoding/json"

	"github.com/systmms/secrets-action/internal/auth"
	dserrors "github.com/systmms/secrets-action/internal/errors"
	"github.com/systmms/secrets-action/internal/format"
	"github.com/systmms/secrets-action/internal/secrets"
	"github.com/systmms/secrets-action/internal/secure"
)

// Type selects where secrets are exported to
type Type string

const (
	TypeEnv  Type = "env"
	TypeFile Type = "file"
)

// RunContext is the host surface of the running step
type RunContext interface {
	SetSecret(value string)
	ExportVariable(name, value string) error
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// FileSystem is the subset of file operations the export and cleanup use
type FileSystem interface {
	WriteFile(path string, data []byte) error
	Access(path string) error
	Remove(path string) error
}

// Authenticator obtains a bearer token
type Authenticator interface {
	Login(ctx context.Context, method auth.Method, creds auth.Credentials) (auth.Token, error)
}

// SecretFetcher lists the secrets of a scope
type SecretFetcher interface {
	ListSecrets(ctx context.Context, token string, scope secrets.Scope) (*secrets.Map, error)
}

// Options configures one run
type Options struct {
	Method       auth.Method
	Credentials  auth.Credentials
	Scope        secrets.Scope
	Type         Type
	Workspace    string
	OutputPath   string
	OutputFormat string
	Prefix       string
	Suffix       string
}

// FilePath is where file exports are written: the workspace directly
// followed by the configured output path
func (o Options) FilePath() string {
	return o.Workspace + o.OutputPath
}

// Result summarizes a successful run
type Result struct {
	Exported int
	Path     string
}

// Exporter sequences token acquisition, secret fetch and export
type Exporter struct {
	auth    Authenticator
	fetcher SecretFetcher
	fs      FileSystem
	run     RunContext
}

// New creates an exporter
func New(authn Authenticator, fetcher SecretFetcher, fs FileSystem, run RunContext) *Exporter {
	return &Exporter{
		auth:    authn,
		fetcher: fetcher,
		fs:      fs,
		run:     run,
	}
}

// Run performs one export. Every step must succeed before the next one
// starts and the first failure is returned unchanged.
func (e *Exporter) Run(ctx context.Context, opts Options) (Result, error) {
	token, err := e.auth.Login(ctx, opts.Method, opts.Credentials)
	if err != nil {
		return Result{}, err
	}
	e.run.SetSecret(string(token))

	m, err := e.fetch(ctx, token, opts.Scope)
	if err != nil {
		return Result{}, err
	}

	keys, _ := json.Marshal(m.Keys())
	e.run.Debug("Exporting the following envs: %s", string(keys))

	switch opts.Type {
	case TypeEnv:
		return e.exportEnv(m, opts)
	case TypeFile:
		return e.exportFile(m, opts)
	default:
		e.run.Warning("Unknown export type '%s', expected 'env' or 'file'; no secrets were exported", opts.Type)
		return Result{}, nil
	}
}

// fetch keeps the token in an enclave while the listing runs and releases
// it afterwards
func (e *Exporter) fetch(ctx context.Context, token auth.Token, scope secrets.Scope) (*secrets.Map, error) {
	holder := secure.HoldToken(string(token))
	defer holder.Destroy()

	var m *secrets.Map
	err := holder.Use(func(tok string) error {
		var fetchErr error
		m, fetchErr = e.fetcher.ListSecrets(ctx, tok, scope)
		return fetchErr
	})
	if err != nil {
		return nil, dserrors.FetchError{Err: err}
	}
	if m == nil {
		m = secrets.New()
	}
	return m, nil
}

func (e *Exporter) exportEnv(m *secrets.Map, opts Options) (Result, error) {
	var exportErr error
	m.Each(func(key, value string) {
		if exportErr != nil {
			return
		}
		e.run.SetSecret(value)
		exportErr = e.run.ExportVariable(opts.Prefix+key+opts.Suffix, value)
	})
	if exportErr != nil {
		return Result{}, exportErr
	}

	e.run.Info("Injected secrets as environment variables")
	return Result{Exported: m.Len()}, nil
}

func (e *Exporter) exportFile(m *secrets.Map, opts Options) (Result, error) {
	content := format.Render(m, format.Parse(opts.OutputFormat), opts.Prefix, opts.Suffix)
	filePath := opts.FilePath()

	validation := format.ValidatePath(opts.OutputPath, opts.OutputFormat)
	if validation.Warning != "" {
		e.run.Warning("%s", validation.Warning)
	}

	e.run.Info("Exporting secrets to %s in %s format", filePath, opts.OutputFormat)
	if err := e.fs.WriteFile(filePath, []byte(content)); err != nil {
		e.run.Error("Error writing file: %s", err.Error())
		return Result{}, dserrors.WriteError{Path: filePath, Err: err}
	}
	e.run.Info("Successfully exported secrets to file")

	return Result{Exported: m.Len(), Path: filePath}, nil
}
