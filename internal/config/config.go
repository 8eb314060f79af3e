// Package config resolves the step inputs. Values come from the INPUT_*
// environment variables set by the runner, then from an optional YAML file,
// then from the built-in defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/secrets-action/internal/errors"
)

//go:embed schema.json
var schemaJSON string

// Input names
const (
	InputMethod           = "method"
	InputClientID         = "client-id"
	InputClientSecret     = "client-secret"
	InputIdentityID       = "identity-id"
	InputOIDCAudience     = "oidc-audience"
	InputDomain           = "domain"
	InputEnvSlug          = "env-slug"
	InputProjectSlug      = "project-slug"
	InputSecretPath       = "secret-path"
	InputIncludeImports   = "include-imports"
	InputRecursive        = "recursive"
	InputExtraHeaders     = "extra-headers"
	InputExportType       = "export-type"
	InputFileOutputPath   = "file-output-path"
	InputFileOutputFormat = "file-output-format"
	InputEnvPrefix        = "env-prefix"
	InputEnvSuffix        = "env-suffix"
	InputClean            = "clean"
	InputMetricsFile      = "metrics-file"
	InputTimeout          = "timeout"
)

// Defaults applied when an input is neither set nor present in the file
var Defaults = map[string]string{
	InputMethod:           "universal",
	InputDomain:           "https://app.infisical.com",
	InputSecretPath:       "/",
	InputIncludeImports:   "true",
	InputRecursive:        "false",
	InputExportType:       "env",
	InputFileOutputPath:   "/.env",
	InputFileOutputFormat: "dotenv",
	InputClean:            "true",
	InputTimeout:          "30s",
}

// LookupFunc reads an environment variable
type LookupFunc func(key string) (string, bool)

// Inputs holds every resolved step input
type Inputs struct {
	Method       string
	ClientID     string
	ClientSecret string
	IdentityID   string
	OIDCAudience string

	Domain       string
	ExtraHeaders string
	Timeout      time.Duration

	ProjectSlug    string
	EnvSlug        string
	SecretPath     string
	IncludeImports bool
	Recursive      bool

	ExportType       string
	FileOutputPath   string
	FileOutputFormat string
	EnvPrefix        string
	EnvSuffix        string
	Clean            bool

	MetricsFile string

	// Workspace is GITHUB_WORKSPACE, the directory file exports are relative to
	Workspace string
}

// InputEnvName returns the environment variable carrying input name
func InputEnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Load resolves the inputs. filePath is optional; when set the file must
// exist and match the input schema.
func Load(lookup LookupFunc, filePath string) (*Inputs, error) {
	r, err := newResolver(lookup, filePath)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Method:           r.str(InputMethod),
		ClientID:         r.str(InputClientID),
		ClientSecret:     r.str(InputClientSecret),
		IdentityID:       r.str(InputIdentityID),
		OIDCAudience:     r.str(InputOIDCAudience),
		Domain:           r.str(InputDomain),
		ExtraHeaders:     r.str(InputExtraHeaders),
		ProjectSlug:      r.str(InputProjectSlug),
		EnvSlug:          r.str(InputEnvSlug),
		SecretPath:       r.str(InputSecretPath),
		ExportType:       r.str(InputExportType),
		FileOutputPath:   r.str(InputFileOutputPath),
		FileOutputFormat: r.str(InputFileOutputFormat),
		EnvPrefix:        r.str(InputEnvPrefix),
		EnvSuffix:        r.str(InputEnvSuffix),
		MetricsFile:      r.str(InputMetricsFile),
		Workspace:        r.workspace(),
	}

	if in.IncludeImports, err = r.boolean(InputIncludeImports); err != nil {
		return nil, err
	}
	if in.Recursive, err = r.boolean(InputRecursive); err != nil {
		return nil, err
	}
	if in.Clean, err = r.boolean(InputClean); err != nil {
		return nil, err
	}
	if in.Timeout, err = r.duration(InputTimeout); err != nil {
		return nil, err
	}

	return in, nil
}

// CleanupInputs holds the inputs the post step reads
type CleanupInputs struct {
	FileOutputPath string
	Clean          bool
	MetricsFile    string
	Workspace      string
}

// LoadCleanup resolves only the inputs cleanup needs, so a malformed input
// that only the main step uses cannot fail the post step.
func LoadCleanup(lookup LookupFunc, filePath string) (*CleanupInputs, error) {
	r, err := newResolver(lookup, filePath)
	if err != nil {
		return nil, err
	}

	in := &CleanupInputs{
		FileOutputPath: r.str(InputFileOutputPath),
		MetricsFile:    r.str(InputMetricsFile),
		Workspace:      r.workspace(),
	}
	if in.Clean, err = r.boolean(InputClean); err != nil {
		return nil, err
	}
	return in, nil
}

// ParseBool accepts the YAML 1.2 core schema booleans
func ParseBool(name, value string) (bool, error) {
	switch value {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, dserrors.UserError{
		Message:    fmt.Sprintf("Input does not meet YAML 1.2 \"Core Schema\" specification: %s", name),
		Suggestion: "Support boolean input list: `true | True | TRUE | false | False | FALSE`",
	}
}

type resolver struct {
	lookup LookupFunc
	file   map[string]interface{}
}

func newResolver(lookup LookupFunc, filePath string) (*resolver, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	file := map[string]interface{}{}
	if filePath != "" {
		var err error
		if file, err = readFile(filePath); err != nil {
			return nil, err
		}
	}
	return &resolver{lookup: lookup, file: file}, nil
}

func (r *resolver) workspace() string {
	ws, _ := r.lookup("GITHUB_WORKSPACE")
	return ws
}

// str returns the trimmed input value. A blank environment value falls
// through to the file, then to the default.
func (r *resolver) str(name string) string {
	if v, ok := r.lookup(InputEnvName(name)); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v, ok := r.file[name]; ok && v != nil {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return Defaults[name]
}

func (r *resolver) boolean(name string) (bool, error) {
	return ParseBool(name, r.str(name))
}

func (r *resolver) duration(name string) (time.Duration, error) {
	raw := r.str(name)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, dserrors.UserError{
			Message:    fmt.Sprintf("Invalid duration for input %s: %s", name, raw),
			Suggestion: "Use a Go duration such as 30s or 2m",
			Err:        err,
		}
	}
	return d, nil
}

func readFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dserrors.UserError{
				Message:    "Configuration file not found",
				Details:    path,
				Suggestion: "Check the --config path",
				Err:        err,
			}
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, dserrors.UserError{
			Message:    "Invalid YAML syntax in configuration file",
			Details:    err.Error(),
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			Err:        err,
		}
	}

	if err := validate(values); err != nil {
		return nil, err
	}
	return values, nil
}

func validate(values map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(values),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dserrors.UserError{
			Message:    "Configuration file does not match the input schema",
			Details:    strings.Join(errorMessages, "; "),
			Suggestion: "Use the action input names as keys, for example 'export-type: file'",
		}
	}
	return nil
}
