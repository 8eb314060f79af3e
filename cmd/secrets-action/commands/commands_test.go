package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	mu     sync.Mutex
	vars   map[string]string
	setenv map[string]string
	out    bytes.Buffer
}

func newTestEnv(vars map[string]string) *testEnv {
	if vars == nil {
		vars = map[string]string{}
	}
	return &testEnv{vars: vars, setenv: map[string]string{}}
}

func (e *testEnv) runtime() *Runtime {
	return &Runtime{
		LogFormat: LogFormatActions,
		Lookup: func(key string) (string, bool) {
			v, ok := e.vars[key]
			return v, ok
		},
		Out: &e.out,
		Setenv: func(key, value string) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.setenv[key] = value
			return nil
		},
	}
}

func newInfisicalStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/universal-auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["clientSecret"] != "s3cret-value" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		assert.Equal(t, "platform", r.Header.Get("X-Team"))
		_, _ = w.Write([]byte(`{"accessToken":"access-token-xyz","expiresIn":7200,"tokenType":"Bearer"}`))
	})
	mux.HandleFunc("/id-token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer runtime-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":"job-oidc-jwt"}`))
	})
	mux.HandleFunc("/api/v1/auth/oidc-auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "job-oidc-jwt", body["jwt"])
		_, _ = w.Write([]byte(`{"accessToken":"access-token-xyz"}`))
	})
	mux.HandleFunc("/api/v3/secrets/raw", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token-xyz", r.Header.Get("Authorization"))
		assert.Equal(t, "web", r.URL.Query().Get("workspaceSlug"))
		assert.Equal(t, "prod", r.URL.Query().Get("environment"))
		_, _ = w.Write([]byte(`{"secrets":[
			{"secretKey":"API_KEY","secretValue":"abc-123-key"},
			{"secretKey":"DB_URL","secretValue":"postgres://u:p@db/x"}
		],"imports":[]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func baseInputs(srv *httptest.Server) map[string]string {
	return map[string]string{
		"INPUT_DOMAIN":        srv.URL,
		"INPUT_CLIENT-ID":     "client-1",
		"INPUT_CLIENT-SECRET": "s3cret-value",
		"INPUT_PROJECT-SLUG":  "web",
		"INPUT_ENV-SLUG":      "prod",
		"INPUT_EXTRA-HEADERS": "X-Team: platform",
	}
}

func TestRunCommand_EnvExport(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	envFile := filepath.Join(t.TempDir(), "github_env")

	vars := baseInputs(srv)
	vars["GITHUB_ENV"] = envFile
	vars["INPUT_ENV-PREFIX"] = "APP_"
	env := newTestEnv(vars)

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "abc-123-key", env.setenv["APP_API_KEY"])
	assert.Equal(t, "postgres://u:p@db/x", env.setenv["APP_DB_URL"])

	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "APP_API_KEY<<ghadelimiter_")
	assert.Contains(t, string(data), "\nabc-123-key\n")

	out := env.out.String()
	assert.Contains(t, out, "::add-mask::access-token-xyz")
	assert.Contains(t, out, "::add-mask::abc-123-key")
	assert.Contains(t, out, "Injected secrets as environment variables")
	assert.Contains(t, out, `::debug::Exporting the following envs: ["API_KEY","DB_URL"]`)
}

func TestRunCommand_FileExport(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	workspace := t.TempDir()

	vars := baseInputs(srv)
	vars["GITHUB_WORKSPACE"] = workspace
	vars["INPUT_EXPORT-TYPE"] = "file"
	vars["INPUT_FILE-OUTPUT-PATH"] = "/secrets.sh"
	vars["INPUT_FILE-OUTPUT-FORMAT"] = "shell"
	env := newTestEnv(vars)

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(workspace, "secrets.sh"))
	require.NoError(t, err)
	assert.Equal(t, "export API_KEY='abc-123-key'\nexport DB_URL='postgres://u:p@db/x'", string(data))

	info, err := os.Stat(filepath.Join(workspace, "secrets.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out := env.out.String()
	assert.Contains(t, out, "Exporting secrets to "+workspace+"/secrets.sh in shell format")
	assert.Contains(t, out, "Successfully exported secrets to file")
	assert.NotContains(t, out, "::warning::")
	assert.Empty(t, env.setenv)
}

func TestRunCommand_OIDCMasksJobToken(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	env := newTestEnv(map[string]string{
		"INPUT_DOMAIN":                   srv.URL,
		"INPUT_METHOD":                   "oidc",
		"INPUT_IDENTITY-ID":              "identity-1",
		"INPUT_PROJECT-SLUG":             "web",
		"INPUT_ENV-SLUG":                 "prod",
		"ACTIONS_ID_TOKEN_REQUEST_URL":   srv.URL + "/id-token",
		"ACTIONS_ID_TOKEN_REQUEST_TOKEN": "runtime-token",
	})

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := env.out.String()
	assert.Contains(t, out, "::add-mask::job-oidc-jwt")
	assert.Less(t, strings.Index(out, "::add-mask::job-oidc-jwt"), strings.Index(out, "::add-mask::access-token-xyz"))
}

func TestRunCommand_InvalidExtraHeaderIsSkipped(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	vars := baseInputs(srv)
	vars["INPUT_EXTRA-HEADERS"] = "X-Team: platform\nnot a header line"
	env := newTestEnv(vars)

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := env.out.String()
	assert.Contains(t, out, `::warning::Ignoring extra header with invalid name: "not a header line"`)
	assert.Contains(t, out, "Injected secrets as environment variables")
}

func TestRunCommand_MissingCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(map[string]string{"INPUT_PROJECT-SLUG": "web"})

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.ErrorIs(t, err, ErrStepFailed)

	assert.Contains(t, env.out.String(), "::error::Missing universal auth credentials")
}

func TestRunCommand_InvalidMethod(t *testing.T) {
	t.Parallel()

	env := newTestEnv(map[string]string{"INPUT_METHOD": "ldap"})

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.ErrorIs(t, cmd.Execute(), ErrStepFailed)

	assert.Contains(t, env.out.String(), "::error::Invalid authentication method: ldap")
}

func TestRunCommand_RejectedCredentials(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	vars := baseInputs(srv)
	vars["INPUT_CLIENT-SECRET"] = "wrong-secret"
	env := newTestEnv(vars)

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.ErrorIs(t, cmd.Execute(), ErrStepFailed)

	out := env.out.String()
	assert.Contains(t, out, "::error::")
	assert.Contains(t, out, "Invalid credentials")
	assert.Empty(t, env.setenv)
}

func TestRunCommand_WritesMetrics(t *testing.T) {
	t.Parallel()

	srv := newInfisicalStub(t)
	metricsFile := filepath.Join(t.TempDir(), "secrets_action.prom")

	vars := baseInputs(srv)
	vars["INPUT_METRICS-FILE"] = metricsFile
	env := newTestEnv(vars)

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `secrets_action_runs_total{method="universal",outcome="success",step="run"} 1`)
	assert.Contains(t, string(data), `secrets_action_secrets_exported{export_type="env"} 2`)
}

func TestRunCommand_InvalidBooleanInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(map[string]string{"INPUT_RECURSIVE": "yes"})

	cmd := NewRunCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.ErrorIs(t, cmd.Execute(), ErrStepFailed)

	assert.Contains(t, env.out.String(), "recursive")
}

func TestCleanupCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		clean      string
		createFile bool
		wantFile   bool
		wantOutput string
	}{
		{name: "removes_file", clean: "true", createFile: true, wantFile: false, wantOutput: "Cleaned up exported file at"},
		{name: "missing_file", clean: "true", createFile: false, wantFile: false, wantOutput: "::debug::File not found at"},
		{name: "disabled", clean: "false", createFile: true, wantFile: true, wantOutput: "Cleanup is disabled, keeping exported file"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			workspace := t.TempDir()
			path := filepath.Join(workspace, ".env")
			if tt.createFile {
				require.NoError(t, os.WriteFile(path, []byte("A=1"), 0600))
			}

			env := newTestEnv(map[string]string{
				"GITHUB_WORKSPACE": workspace,
				"INPUT_CLEAN":      tt.clean,
			})

			cmd := NewCleanupCommand(env.runtime())
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())

			_, err := os.Stat(path)
			assert.Equal(t, tt.wantFile, err == nil)
			assert.Contains(t, env.out.String(), tt.wantOutput)
			assert.False(t, strings.Contains(env.out.String(), "::error::"))
		})
	}
}

func TestCleanupCommand_IgnoresMainStepInputs(t *testing.T) {
	t.Parallel()

	workspace := t.TempDir()
	path := filepath.Join(workspace, ".env")
	require.NoError(t, os.WriteFile(path, []byte("A=1"), 0600))

	env := newTestEnv(map[string]string{
		"GITHUB_WORKSPACE":      workspace,
		"INPUT_RECURSIVE":       "maybe",
		"INPUT_INCLUDE-IMPORTS": "sometimes",
		"INPUT_TIMEOUT":         "soon",
	})

	cmd := NewCleanupCommand(env.runtime())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NotContains(t, env.out.String(), "::error::")
}

func TestRuntime_LogFormat(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	rt := env.runtime()
	rt.LogFormat = "xml"

	cmd := NewCleanupCommand(rt)
	cmd.SetArgs([]string{})
	require.ErrorIs(t, cmd.Execute(), ErrStepFailed)

	assert.Contains(t, env.out.String(), "Unknown log format: xml")
}
