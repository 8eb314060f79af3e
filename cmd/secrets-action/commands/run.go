package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/secrets-action/internal/actions"
	"github.com/systmms/secrets-action/internal/auth"
	"github.com/systmms/secrets-action/internal/config"
	"github.com/systmms/secrets-action/internal/export"
	"github.com/systmms/secrets-action/internal/fileutil"
	"github.com/systmms/secrets-action/internal/headers"
	"github.com/systmms/secrets-action/internal/infisical"
	"github.com/systmms/secrets-action/internal/metrics"
	"github.com/systmms/secrets-action/internal/secrets"
)

const stepRun = "run"

func NewRunCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch secrets and export them",
		Long: `Authenticate with Infisical, fetch the secrets of the configured project
environment and export them.

With export-type env every secret is masked and exported to the following
steps of the job. With export-type file the secrets are rendered in
file-output-format and written to file-output-path under GITHUB_WORKSPACE.

Examples:
  INPUT_CLIENT-ID=... INPUT_CLIENT-SECRET=... INPUT_PROJECT-SLUG=web \
  INPUT_ENV-SLUG=prod secrets-action run

  secrets-action run --config inputs.yaml --log-format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), rt)
		},
	}

	return cmd
}

func runExport(ctx context.Context, rt *Runtime) error {
	start := time.Now()
	recorder := metrics.NewRecorder()

	runCtx, err := rt.newRunContext()
	if err != nil {
		return finish(runCtx, nil, stepRun, "", "", start, err)
	}

	in, err := config.Load(rt.lookup(), rt.ConfigPath)
	if err != nil {
		return finish(runCtx, nil, stepRun, "", "", start, err)
	}

	client := newInfisicalClient(rt, in, runCtx)
	exporter := export.New(
		auth.NewDispatcher(client, runCtx.Logger()),
		client,
		fileutil.OS{},
		runCtx,
	)

	if ctx == nil {
		ctx = context.Background()
	}
	result, err := exporter.Run(ctx, exportOptions(in))
	if err == nil {
		recorder.RecordExported(in.ExportType, result.Exported)
	} else if infisical.IsUnauthorized(err) {
		runCtx.Debug("Infisical rejected the request; check the identity credentials and its access to project %s", in.ProjectSlug)
	}

	return finish(runCtx, recorder, stepRun, in.Method, in.MetricsFile, start, err)
}

func newInfisicalClient(rt *Runtime, in *config.Inputs, runCtx *actions.Context) *infisical.Client {
	hdrs := headers.Parse(in.ExtraHeaders)
	for _, name := range hdrs.Invalid() {
		runCtx.Warning("Ignoring extra header with invalid name: %q", name)
	}

	var opts []infisical.Option
	if rt.HTTPClient != nil {
		opts = append(opts, infisical.WithHTTPClient(rt.HTTPClient))
	}
	opts = append(opts,
		infisical.WithTimeout(in.Timeout),
		infisical.WithIDTokenSource(actions.NewIDTokenSource(rt.env, rt.HTTPClient, runCtx)),
	)

	return infisical.New(in.Domain, hdrs, opts...)
}

func exportOptions(in *config.Inputs) export.Options {
	return export.Options{
		Method: auth.Method(in.Method),
		Credentials: auth.Credentials{
			ClientID:     in.ClientID,
			ClientSecret: in.ClientSecret,
			IdentityID:   in.IdentityID,
			OIDCAudience: in.OIDCAudience,
		},
		Scope: secrets.Scope{
			ProjectSlug:    in.ProjectSlug,
			Environment:    in.EnvSlug,
			SecretPath:     in.SecretPath,
			IncludeImports: in.IncludeImports,
			Recursive:      in.Recursive,
		},
		Type:         export.Type(in.ExportType),
		Workspace:    in.Workspace,
		OutputPath:   in.FileOutputPath,
		OutputFormat: in.FileOutputFormat,
		Prefix:       in.EnvPrefix,
		Suffix:       in.EnvSuffix,
	}
}
