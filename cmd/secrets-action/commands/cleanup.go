package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/secrets-action/internal/config"
	"github.com/systmms/secrets-action/internal/export"
	"github.com/systmms/secrets-action/internal/fileutil"
	"github.com/systmms/secrets-action/internal/metrics"
)

const stepCleanup = "cleanup"

func NewCleanupCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the exported secrets file",
		Long: `Remove the file written by a file export. Runs as the post step of the
action so the secrets do not outlive the job.

A missing file is skipped and a failed removal only produces a warning.
Set the clean input to false to keep the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(rt)
		},
	}

	return cmd
}

func runCleanup(rt *Runtime) error {
	start := time.Now()
	recorder := metrics.NewRecorder()

	runCtx, err := rt.newRunContext()
	if err != nil {
		return finish(runCtx, nil, stepCleanup, "", "", start, err)
	}

	in, err := config.LoadCleanup(rt.lookup(), rt.ConfigPath)
	if err != nil {
		return finish(runCtx, nil, stepCleanup, "", "", start, err)
	}

	removed := export.Cleanup(fileutil.OS{}, runCtx, export.CleanupOptions{
		Enabled:    in.Clean,
		Workspace:  in.Workspace,
		OutputPath: in.FileOutputPath,
	})
	if removed {
		recorder.RecordCleaned()
	}

	return finish(runCtx, recorder, stepCleanup, "", in.MetricsFile, start, nil)
}
