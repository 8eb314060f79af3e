package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/secrets-action/cmd/secrets-action/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		// The step already reported its failure through the run context
		if !errors.Is(err, commands.ErrStepFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	rt := commands.NewRuntime()

	rootCmd := &cobra.Command{
		Use:   "secrets-action",
		Short: "Export Infisical secrets into a GitHub Actions job",
		Long: `secrets-action authenticates against Infisical, fetches the secrets of one
project environment and exports them as job environment variables or as a
file in the workspace. The cleanup command removes that file in the post step.

Inputs are read from the INPUT_* variables the runner sets for the action.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&rt.ConfigPath, "config", "", "Optional YAML file supplying inputs that are not set")
	rootCmd.PersistentFlags().BoolVar(&rt.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&rt.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rt.LogFormat, "log-format", commands.LogFormatAuto, "Log format: auto, actions or text")

	rootCmd.AddCommand(
		commands.NewRunCommand(rt),
		commands.NewCleanupCommand(rt),
	)

	return rootCmd.Execute()
}
