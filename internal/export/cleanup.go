package export

import (
	"errors"
	"io/fs"
)

// CleanupOptions configures the post step
type CleanupOptions struct {
	Enabled    bool
	Workspace  string
	OutputPath string
}

// Cleanup deletes the exported file when cleanup is enabled. A missing file
// is not an error and no file problem ever fails the step; it reports
// whether a file was removed.
func Cleanup(fsys FileSystem, run RunContext, opts CleanupOptions) bool {
	if !opts.Enabled {
		run.Info("Cleanup is disabled, keeping exported file")
		return false
	}

	filePath := opts.Workspace + opts.OutputPath

	if err := fsys.Access(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			run.Debug("File not found at %s, skipping cleanup", filePath)
			return false
		}
		run.Warning("Failed to clean up file: %s", err.Error())
		return false
	}

	if err := fsys.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			run.Debug("File not found at %s, skipping cleanup", filePath)
			return false
		}
		run.Warning("Failed to clean up file: %s", err.Error())
		return false
	}

	run.Info("Cleaned up exported file at %s", filePath)
	return true
}
