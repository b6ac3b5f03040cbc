// Package runlog builds the isolated per-run logger: one slog.Logger
// writing to both the console and a log file inside the checkpoint
// directory. The file name carries the run id so concurrent variants
// sharing a process group never interleave into the same file.
package runlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// logFileBase is the fixed log file name; a non-empty run id is inserted
// before the extension ("log_<id>.txt").
const logFileBase = "log.txt"

// FileName returns the log file name for a run id.
func FileName(runID string) string {
	if runID == "" {
		return logFileBase
	}
	return fmt.Sprintf("log_%s.txt", runID)
}

// New opens the per-run logger. The returned closer flushes and closes the
// underlying file; console defaults to os.Stderr when nil.
func New(checkpointPath, runName, runID string, console io.Writer) (*slog.Logger, func() error, error) {
	if console == nil {
		console = os.Stderr
	}

	path := filepath.Join(checkpointPath, FileName(runID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(console, file), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	logger := slog.New(handler).With("run", runName)
	if runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger, file.Close, nil
}
