package runner

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/sweep/internal/datalogger"
	"github.com/roach88/sweep/internal/runconfig"
	"github.com/roach88/sweep/internal/runlog"
)

// Base bundles the per-run collaborators every runner needs: the CSV data
// logger (columns from the runner's declaration) and the run logger.
// Concrete runners embed it and call Bind from their factory.
type Base struct {
	Logger         *slog.Logger
	Data           *datalogger.Logger
	CheckpointPath string

	closeLog func() error
}

// Bind wires the base against a resolved config. The config must already
// carry checkpoint and logfile paths, which bootstrap guarantees before
// any factory runs.
func (b *Base) Bind(cfg *runconfig.Config, runID string, columns []string) error {
	checkpointPath, ok := cfg.StringAt(runconfig.KeyCheckpointPath)
	if !ok {
		return fmt.Errorf("config carries no %s; runner constructed outside bootstrap", runconfig.KeyCheckpointPath)
	}
	logfilePath, ok := cfg.StringAt(runconfig.KeyLogfilePath)
	if !ok {
		return fmt.Errorf("config carries no %s; runner constructed outside bootstrap", runconfig.KeyLogfilePath)
	}

	data, err := datalogger.New(logfilePath, columns)
	if err != nil {
		return err
	}

	logger, closeLog, err := runlog.New(checkpointPath, filepath.Base(checkpointPath), runID, nil)
	if err != nil {
		data.Close()
		return err
	}

	b.Logger = logger
	b.Data = data
	b.CheckpointPath = checkpointPath
	b.closeLog = closeLog
	return nil
}

// Close flushes the data log and releases the log file. Exposed as a
// runner method so callers can request it last in the method list.
func (b *Base) Close() error {
	if b.Data != nil {
		if err := b.Data.Close(); err != nil {
			return err
		}
	}
	if b.closeLog != nil {
		return b.closeLog()
	}
	return nil
}
