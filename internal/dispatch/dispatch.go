// Package dispatch drives expanded variants to execution. Three
// strategies share the same per-run engine: Serial runs each variant in
// this process and halts on the first failure, Parallel spawns one
// worker process per variant and joins them all, and Cluster renders a
// job script per variant and hands it to a batch scheduler.
//
// Worker processes re-enter the binary through its exec subcommand,
// reading the change record back from the checkpoint directory. Process
// spawning and scheduler submission sit behind small interfaces so
// callers and tests can substitute them.
package dispatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/sweep/internal/bootstrap"
	"github.com/roach88/sweep/internal/checkpoint"
	"github.com/roach88/sweep/internal/variant"
)

// VariantError ties a failure to the checkpoint directory it happened in.
type VariantError struct {
	Checkpoint string
	Err        error
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("variant %s: %v", filepath.Base(e.Checkpoint), e.Err)
}

func (e *VariantError) Unwrap() error {
	return e.Err
}

// AggregateError collects the failures of a parallel pass. The pass
// itself always runs to the join barrier; this reports what broke.
type AggregateError struct {
	Total    int
	Failures []*VariantError
}

func (e *AggregateError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = filepath.Base(f.Checkpoint)
	}
	return fmt.Sprintf("%d of %d variants failed: %s",
		len(e.Failures), e.Total, strings.Join(names, ", "))
}

// Serial runs every checkpoint in order within this process. Each run
// rehydrates its change record from the checkpoint directory, so the
// outcome matches a worker process entering the same directory. The
// first failure halts the pass.
func Serial(paths []string, base bootstrap.Options, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for i, path := range paths {
		record, err := variant.ReadRecord(checkpoint.RecordPath(path))
		if err != nil {
			return &VariantError{Checkpoint: path, Err: err}
		}
		logger.Info("starting variant", "checkpoint", path, "index", i+1, "total", len(paths))
		opts := base
		opts.CheckpointPath = path
		opts.Changes = record
		if err := bootstrap.Run(opts); err != nil {
			return &VariantError{Checkpoint: path, Err: err}
		}
	}
	return nil
}
