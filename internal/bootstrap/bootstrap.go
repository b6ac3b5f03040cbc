package bootstrap

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/roach88/sweep/internal/datalogger"
	"github.com/roach88/sweep/internal/device"
	"github.com/roach88/sweep/internal/runconfig"
	"github.com/roach88/sweep/internal/runlog"
	"github.com/roach88/sweep/internal/runner"
	"github.com/roach88/sweep/internal/seeding"
	"github.com/roach88/sweep/internal/variant"
)

// SnapshotName is the fully-resolved config written into the checkpoint
// directory, recording exactly what ran.
const SnapshotName = "config.yaml"

// Options configures one run. Runner, ConfigPath and CheckpointPath are
// required; everything else has a working zero value.
type Options struct {
	// Runner is the registered runner name.
	Runner string
	// Methods are invoked on the runner in order.
	Methods []string
	// ConfigPath is the base YAML config source.
	ConfigPath string
	// CheckpointPath is this run's checkpoint directory (must exist).
	CheckpointPath string
	// Changes is the already-expanded change record for this run. Callers
	// re-entering from disk read it with variant.ReadRecord first.
	Changes variant.ChangeRecord
	// SeedSources names the randomness sources to seed.
	SeedSources []string

	// Prober overrides host device probing (tests, embedders).
	Prober device.Prober
	// Console overrides the log mirror destination (default os.Stderr).
	Console io.Writer
}

// MethodError reports a runner method that was found but failed. Missing
// methods are not errors; they are warned about and skipped.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("run method %q: %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error {
	return e.Err
}

// Run executes one variant to completion.
func Run(opts Options) error {
	// The unique id is derived from the canonical form of the change
	// record, never its raw text, so records that differ only in
	// formatting stay in the same log files and vice versa.
	runID, err := variant.ShortRunID(opts.Changes)
	if err != nil {
		return err
	}

	runName := filepath.Base(opts.CheckpointPath)
	logger, closeLog, err := runlog.New(opts.CheckpointPath, runName, runID, opts.Console)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := runconfig.Load(opts.ConfigPath, opts.Changes)
	if err != nil {
		return err
	}

	// Resolve the seed and write it back so both the runner and the saved
	// snapshot see the value actually used.
	seed, ok := cfg.Seed()
	if !ok {
		seed = 0
	}
	if err := cfg.Set(runconfig.KeySeed, seed); err != nil {
		return err
	}

	if err := applyOptionalDefaults(cfg); err != nil {
		return err
	}

	// Unknown sources fail here, before any run method executes.
	if err := seeding.Apply(seed, opts.SeedSources); err != nil {
		return err
	}
	logger.Info("randomness fixed", "seed", seed, "sources", opts.SeedSources)

	var gpuID *int64
	if id, ok := cfg.GPUID(); ok {
		gpuID = &id
	}
	sel := device.Select(gpuID, opts.Prober, logger)
	if err := cfg.Set(runconfig.KeyUsingGPU, sel.UsingGPU); err != nil {
		return err
	}
	if err := cfg.Set(runconfig.KeyDevice, sel.Device); err != nil {
		return err
	}

	if err := cfg.Set(runconfig.KeyCheckpointPath, opts.CheckpointPath); err != nil {
		return err
	}
	logfilePath := filepath.Join(opts.CheckpointPath, datalogger.FileName(runID))
	if err := cfg.Set(runconfig.KeyLogfilePath, logfilePath); err != nil {
		return err
	}

	if err := cfg.Save(filepath.Join(opts.CheckpointPath, SnapshotName)); err != nil {
		return err
	}

	r, err := runner.New(opts.Runner, cfg, runID)
	if err != nil {
		return err
	}

	methods := r.Methods()
	for _, name := range opts.Methods {
		method, ok := methods[name]
		if !ok {
			logger.Warn("run method not found on runner, skipping", "method", name, "runner", opts.Runner)
			continue
		}
		logger.Info("invoking run method", "method", name)
		if err := method(); err != nil {
			return &MethodError{Method: name, Err: err}
		}
	}

	return nil
}

// applyOptionalDefaults fills the documented defaults for optional
// properties and writes them back, keeping the persisted snapshot
// self-describing. The gpu id stays unset when absent: absence means no
// device was requested.
func applyOptionalDefaults(cfg *runconfig.Config) error {
	if _, ok := cfg.Get(runconfig.KeyXLabel); !ok {
		if err := cfg.Set(runconfig.KeyXLabel, "X"); err != nil {
			return err
		}
	}
	if _, ok := cfg.Get(runconfig.KeySmoothing); !ok {
		if err := cfg.Set(runconfig.KeySmoothing, 1); err != nil {
			return err
		}
	}
	return nil
}
