package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/sweep/internal/bootstrap"
	"github.com/roach88/sweep/internal/checkpoint"
	"github.com/roach88/sweep/internal/dispatch"
	"github.com/roach88/sweep/internal/jobscript"
	"github.com/roach88/sweep/internal/registry"
	"github.com/roach88/sweep/internal/variant"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	sweepInputs

	Runner      string
	Methods     []string
	SeedSources []string
	Database    string

	// Cluster resources.
	Scheduler    string
	CPUs         int
	MemoryGB     int
	GPUs         int
	GPUType      string
	Walltime     string
	EnvName      string
	ArrayLength  int
	ClusterDebug bool

	// Launcher and Submitter allow overriding process spawning and
	// scheduler submission (for testing). Nil uses the real ones.
	Launcher  dispatch.WorkerLauncher
	Submitter dispatch.Submitter
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Expand a sweep and dispatch every variant",
		Long: `Expand change-set and seed combinations into a checkpoint tree, then
dispatch each variant according to the run mode: single and serial run
in this process, parallel spawns one worker process per variant, and
cluster submits one scheduler job per variant.

Example:
  sweep run --mode parallel --config config.yaml --changes changes.cue \
    --seeds [0,1,2] --runner polynomial --method train --method plot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts)
		},
	}

	opts.sweepInputs.register(cmd)
	cmd.Flags().StringVar(&opts.Runner, "runner", "", "registered runner name (required)")
	cmd.Flags().StringArrayVar(&opts.Methods, "method", nil, "runner method to invoke, in order (repeatable)")
	cmd.Flags().StringArrayVar(&opts.SeedSources, "seed-source", nil, "randomness source to seed (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional SQLite registry to record the sweep in")

	cmd.Flags().StringVar(&opts.Scheduler, "scheduler", "slurm", "cluster scheduler dialect (pbs|slurm)")
	cmd.Flags().IntVar(&opts.CPUs, "cpus", 4, "cpus per cluster job")
	cmd.Flags().IntVar(&opts.MemoryGB, "memory-gb", 16, "memory per cluster job, in gigabytes")
	cmd.Flags().IntVar(&opts.GPUs, "gpus", 0, "gpus per cluster job")
	cmd.Flags().StringVar(&opts.GPUType, "gpu-type", "", "gpu type for cluster jobs")
	cmd.Flags().StringVar(&opts.Walltime, "walltime", "", "walltime for cluster jobs, e.g. 24:0:0")
	cmd.Flags().StringVar(&opts.EnvName, "env-name", "experiments", "environment activated in cluster jobs")
	cmd.Flags().IntVar(&opts.ArrayLength, "array-length", 0, "emit an array-job directive of this length")
	cmd.Flags().BoolVar(&opts.ClusterDebug, "cluster-debug", false, "render job scripts but run workers locally")
	_ = cmd.MarkFlagRequired("runner")

	return cmd
}

func runSweep(opts *RunOptions) error {
	mode, tree, variants, err := materialize(opts.sweepInputs)
	if err != nil {
		return err
	}
	logger := slog.Default()
	logger.Info("checkpoint tree built", "root", tree.Root, "variants", len(tree.Paths), "mode", mode)

	// Workers and in-process runs all load the tree's config copy, not
	// the caller's path, so a sweep survives edits to the original file.
	treeConfig := filepath.Join(tree.Root, checkpoint.ConfigCopyName)

	reg, expID, err := recordSweep(opts, mode, tree, variants, logger)
	if err != nil {
		return err
	}
	if reg != nil {
		defer reg.Close()
	}

	switch mode {
	case variant.ModeSingle, variant.ModeSerial:
		base := bootstrap.Options{
			Runner:      opts.Runner,
			Methods:     opts.Methods,
			ConfigPath:  treeConfig,
			SeedSources: opts.SeedSources,
		}
		err := dispatch.Serial(tree.Paths, base, logger)
		recordSerialOutcome(reg, expID, tree.Paths, err, logger)
		if err != nil {
			return WrapExitError(ExitFailure, "serial dispatch", err)
		}

	case variant.ModeParallel:
		launcher := opts.Launcher
		if launcher == nil {
			launcher = &dispatch.ExecLauncher{
				Runner:      opts.Runner,
				Methods:     opts.Methods,
				SeedSources: opts.SeedSources,
				ConfigPath:  treeConfig,
			}
		}
		setStatuses(reg, expID, tree.Paths, registry.StatusRunning, logger)
		err := dispatch.Parallel(tree.Paths, launcher, logger)
		recordParallelOutcome(reg, expID, tree.Paths, err, logger)
		if err != nil {
			return WrapExitError(ExitFailure, "parallel dispatch", err)
		}

	case variant.ModeCluster:
		dialect, err := jobscript.ParseDialect(opts.Scheduler)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad scheduler", err)
		}
		launcher := opts.Launcher
		if launcher == nil {
			launcher = &dispatch.ExecLauncher{
				Runner:      opts.Runner,
				Methods:     opts.Methods,
				SeedSources: opts.SeedSources,
				ConfigPath:  treeConfig,
			}
		}
		err = dispatch.RunCluster(tree.Paths, dispatch.Cluster{
			Dialect: dialect,
			Params: jobscript.Params{
				CPUs:        opts.CPUs,
				MemoryGB:    opts.MemoryGB,
				GPUs:        opts.GPUs,
				GPUType:     opts.GPUType,
				Walltime:    opts.Walltime,
				EnvName:     opts.EnvName,
				ArrayLength: opts.ArrayLength,
			},
			Launcher: launcher,
			Submit:   opts.Submitter,
			Debug:    opts.ClusterDebug,
			Logger:   logger,
		})
		if err != nil {
			return WrapExitError(ExitFailure, "cluster dispatch", err)
		}
		setStatuses(reg, expID, tree.Paths, registry.StatusSubmitted, logger)
	}

	return nil
}

// recordSweep opens the registry when requested and records the
// experiment and its pending runs. A nil registry means no --db flag.
func recordSweep(opts *RunOptions, mode variant.Mode, tree *checkpoint.Tree, variants []variant.Variant, logger *slog.Logger) (*registry.Registry, string, error) {
	if opts.Database == "" {
		return nil, "", nil
	}
	reg, err := registry.Open(opts.Database)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "open registry", err)
	}
	ctx := context.Background()
	exp, err := reg.CreateExperiment(ctx, tree.Root, string(mode), opts.ConfigPath)
	if err != nil {
		reg.Close()
		return nil, "", WrapExitError(ExitCommandError, "record experiment", err)
	}
	for i, v := range variants {
		if _, err := reg.AddRun(ctx, exp.ID, v, tree.Paths[i]); err != nil {
			reg.Close()
			return nil, "", WrapExitError(ExitCommandError, "record run", err)
		}
	}
	logger.Info("sweep recorded", "experiment", exp.ID, "db", opts.Database)
	return reg, exp.ID, nil
}

// Status updates are best effort: a broken ledger must not fail a sweep
// whose runs already happened.
func setStatus(reg *registry.Registry, expID, path, status string, logger *slog.Logger) {
	if reg == nil {
		return
	}
	if err := reg.SetStatus(context.Background(), expID, path, status); err != nil {
		logger.Warn("registry status update failed", "checkpoint", path, "error", err)
	}
}

func setStatuses(reg *registry.Registry, expID string, paths []string, status string, logger *slog.Logger) {
	for _, p := range paths {
		setStatus(reg, expID, p, status, logger)
	}
}

func recordSerialOutcome(reg *registry.Registry, expID string, paths []string, runErr error, logger *slog.Logger) {
	if reg == nil {
		return
	}
	if runErr == nil {
		setStatuses(reg, expID, paths, registry.StatusSucceeded, logger)
		return
	}
	var vErr *dispatch.VariantError
	if !errors.As(runErr, &vErr) {
		return
	}
	// Variants before the failure completed; later ones never started.
	for _, p := range paths {
		if p == vErr.Checkpoint {
			setStatus(reg, expID, p, registry.StatusFailed, logger)
			return
		}
		setStatus(reg, expID, p, registry.StatusSucceeded, logger)
	}
}

func recordParallelOutcome(reg *registry.Registry, expID string, paths []string, runErr error, logger *slog.Logger) {
	if reg == nil {
		return
	}
	failed := map[string]bool{}
	var agg *dispatch.AggregateError
	if errors.As(runErr, &agg) {
		for _, f := range agg.Failures {
			failed[f.Checkpoint] = true
		}
	}
	for _, p := range paths {
		status := registry.StatusSucceeded
		if failed[p] {
			status = registry.StatusFailed
		}
		setStatus(reg, expID, p, status, logger)
	}
}
