package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sweep/internal/bootstrap"
	"github.com/roach88/sweep/internal/checkpoint"
	"github.com/roach88/sweep/internal/variant"
)

// ExecOptions holds flags for the exec command. They mirror the
// argument vector the parallel and cluster launchers emit.
type ExecOptions struct {
	*RootOptions
	Runner         string
	ConfigPath     string
	CheckpointPath string
	Methods        []string
	SeedSources    []string
}

// NewExecCommand creates the exec command: the worker entry point that
// runs exactly one variant in this process. The change record is read
// back from the checkpoint directory, so an exec invocation needs only
// the checkpoint path, the shared config and the run parameters.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run a single variant in this process",
		Long: `Run one variant: load the config, apply the checkpoint's change
record, fix seeds, select a device and invoke the runner methods.

Parallel and cluster dispatch re-invoke the binary through this command,
one process per variant. It also works standalone to re-run a single
checkpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Runner, "runner", "", "registered runner name (required)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "base YAML config (required)")
	cmd.Flags().StringVar(&opts.CheckpointPath, "checkpoint-path", "", "checkpoint directory for this run (required)")
	cmd.Flags().StringArrayVar(&opts.Methods, "method", nil, "runner method to invoke, in order (repeatable)")
	cmd.Flags().StringArrayVar(&opts.SeedSources, "seed-source", nil, "randomness source to seed (repeatable)")
	_ = cmd.MarkFlagRequired("runner")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("checkpoint-path")

	return cmd
}

func runExec(opts *ExecOptions) error {
	record, err := variant.ReadRecord(checkpoint.RecordPath(opts.CheckpointPath))
	if err != nil {
		return WrapExitError(ExitCommandError, "read change record", err)
	}

	err = bootstrap.Run(bootstrap.Options{
		Runner:         opts.Runner,
		Methods:        opts.Methods,
		ConfigPath:     opts.ConfigPath,
		CheckpointPath: opts.CheckpointPath,
		Changes:        record,
		SeedSources:    opts.SeedSources,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "run variant", err)
	}
	return nil
}
