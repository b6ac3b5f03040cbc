package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sweep/internal/changeset"
	"github.com/roach88/sweep/internal/checkpoint"
	"github.com/roach88/sweep/internal/variant"
)

// sweepInputs are the flags shared by expand and run: everything needed
// to turn a base config plus change sets and seeds into a checkpoint
// tree.
type sweepInputs struct {
	Mode       string
	ConfigPath string
	ResultsDir string
	Changes    string
	Seeds      string
}

func (in *sweepInputs) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.Mode, "mode", "single", "run mode (single|serial|parallel|cluster)")
	cmd.Flags().StringVar(&in.ConfigPath, "config", "", "base YAML config (required)")
	cmd.Flags().StringVar(&in.ResultsDir, "results-dir", "results", "root directory for checkpoint trees")
	cmd.Flags().StringVar(&in.Changes, "changes", "", "change-set file, CUE or JSON")
	cmd.Flags().StringVar(&in.Seeds, "seeds", "", "seeds to sweep, e.g. [0,1,2]")
	_ = cmd.MarkFlagRequired("config")
}

// materialize expands the variants and writes the checkpoint tree.
func materialize(in sweepInputs) (variant.Mode, *checkpoint.Tree, []variant.Variant, error) {
	mode, err := variant.ParseMode(in.Mode)
	if err != nil {
		return "", nil, nil, WrapExitError(ExitCommandError, "bad mode", err)
	}

	var sets []variant.NamedChanges
	if in.Changes != "" {
		sets, err = changeset.Load(in.Changes)
		if err != nil {
			return "", nil, nil, WrapExitError(ExitCommandError, "load change sets", err)
		}
	}
	seeds, err := ParseSeeds(in.Seeds)
	if err != nil {
		return "", nil, nil, WrapExitError(ExitCommandError, "parse seeds", err)
	}

	variants, err := variant.Expand(mode, sets, seeds)
	if err != nil {
		return "", nil, nil, WrapExitError(ExitCommandError, "expand variants", err)
	}

	builder := &checkpoint.Builder{}
	tree, err := builder.Build(in.ResultsDir, in.ConfigPath, variants, sets)
	if err != nil {
		return "", nil, nil, WrapExitError(ExitCommandError, "build checkpoint tree", err)
	}
	return mode, tree, variants, nil
}

// expandResult is the expand command's output payload.
type expandResult struct {
	Root        string   `json:"root"`
	Checkpoints []string `json:"checkpoints"`
}

func (r expandResult) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, r.Root)
	for _, p := range r.Checkpoints {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewExpandCommand creates the expand command: materialize the
// checkpoint tree and report it, running nothing.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	in := &sweepInputs{}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Materialize the checkpoint tree without dispatching",
		Long: `Expand change-set and seed combinations into the checkpoint directory
tree: timestamped root, config copy, audit file and per-variant change
records. Nothing is executed.

Example:
  sweep expand --config config.yaml --changes changes.cue --seeds [0,1] --mode parallel`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tree, _, err := materialize(*in)
			if err != nil {
				return err
			}
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return formatter.Success(expandResult{Root: tree.Root, Checkpoints: tree.Paths})
		},
	}

	in.register(cmd)
	return cmd
}
