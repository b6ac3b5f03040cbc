package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sweep/internal/checkpoint"
	"github.com/roach88/sweep/internal/runconfig"
	"github.com/roach88/sweep/internal/runner"
	"github.com/roach88/sweep/internal/variant"
)

type failingRunner struct{}

func (failingRunner) DataColumns() []string { return nil }
func (failingRunner) Methods() map[string]runner.Method {
	return map[string]runner.Method{"train": func() error { return errors.New("diverged") }}
}

func init() {
	runner.Register("failing", func(cfg *runconfig.Config, runID string) (runner.Runner, error) {
		return failingRunner{}, nil
	})
}

func execFixture(t *testing.T) *ExecOptions {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("lr: 0.1\n"), 0o644))
	checkpointPath := filepath.Join(dir, "low", "0")
	require.NoError(t, os.MkdirAll(checkpointPath, 0o755))
	record := variant.ChangeRecord{{Path: "lr", Value: 0.01}, {Path: "seed", Value: int64(0)}}
	require.NoError(t, variant.WriteRecord(checkpoint.RecordPath(checkpointPath), record))

	return &ExecOptions{
		RootOptions:    &RootOptions{Format: "text"},
		Runner:         "noop",
		ConfigPath:     configPath,
		CheckpointPath: checkpointPath,
		Methods:        []string{"train"},
	}
}

func TestRunExec(t *testing.T) {
	opts := execFixture(t)
	require.NoError(t, runExec(opts))

	snap, err := runconfig.Load(filepath.Join(opts.CheckpointPath, "config.yaml"), nil)
	require.NoError(t, err)
	lr, _ := snap.Get("lr")
	assert.Equal(t, 0.01, lr)
}

func TestRunExec_MissingRecord(t *testing.T) {
	opts := execFixture(t)
	require.NoError(t, os.Remove(checkpoint.RecordPath(opts.CheckpointPath)))

	err := runExec(opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunExec_MethodFailure(t *testing.T) {
	opts := execFixture(t)
	opts.Runner = "failing"

	err := runExec(opts)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
