package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sweep/internal/dispatch"
	"github.com/roach88/sweep/internal/jobscript"
	"github.com/roach88/sweep/internal/registry"
	"github.com/roach88/sweep/internal/runconfig"
	"github.com/roach88/sweep/internal/runner"
)

type noopRunner struct{}

func (noopRunner) DataColumns() []string { return nil }
func (noopRunner) Methods() map[string]runner.Method {
	return map[string]runner.Method{"train": func() error { return nil }}
}

func init() {
	runner.Register("noop", func(cfg *runconfig.Config, runID string) (runner.Runner, error) {
		return noopRunner{}, nil
	})
}

func writeSweepFixtures(t *testing.T) (configPath, changesPath, resultsDir string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("lr: 0.1\n"), 0o644))
	changesPath = filepath.Join(dir, "changes.json")
	require.NoError(t, os.WriteFile(changesPath,
		[]byte(`{"low": [{"lr": 0.01}], "high": [{"lr": 0.5}]}`), 0o644))
	resultsDir = filepath.Join(dir, "results")
	return configPath, changesPath, resultsDir
}

func TestRunSweep_SerialWithRegistry(t *testing.T) {
	configPath, changesPath, resultsDir := writeSweepFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "sweep.db")

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		sweepInputs: sweepInputs{
			Mode:       "serial",
			ConfigPath: configPath,
			ResultsDir: resultsDir,
			Changes:    changesPath,
			Seeds:      "[0,1]",
		},
		Runner:   "noop",
		Methods:  []string{"train"},
		Database: dbPath,
	}
	require.NoError(t, runSweep(opts))

	reg, err := registry.Open(dbPath)
	require.NoError(t, err)
	defer reg.Close()

	exps, err := reg.Experiments(context.Background())
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, "serial", exps[0].Mode)

	runs, err := reg.Runs(context.Background(), exps[0].ID)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, run := range runs {
		assert.Equal(t, registry.StatusSucceeded, run.Status)
		// Every checkpoint got its snapshot.
		_, statErr := os.Stat(filepath.Join(run.Checkpoint, "config.yaml"))
		assert.NoError(t, statErr)
	}
}

type trackingLauncher struct {
	launched []string
}

func (l *trackingLauncher) Launch(path string) (dispatch.Handle, error) {
	l.launched = append(l.launched, path)
	return doneHandle{}, nil
}

func (l *trackingLauncher) Command(path string) (string, error) {
	return "worker " + path, nil
}

type doneHandle struct{}

func (doneHandle) Wait() error { return nil }

func TestRunSweep_ParallelUsesLauncher(t *testing.T) {
	configPath, changesPath, resultsDir := writeSweepFixtures(t)
	launcher := &trackingLauncher{}

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		sweepInputs: sweepInputs{
			Mode:       "parallel",
			ConfigPath: configPath,
			ResultsDir: resultsDir,
			Changes:    changesPath,
		},
		Runner:   "noop",
		Methods:  []string{"train"},
		Launcher: launcher,
	}
	require.NoError(t, runSweep(opts))

	// One worker per variant: two change sets, no seeds.
	assert.Len(t, launcher.launched, 2)
}

type recordingSubmitter struct {
	scripts []string
}

func (s *recordingSubmitter) Submit(scriptPath, workDir string) error {
	s.scripts = append(s.scripts, scriptPath)
	return nil
}

func TestRunSweep_ClusterSubmits(t *testing.T) {
	configPath, changesPath, resultsDir := writeSweepFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "sweep.db")
	submitter := &recordingSubmitter{}

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		sweepInputs: sweepInputs{
			Mode:       "cluster",
			ConfigPath: configPath,
			ResultsDir: resultsDir,
			Changes:    changesPath,
			Seeds:      "[7]",
		},
		Runner:    "noop",
		Methods:   []string{"train"},
		Database:  dbPath,
		Scheduler: "pbs",
		CPUs:      2,
		MemoryGB:  8,
		EnvName:   "exp",
		Launcher:  &trackingLauncher{},
		Submitter: submitter,
	}
	require.NoError(t, runSweep(opts))

	require.Len(t, submitter.scripts, 2)
	script, err := os.ReadFile(submitter.scripts[0])
	require.NoError(t, err)
	assert.Contains(t, string(script), "#PBS -lselect=1:ncpus=2:mem=8gb")
	assert.Contains(t, string(script), jobscript.DefaultWalltime)

	reg, err := registry.Open(dbPath)
	require.NoError(t, err)
	defer reg.Close()
	exps, err := reg.Experiments(context.Background())
	require.NoError(t, err)
	require.Len(t, exps, 1)
	runs, err := reg.Runs(context.Background(), exps[0].ID)
	require.NoError(t, err)
	for _, run := range runs {
		assert.Equal(t, registry.StatusSubmitted, run.Status)
	}
}

func TestRunSweep_BadMode(t *testing.T) {
	configPath, _, resultsDir := writeSweepFixtures(t)

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		sweepInputs: sweepInputs{
			Mode:       "turbo",
			ConfigPath: configPath,
			ResultsDir: resultsDir,
		},
		Runner: "noop",
	}
	err := runSweep(opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunSweep_BadScheduler(t *testing.T) {
	configPath, _, resultsDir := writeSweepFixtures(t)

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		sweepInputs: sweepInputs{
			Mode:       "cluster",
			ConfigPath: configPath,
			ResultsDir: resultsDir,
			Seeds:      "[0]",
		},
		Runner:    "noop",
		Scheduler: "lsf",
		Launcher:  &trackingLauncher{},
	}
	err := runSweep(opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_RequiresRunner(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run", "--config", "whatever.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner")
}
