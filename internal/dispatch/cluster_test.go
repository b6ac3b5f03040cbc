package dispatch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sweep/internal/jobscript"
)

type fakeSubmitter struct {
	submitted []string
	workDirs  []string
	failOn    string
}

func (s *fakeSubmitter) Submit(scriptPath, workDir string) error {
	s.submitted = append(s.submitted, scriptPath)
	s.workDirs = append(s.workDirs, workDir)
	if s.failOn != "" && workDir == s.failOn {
		return errors.New("submission rejected")
	}
	return nil
}

func clusterPaths(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
	return paths
}

func TestRunCluster_WritesScriptAndSubmits(t *testing.T) {
	paths := clusterPaths(t)
	submitter := &fakeSubmitter{}

	err := RunCluster(paths, Cluster{
		Dialect:  jobscript.DialectSlurm,
		Params:   jobscript.Params{CPUs: 2, MemoryGB: 8},
		Launcher: &fakeLauncher{},
		Submit:   submitter,
	})
	require.NoError(t, err)

	require.Len(t, submitter.submitted, 2)
	assert.Equal(t, paths, submitter.workDirs)

	for _, p := range paths {
		script, err := os.ReadFile(filepath.Join(p, jobscript.ScriptName))
		require.NoError(t, err)
		assert.Contains(t, string(script), "#SBATCH --ntasks=2")
		assert.Contains(t, string(script), "worker "+p)
		assert.Contains(t, string(script), filepath.Join(p, jobscript.OutputFileName))
		assert.Contains(t, string(script), filepath.Join(p, jobscript.ErrorFileName))
	}
}

func TestRunCluster_SubmitFailureHalts(t *testing.T) {
	paths := clusterPaths(t)
	submitter := &fakeSubmitter{failOn: paths[0]}

	err := RunCluster(paths, Cluster{
		Dialect:  jobscript.DialectPBS,
		Params:   jobscript.Params{CPUs: 1, MemoryGB: 4, EnvName: "exp"},
		Launcher: &fakeLauncher{},
		Submit:   submitter,
	})

	var vErr *VariantError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, paths[0], vErr.Checkpoint)
	assert.Len(t, submitter.submitted, 1, "no submission after the failure")
}

func TestRunCluster_DebugRunsLocally(t *testing.T) {
	paths := clusterPaths(t)
	launcher := &fakeLauncher{}
	submitter := &fakeSubmitter{}

	err := RunCluster(paths, Cluster{
		Dialect:  jobscript.DialectSlurm,
		Params:   jobscript.Params{CPUs: 1, MemoryGB: 1},
		Launcher: launcher,
		Submit:   submitter,
		Debug:    true,
	})
	require.NoError(t, err)

	assert.Empty(t, submitter.submitted, "debug mode never submits")
	assert.Equal(t, paths, launcher.launched)
	for _, h := range launcher.handles {
		assert.True(t, h.waited)
	}
	// Scripts are still rendered for inspection.
	for _, p := range paths {
		_, err := os.Stat(filepath.Join(p, jobscript.ScriptName))
		require.NoError(t, err)
	}
}

func TestRunCluster_DebugWorkerFailureHalts(t *testing.T) {
	paths := clusterPaths(t)
	launcher := &fakeLauncher{
		handles: map[string]*fakeHandle{
			paths[0]: {err: errors.New("exit status 1")},
		},
	}

	err := RunCluster(paths, Cluster{
		Dialect:  jobscript.DialectSlurm,
		Params:   jobscript.Params{CPUs: 1, MemoryGB: 1},
		Launcher: launcher,
		Debug:    true,
	})

	var vErr *VariantError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, paths[0], vErr.Checkpoint)
	assert.Equal(t, []string{paths[0]}, launcher.launched)
}
