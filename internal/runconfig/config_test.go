package runconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sweep/internal/variant"
)

const baseYAML = `
seed: 4
learner:
  lr: 0.1
  optimizer: sgd
x_label: epoch
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_NoChanges(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML), nil)
	require.NoError(t, err)

	seed, ok := cfg.Seed()
	require.True(t, ok)
	assert.Equal(t, int64(4), seed)

	lr, ok := cfg.Get("learner.lr")
	require.True(t, ok)
	assert.Equal(t, 0.1, lr)
}

func TestLoad_AppliesChangesInOrder(t *testing.T) {
	changes := variant.ChangeRecord{
		{Path: "learner.lr", Value: 0.5},
		{Path: "learner.lr", Value: 0.9}, // later op wins
		{Path: "seed", Value: int64(7)},
	}

	cfg, err := Load(writeConfig(t, baseYAML), changes)
	require.NoError(t, err)

	lr, _ := cfg.Get("learner.lr")
	assert.Equal(t, 0.9, lr)
	seed, _ := cfg.Seed()
	assert.Equal(t, int64(7), seed)
}

func TestLoad_ChangeCreatesNewSubtree(t *testing.T) {
	changes := variant.ChangeRecord{{Path: "plot.smoothing", Value: int64(5)}}

	cfg, err := Load(writeConfig(t, baseYAML), changes)
	require.NoError(t, err)

	v, ok := cfg.Get("plot.smoothing")
	require.True(t, ok)
	assert.Equal(t, int64(5), v)
}

func TestSet_ThroughScalarFails(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML), nil)
	require.NoError(t, err)

	err = cfg.Set("seed.nested", 1)
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "seed", pathErr.Segment)
}

func TestGet_AbsentPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML), nil)
	require.NoError(t, err)

	_, ok := cfg.Get("learner.momentum")
	assert.False(t, ok)
	_, ok = cfg.Get("learner.lr.deep")
	assert.False(t, ok)
}

func TestSeed_AbsentReportsMissing(t *testing.T) {
	cfg, err := Load(writeConfig(t, "learner:\n  lr: 0.1\n"), nil)
	require.NoError(t, err)

	_, ok := cfg.Seed()
	assert.False(t, ok)
}

func TestSave_RoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML), variant.ChangeRecord{{Path: "learner.lr", Value: 0.3}})
	require.NoError(t, err)
	require.NoError(t, cfg.Set(KeyCheckpointPath, "/tmp/x"))

	out := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, cfg.Save(out))

	back, err := Load(out, nil)
	require.NoError(t, err)
	lr, _ := back.Get("learner.lr")
	assert.Equal(t, 0.3, lr)
	cp, _ := back.StringAt(KeyCheckpointPath)
	assert.Equal(t, "/tmp/x", cp)
}

func TestEqual_IgnoresNamedPaths(t *testing.T) {
	a, err := Load(writeConfig(t, baseYAML), nil)
	require.NoError(t, err)
	b, err := Load(writeConfig(t, baseYAML), nil)
	require.NoError(t, err)

	require.NoError(t, a.Set(KeyCheckpointPath, "/run/a"))
	require.NoError(t, b.Set(KeyCheckpointPath, "/run/b"))

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(b, KeyCheckpointPath))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "a: [1, 2\n"), nil)
	require.Error(t, err)
}
