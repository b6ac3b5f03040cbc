package jobscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("pbs")
	require.NoError(t, err)
	assert.Equal(t, DialectPBS, d)

	d, err = ParseDialect("slurm")
	require.NoError(t, err)
	assert.Equal(t, DialectSlurm, d)

	_, err = ParseDialect("lsf")
	var dialectErr *DialectError
	require.ErrorAs(t, err, &dialectErr)
	assert.Equal(t, "lsf", dialectErr.Dialect)
}

func TestRender_PBSCPUOnly(t *testing.T) {
	got, err := Render(DialectPBS, "sweep exec --runner poly --checkpoint-path /results/run/a", Params{
		CPUs:       4,
		MemoryGB:   16,
		EnvName:    "experiments",
		OutputPath: "/results/run/a/output.txt",
		ErrorPath:  "/results/run/a/error.txt",
	})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "pbs_cpu", got)
}

func TestRender_PBSWithGPUAndArray(t *testing.T) {
	got, err := Render(DialectPBS, "sweep exec --runner poly --checkpoint-path /results/run/a", Params{
		CPUs:        8,
		MemoryGB:    32,
		GPUs:        1,
		GPUType:     "RTX6000",
		Walltime:    "48:0:0",
		EnvName:     "experiments",
		ArrayLength: 6,
		OutputPath:  "/results/run/a/output.txt",
		ErrorPath:   "/results/run/a/error.txt",
	})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "pbs_gpu_array", got)
}

func TestRender_Slurm(t *testing.T) {
	got, err := Render(DialectSlurm, "sweep exec --runner poly --checkpoint-path /results/run/a", Params{
		CPUs:       4,
		MemoryGB:   16,
		OutputPath: "/results/run/a/output.txt",
		ErrorPath:  "/results/run/a/error.txt",
	})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "slurm", got)
}

func TestRender_UnknownDialect(t *testing.T) {
	_, err := Render(Dialect("lsf"), "true", Params{})
	var dialectErr *DialectError
	require.ErrorAs(t, err, &dialectErr)
}

func TestWrite_Executable(t *testing.T) {
	path := filepath.Join(t.TempDir(), ScriptName)
	require.NoError(t, Write(path, DialectSlurm, "true", Params{CPUs: 1, MemoryGB: 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "script should be executable")
}
