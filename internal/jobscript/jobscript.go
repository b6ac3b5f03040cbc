// Package jobscript renders batch-scheduler submission scripts. Two
// dialects are supported: PBS (qsub) and Slurm (sbatch). Resource values
// are substituted literally; the scheduler rejects invalid ones at
// submission time.
package jobscript

import (
	"bytes"
	"fmt"
	"os"
)

// ScriptName is the job script file written into each checkpoint
// directory by cluster dispatch.
const ScriptName = "job_script"

// Scheduler output file names, also per checkpoint directory.
const (
	OutputFileName = "output.txt"
	ErrorFileName  = "error.txt"
)

// DefaultWalltime is used when Params.Walltime is empty: one day.
const DefaultWalltime = "24:0:0"

// Dialect selects the scheduler flavor.
type Dialect string

const (
	DialectPBS   Dialect = "pbs"
	DialectSlurm Dialect = "slurm"
)

// DialectError reports an unrecognized scheduler keyword.
type DialectError struct {
	Dialect string
}

func (e *DialectError) Error() string {
	return fmt.Sprintf("scheduler %q not recognised (want pbs or slurm)", e.Dialect)
}

// ParseDialect validates a scheduler keyword.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectPBS, DialectSlurm:
		return Dialect(s), nil
	default:
		return "", &DialectError{Dialect: s}
	}
}

// Params are the resource directives for one job. GPU directives are
// emitted only when GPUs is non-zero; the array directive only when
// ArrayLength is non-zero.
type Params struct {
	CPUs        int
	MemoryGB    int
	GPUs        int
	GPUType     string
	Walltime    string
	EnvName     string
	ArrayLength int
	OutputPath  string
	ErrorPath   string
}

// Render produces the script body for one run command.
func Render(dialect Dialect, runCommand string, p Params) ([]byte, error) {
	walltime := p.Walltime
	if walltime == "" {
		walltime = DefaultWalltime
	}

	var buf bytes.Buffer
	switch dialect {
	case DialectPBS:
		renderPBS(&buf, runCommand, p, walltime)
	case DialectSlurm:
		renderSlurm(&buf, runCommand, p, walltime)
	default:
		return nil, &DialectError{Dialect: string(dialect)}
	}
	return buf.Bytes(), nil
}

// Write renders the script and persists it at path, executable.
func Write(path string, dialect Dialect, runCommand string, p Params) error {
	data, err := Render(dialect, runCommand, p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return fmt.Errorf("write job script: %w", err)
	}
	return nil
}

func renderPBS(buf *bytes.Buffer, runCommand string, p Params, walltime string) {
	fmt.Fprintf(buf, "#PBS -lselect=1:ncpus=%d:mem=%dgb", p.CPUs, p.MemoryGB)
	if p.GPUs > 0 {
		fmt.Fprintf(buf, ":ngpus=%d:gpu_type=%s", p.GPUs, p.GPUType)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(buf, "#PBS -lwalltime=%s\n", walltime)
	if p.ArrayLength > 0 {
		fmt.Fprintf(buf, "#PBS -J 1-%d\n", p.ArrayLength)
	}
	fmt.Fprintf(buf, "#PBS -e %s\n", p.ErrorPath)
	fmt.Fprintf(buf, "#PBS -o %s\n", p.OutputPath)
	buf.WriteString("module load anaconda3/personal\n")
	fmt.Fprintf(buf, "source activate %s\n", p.EnvName)
	buf.WriteString("cd $PBS_O_WORKDIR\n")
	fmt.Fprintf(buf, "%s\n", runCommand)
}

func renderSlurm(buf *bytes.Buffer, runCommand string, p Params, walltime string) {
	buf.WriteString("#!/bin/bash\n")
	fmt.Fprintf(buf, "#SBATCH --ntasks=%d\n", p.CPUs)
	fmt.Fprintf(buf, "#SBATCH --mem=%dgb\n", p.MemoryGB)
	fmt.Fprintf(buf, "#SBATCH --time=%s\n", walltime)
	fmt.Fprintf(buf, "#SBATCH --output=%s\n", p.OutputPath)
	fmt.Fprintf(buf, "#SBATCH --error=%s\n", p.ErrorPath)
	fmt.Fprintf(buf, "%s\n", runCommand)
}
