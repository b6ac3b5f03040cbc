package dispatch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/roach88/sweep/internal/jobscript"
)

// Submitter hands a rendered job script to a batch scheduler.
type Submitter interface {
	Submit(scriptPath, workDir string) error
}

// SchedulerSubmitter shells out to the scheduler's submission command,
// qsub for PBS and sbatch for Slurm, from the checkpoint directory.
type SchedulerSubmitter struct {
	Dialect jobscript.Dialect

	Stdout io.Writer
	Stderr io.Writer
}

func (s *SchedulerSubmitter) Submit(scriptPath, workDir string) error {
	var bin string
	switch s.Dialect {
	case jobscript.DialectPBS:
		bin = "qsub"
	case jobscript.DialectSlurm:
		bin = "sbatch"
	default:
		return &jobscript.DialectError{Dialect: string(s.Dialect)}
	}
	cmd := exec.Command(bin, scriptPath)
	cmd.Dir = workDir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, filepath.Base(scriptPath), err)
	}
	return nil
}

// WorkerLauncher extends Launcher with the shell rendering of a worker
// invocation, needed to embed it in a job script.
type WorkerLauncher interface {
	Launcher
	Command(checkpointPath string) (string, error)
}

// Cluster configures scheduler dispatch. Params is the shared resource
// template; per-checkpoint output, error and script paths are derived
// from each checkpoint directory.
type Cluster struct {
	Dialect  jobscript.Dialect
	Params   jobscript.Params
	Launcher WorkerLauncher
	Submit   Submitter

	// Debug runs each worker command locally and synchronously after
	// rendering its script, instead of submitting. Useful for checking
	// a sweep end to end before burning scheduler allocation.
	Debug bool

	Logger *slog.Logger
}

// RunCluster renders and submits one job per checkpoint. Submission is
// fire and forget: the scheduler owns execution from there, and this
// returns as soon as every job is accepted. A render or submission
// failure halts the pass.
func RunCluster(paths []string, c Cluster) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	submit := c.Submit
	if submit == nil {
		submit = &SchedulerSubmitter{Dialect: c.Dialect}
	}

	for _, path := range paths {
		params := c.Params
		params.OutputPath = filepath.Join(path, jobscript.OutputFileName)
		params.ErrorPath = filepath.Join(path, jobscript.ErrorFileName)

		command, err := c.Launcher.Command(path)
		if err != nil {
			return &VariantError{Checkpoint: path, Err: err}
		}
		scriptPath := filepath.Join(path, jobscript.ScriptName)
		if err := jobscript.Write(scriptPath, c.Dialect, command, params); err != nil {
			return &VariantError{Checkpoint: path, Err: err}
		}

		if c.Debug {
			logger.Info("debug mode, running worker locally", "checkpoint", path)
			handle, err := c.Launcher.Launch(path)
			if err != nil {
				return &VariantError{Checkpoint: path, Err: err}
			}
			if err := handle.Wait(); err != nil {
				return &VariantError{Checkpoint: path, Err: err}
			}
			continue
		}

		if err := submit.Submit(scriptPath, path); err != nil {
			return &VariantError{Checkpoint: path, Err: err}
		}
		logger.Info("job submitted", "checkpoint", path, "script", scriptPath)
	}
	return nil
}
