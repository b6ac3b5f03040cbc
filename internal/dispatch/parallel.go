package dispatch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Handle is a started worker awaiting collection.
type Handle interface {
	Wait() error
}

// Launcher starts one worker for a checkpoint directory.
type Launcher interface {
	Launch(checkpointPath string) (Handle, error)
}

// ExecLauncher re-invokes this binary's exec subcommand, one OS process
// per variant. The worker rereads the change record from its checkpoint
// directory, so the launcher only carries what is shared across runs.
type ExecLauncher struct {
	// Binary is the executable to invoke. Empty means the running binary.
	Binary string

	Runner      string
	Methods     []string
	SeedSources []string
	ConfigPath  string

	// Stdout and Stderr are shared by all workers. Nil inherits this
	// process's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Args builds the exec subcommand argument vector for one checkpoint.
func (l *ExecLauncher) Args(checkpointPath string) []string {
	args := []string{
		"exec",
		"--runner", l.Runner,
		"--config", l.ConfigPath,
		"--checkpoint-path", checkpointPath,
	}
	for _, m := range l.Methods {
		args = append(args, "--method", m)
	}
	for _, s := range l.SeedSources {
		args = append(args, "--seed-source", s)
	}
	return args
}

// Command renders the full shell command line for one checkpoint, as
// embedded in job scripts.
func (l *ExecLauncher) Command(checkpointPath string) (string, error) {
	bin, err := l.binary()
	if err != nil {
		return "", err
	}
	return bin + " " + strings.Join(l.Args(checkpointPath), " "), nil
}

func (l *ExecLauncher) Launch(checkpointPath string) (Handle, error) {
	bin, err := l.binary()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(bin, l.Args(checkpointPath)...)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	return cmd, nil
}

func (l *ExecLauncher) binary() (string, error) {
	if l.Binary != "" {
		return l.Binary, nil
	}
	bin, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve own binary: %w", err)
	}
	return bin, nil
}

// Parallel starts a worker per checkpoint, then joins them all. The join
// barrier waits for every worker regardless of exit status; failures are
// collected and reported together after the barrier, in input order.
func Parallel(paths []string, launcher Launcher, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	failures := make([]*VariantError, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		handle, err := launcher.Launch(path)
		if err != nil {
			failures[i] = &VariantError{Checkpoint: path, Err: err}
			continue
		}
		logger.Info("worker started", "checkpoint", path)
		wg.Add(1)
		go func(i int, path string, handle Handle) {
			defer wg.Done()
			if err := handle.Wait(); err != nil {
				failures[i] = &VariantError{Checkpoint: path, Err: err}
			}
		}(i, path, handle)
	}
	wg.Wait()

	var failed []*VariantError
	for _, f := range failures {
		if f != nil {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		return &AggregateError{Total: len(paths), Failures: failed}
	}
	logger.Info("all workers finished", "count", len(paths))
	return nil
}
