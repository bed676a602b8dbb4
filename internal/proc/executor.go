package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrNonZeroExit is wrapped by Run when the process ran but failed
var ErrNonZeroExit = errors.New("process exited with non-zero status")

// Spec describes one child process
type Spec struct {
	Name   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer // nil captures into Result.Stdout
	Stderr io.Writer // nil captures into Result.Stderr
}

func (s Spec) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}

// Result is what is known about a finished process
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs child processes
type Executor interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// DefaultExecutor runs real processes, inheriting the environment
var DefaultExecutor Executor = &realExecutor{}

type realExecutor struct{}

// Run starts the process and waits for it. The error is nil only for a
// zero exit status; a process that ran reports its exit code either way.
func (e *realExecutor) Run(ctx context.Context, spec Spec) (Result, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if spec.Stdout != nil {
		cmd.Stdout = spec.Stdout
	}
	cmd.Stderr = &stderr
	if spec.Stderr != nil {
		cmd.Stderr = spec.Stderr
	}

	err := cmd.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return res, fmt.Errorf("%s: %w (exit %d)\n%s", spec.Name, ErrNonZeroExit, res.ExitCode, res.Stderr)
		}
		return res, fmt.Errorf("%s failed: %w", spec.Name, err)
	}

	return res, nil
}
