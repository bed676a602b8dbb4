package backend

import (
	"context"
	"io"
	"os"
	"time"

	"rfamscan/internal/proc"
	"rfamscan/internal/search"
)

// Local runs the search tool as a child process and waits for it
type Local struct {
	builder search.Builder
	exec    proc.Executor

	// Stdout receives the tool's standard output. Standard error is always
	// captured so it can be reported with a failure.
	Stdout io.Writer
}

// NewLocal creates a Local backend
func NewLocal(builder search.Builder, exec proc.Executor) *Local {
	return &Local{
		builder: builder,
		exec:    exec,
		Stdout:  os.Stdout,
	}
}

// Name returns "local"
func (l *Local) Name() string {
	return "local"
}

// Dispatch runs one search to completion
func (l *Local) Dispatch(ctx context.Context, p Pair) (res Result) {
	res = newResult(l.Name(), p)
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	cmd, err := l.builder.Local(p.Method, p.OutputPrefix(), p.ModelPath, p.SequencePath)
	if err != nil {
		res.ExitCode = -1
		res.Error = err.Error()
		return res
	}
	res.Command = cmd.String()

	out, err := l.exec.Run(ctx, proc.Spec{
		Name:   cmd.Tool,
		Args:   cmd.Args(),
		Stdout: l.Stdout,
	})
	res.ExitCode = out.ExitCode
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
