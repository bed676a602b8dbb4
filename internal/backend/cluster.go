package backend

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"rfamscan/internal/jobscript"
	"rfamscan/internal/proc"
	"rfamscan/internal/search"
)

// bsub prints "Job <1234> is submitted to queue <normal>."
var submittedJob = regexp.MustCompile(`Job <(\d+)>`)

// Cluster writes a job script for each pair and submits it to LSF. Only
// the submission is waited for.
type Cluster struct {
	builder search.Builder
	scripts *jobscript.Generator
	exec    proc.Executor
	submit  []string
}

// NewCluster creates a Cluster backend. submitCommand may carry arguments,
// e.g. "bsub -q long"; the script is passed on its standard input.
func NewCluster(builder search.Builder, scripts *jobscript.Generator, exec proc.Executor, submitCommand string) *Cluster {
	return &Cluster{
		builder: builder,
		scripts: scripts,
		exec:    exec,
		submit:  strings.Fields(submitCommand),
	}
}

// Name returns "cluster"
func (c *Cluster) Name() string {
	return "cluster"
}

// Dispatch generates the job script and submits it
func (c *Cluster) Dispatch(ctx context.Context, p Pair) (res Result) {
	res = newResult(c.Name(), p)
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	fail := func(err error) Result {
		res.ExitCode = -1
		res.Error = err.Error()
		return res
	}

	if len(c.submit) == 0 {
		return fail(fmt.Errorf("no submit command configured"))
	}

	cmd, err := c.builder.Staged(p.Method)
	if err != nil {
		return fail(err)
	}
	res.Command = cmd.String()

	script, err := c.scripts.Generate(p.Name, p.ModelPath, p.SequencePath, res.Command, p.OutputDir)
	if err != nil {
		return fail(err)
	}
	res.Script = script

	f, err := os.Open(script)
	if err != nil {
		return fail(fmt.Errorf("failed to open job script: %w", err))
	}
	defer f.Close()

	out, err := c.exec.Run(ctx, proc.Spec{
		Name:  c.submit[0],
		Args:  c.submit[1:],
		Stdin: f,
	})
	res.ExitCode = out.ExitCode
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.JobID = ParseJobID(out.Stdout)
	return res
}

// ParseJobID extracts the job id from the submit command's output, or
// returns "" if there is none
func ParseJobID(output string) string {
	m := submittedJob.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}
