package search

import (
	"fmt"
	"path"
	"strconv"
)

// Template is the search command line. Only the tool, output prefix, CPU
// count and the two input paths vary between invocations.
const Template = "%s --tblout %s.out --notextw --cut_ga --nohmmonly --rfam --cpu %d %s %s"

// Command is one fully resolved search invocation
type Command struct {
	Tool         string
	OutputPrefix string // --tblout target without the .out extension
	CPU          int
	ModelPath    string
	SequencePath string
}

// Args returns the arguments after the executable, in template order
func (c Command) Args() []string {
	return []string{
		"--tblout", c.OutputPrefix + ".out",
		"--notextw",
		"--cut_ga",
		"--nohmmonly",
		"--rfam",
		"--cpu", strconv.Itoa(c.CPU),
		c.ModelPath,
		c.SequencePath,
	}
}

// String renders the command as a single shell line
func (c Command) String() string {
	return fmt.Sprintf(Template, c.Tool, c.OutputPrefix, c.CPU, c.ModelPath, c.SequencePath)
}

// Builder constructs commands from the configured tools and resources
type Builder struct {
	Tools    Tools
	CPU      int
	TmpPath  string // scratch directory on cluster execution hosts
	JobIDVar string // environment variable holding the scheduler job id
}

// Local builds a command that reads the inputs in place and writes its
// table to outputPrefix.out.
func (b Builder) Local(m Method, outputPrefix, modelPath, sequencePath string) (Command, error) {
	tool, err := b.Tools.Resolve(m)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Tool:         tool,
		OutputPrefix: outputPrefix,
		CPU:          b.CPU,
		ModelPath:    modelPath,
		SequencePath: sequencePath,
	}, nil
}

// Staged builds a command for a cluster job: inputs and output live in the
// execution host's scratch directory, named after the job id, and are moved
// in and out by the job script's staging directives.
func (b Builder) Staged(m Method) (Command, error) {
	tool, err := b.Tools.Resolve(m)
	if err != nil {
		return Command{}, err
	}
	prefix := StagedPrefix(b.TmpPath, b.JobIDVar)
	return Command{
		Tool:         tool,
		OutputPrefix: prefix,
		CPU:          b.CPU,
		ModelPath:    prefix + ".cm",
		SequencePath: prefix + ".fa",
	}, nil
}

// StagedPrefix is the scratch path of a job's files as seen by the job's
// shell, e.g. /tmp/$LSB_JOBID. Cluster paths are always slash separated.
func StagedPrefix(tmpPath, jobIDVar string) string {
	return path.Join(tmpPath, "$"+jobIDVar)
}
