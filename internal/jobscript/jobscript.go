// Package jobscript writes LSF job scripts for cluster dispatch.
//
// A script reserves memory, scratch space and CPUs, stages the model and
// sequence file into the execution host's scratch directory under the job
// id, copies the .out and .err files back to the output directory when the
// job ends, and removes the staged files in a post-exec hook. The search
// command line is the job body.
package jobscript

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"rfamscan/internal/search"
)

// ErrUnquotable is returned for a path that cannot be placed inside a
// double-quoted #BSUB directive
var ErrUnquotable = errors.New("path cannot be quoted in a job script")

//go:embed lsf.sh.tmpl
var templates embed.FS

var lsfTemplate = template.Must(template.ParseFS(templates, "lsf.sh.tmpl"))

// Resources are the per-job reservations and cluster settings
type Resources struct {
	MemoryMB      int
	TmpMemoryMB   int
	CPU           int
	TmpPath       string
	ResourceGroup string
	Shell         string
	JobIDVar      string
}

// Generator renders job scripts with a fixed set of resources
type Generator struct {
	Resources Resources
}

// New creates a Generator
func New(res Resources) *Generator {
	return &Generator{Resources: res}
}

type scriptData struct {
	Resources
	Name         string
	ModelPath    string
	SequencePath string
	OutPath      string
	ErrPath      string
	Staged       string
	PostExecGlob string
	Command      string
}

// Render writes the script for one pair to w
func (g *Generator) Render(w io.Writer, name, modelPath, sequencePath, command, outDir string) error {
	data := scriptData{
		Resources:    g.Resources,
		Name:         name,
		ModelPath:    modelPath,
		SequencePath: sequencePath,
		OutPath:      path.Join(filepath.ToSlash(outDir), name+".out"),
		ErrPath:      path.Join(filepath.ToSlash(outDir), name+".err"),
		// %J is expanded by LSF in -f/-e directives; the shell sees $LSB_JOBID
		Staged:       path.Join(g.Resources.TmpPath, "%J"),
		PostExecGlob: search.StagedPrefix(g.Resources.TmpPath, g.Resources.JobIDVar) + ".*",
		Command:      command,
	}
	for _, p := range []string{data.ModelPath, data.SequencePath, data.OutPath, data.TmpPath, data.ResourceGroup} {
		if strings.ContainsAny(p, "\"\n\r") {
			return fmt.Errorf("%w: %q", ErrUnquotable, p)
		}
	}

	if err := lsfTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render job script %s: %w", name, err)
	}
	return nil
}

// Generate writes <outDir>/<name>.sh and returns its path
func (g *Generator) Generate(name, modelPath, sequencePath, command, outDir string) (string, error) {
	scriptPath := filepath.Join(outDir, name+".sh")

	f, err := os.Create(scriptPath)
	if err != nil {
		return "", fmt.Errorf("failed to create job script: %w", err)
	}

	if err := g.Render(f, name, modelPath, sequencePath, command, outDir); err != nil {
		f.Close()
		os.Remove(scriptPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write job script: %w", err)
	}

	return scriptPath, nil
}
