// Package batch walks a model directory and a sequence tree, lays out the
// mirrored output tree, and dispatches one search per (model, sequence file)
// pair through a backend, strictly one after another.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"rfamscan/internal/backend"
	"rfamscan/internal/fsutil"
	"rfamscan/internal/logging"
)

// DefaultModelSuffix is the covariance model file extension
const DefaultModelSuffix = ".cm"

// Dispatcher runs batches against a single backend
type Dispatcher struct {
	backend     backend.Backend
	modelSuffix string
	newRunID    func() string
	now         func() time.Time
}

// New creates a Dispatcher. An empty suffix selects DefaultModelSuffix.
func New(b backend.Backend, modelSuffix string) *Dispatcher {
	if modelSuffix == "" {
		modelSuffix = DefaultModelSuffix
	}
	return &Dispatcher{
		backend:     b,
		modelSuffix: modelSuffix,
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
}

// Prefix returns the part of a file name before its first '.'. It is the
// family accession of a model file and the stem of a sequence file.
func Prefix(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	return prefix
}

// PairName is the output file stem for a model and sequence file
func PairName(modelFile, sequenceFile string) string {
	return Prefix(modelFile) + "_" + Prefix(sequenceFile)
}

// Plan lists the pairs a batch would dispatch without touching the output
// tree.
func (d *Dispatcher) Plan(req Request) ([]backend.Pair, int, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, 0, err
	}
	return d.plan(req, false)
}

// Run creates the output tree and dispatches every pair. Pair failures are
// recorded in the Summary and do not stop the batch; inspect Summary.Err.
// The returned error is non-nil only when the batch could not be planned or
// was cancelled, in which case the Summary (if any) covers the pairs
// dispatched so far.
func (d *Dispatcher) Run(ctx context.Context, req Request) (*Summary, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	pairs, models, err := d.plan(req, true)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:        d.newRunID(),
		StartedAt:    d.now(),
		Backend:      d.backend.Name(),
		Method:       req.Method,
		Multi:        req.Multi,
		ModelDir:     req.ModelDir,
		SequenceRoot: req.SequenceRoot,
		OutputRoot:   req.OutputRoot,
		Models:       models,
		Pairs:        len(pairs),
		Results:      make([]backend.Result, 0, len(pairs)),
	}
	defer func() { sum.FinishedAt = d.now() }()

	logging.Info("Batch %s: %d models, %d pairs, %s via %s", sum.RunID, models, len(pairs), req.Method, sum.Backend)

	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			sum.Interrupted = true
			return sum, fmt.Errorf("batch interrupted after %d of %d pairs: %w", i, len(pairs), err)
		}

		logging.Info("[%d/%d] %s", i+1, len(pairs), p.ID)
		res := d.backend.Dispatch(ctx, p)
		if res.Failed() {
			logging.Error("%s: %s", p.ID, res.Error)
		} else if res.JobID != "" {
			logging.Debug("%s submitted as job %s", p.ID, res.JobID)
		}
		sum.add(res)
	}

	return sum, nil
}

// normalize makes paths absolute so job scripts stay valid wherever the
// scheduler runs them, and applies the output root default.
func normalize(req Request) (Request, error) {
	if !req.Method.IsValid() {
		return req, fmt.Errorf("invalid search method %q", req.Method)
	}

	var err error
	if req.ModelDir, err = filepath.Abs(req.ModelDir); err != nil {
		return req, fmt.Errorf("failed to resolve model directory: %w", err)
	}
	if req.SequenceRoot, err = filepath.Abs(req.SequenceRoot); err != nil {
		return req, fmt.Errorf("failed to resolve sequence root: %w", err)
	}
	if req.OutputRoot == "" {
		req.OutputRoot = req.SequenceRoot
	} else if req.OutputRoot, err = filepath.Abs(req.OutputRoot); err != nil {
		return req, fmt.Errorf("failed to resolve output root: %w", err)
	}
	return req, nil
}

// sequenceUnit is one directory of sequence files: the sequence root itself
// in flat mode, or one project in multi mode
type sequenceUnit struct {
	project string
	dir     string
	files   []string
}

func (d *Dispatcher) plan(req Request, create bool) ([]backend.Pair, int, error) {
	if err := fsutil.RequireDir(req.ModelDir); err != nil {
		return nil, 0, fmt.Errorf("model directory: %w", err)
	}
	if err := fsutil.RequireDir(req.SequenceRoot); err != nil {
		return nil, 0, fmt.Errorf("sequence root: %w", err)
	}

	models, err := fsutil.FilesWithSuffix(req.ModelDir, d.modelSuffix)
	if err != nil {
		return nil, 0, err
	}
	if len(models) == 0 {
		logging.Warn("No %s files in %s", d.modelSuffix, req.ModelDir)
	}

	families := make(map[string]bool, len(models))
	for _, m := range models {
		families[Prefix(m)] = true
	}

	units, err := sequenceUnits(req, families)
	if err != nil {
		return nil, 0, err
	}

	var pairs []backend.Pair
	seen := make(map[string]bool)
	for _, model := range models {
		family := Prefix(model)
		familyDir := filepath.Join(req.OutputRoot, family)
		if create {
			if err := fsutil.EnsureDir(familyDir); err != nil {
				return nil, 0, err
			}
		}

		for _, u := range units {
			outDir := familyDir
			if u.project != "" {
				outDir = filepath.Join(familyDir, u.project)
				if create {
					if err := fsutil.EnsureDir(outDir); err != nil {
						return nil, 0, err
					}
				}
			}

			for _, seq := range u.files {
				name := PairName(model, seq)
				id := name
				if u.project != "" {
					id = u.project + "/" + name
				}
				if seen[id] {
					logging.Warn("%s: more than one pair writes %s; later results overwrite earlier ones", id, filepath.Join(outDir, name))
				}
				seen[id] = true

				pairs = append(pairs, backend.Pair{
					ID:           id,
					Name:         name,
					Family:       family,
					Project:      u.project,
					Method:       req.Method,
					ModelPath:    filepath.Join(req.ModelDir, model),
					SequencePath: filepath.Join(u.dir, seq),
					OutputDir:    outDir,
				})
			}
		}
	}

	return pairs, len(models), nil
}

// sequenceUnits enumerates the sequence root. Hidden entries are skipped.
// When results are written into the sequence root, directories named after
// a model family are earlier output, not input.
func sequenceUnits(req Request, families map[string]bool) ([]sequenceUnit, error) {
	files, dirs, err := fsutil.Entries(req.SequenceRoot)
	if err != nil {
		return nil, err
	}
	files = visible(files)
	dirs = visible(dirs)

	isOutput := func(dir string) bool {
		return req.OutputRoot == req.SequenceRoot && families[dir]
	}

	if !req.Multi {
		for _, dir := range dirs {
			if !isOutput(dir) {
				logging.Warn("Skipping directory %s in flat mode (use -m for project directories)", filepath.Join(req.SequenceRoot, dir))
			}
		}
		return []sequenceUnit{{dir: req.SequenceRoot, files: files}}, nil
	}

	for _, f := range files {
		logging.Warn("Skipping file %s in multi mode (expected project directories)", filepath.Join(req.SequenceRoot, f))
	}

	var units []sequenceUnit
	for _, project := range dirs {
		if isOutput(project) {
			logging.Debug("Skipping %s: output of an earlier run", project)
			continue
		}
		dir := filepath.Join(req.SequenceRoot, project)
		projFiles, sub, err := fsutil.Entries(dir)
		if err != nil {
			return nil, err
		}
		for _, s := range visible(sub) {
			logging.Warn("Skipping nested directory %s", filepath.Join(dir, s))
		}
		units = append(units, sequenceUnit{project: project, dir: dir, files: visible(projFiles)})
	}
	return units, nil
}

func visible(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if !strings.HasPrefix(n, ".") {
			out = append(out, n)
		}
	}
	return out
}
