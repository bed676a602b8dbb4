package jobscript

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCommand = "/lsf/cmsearch --tblout /tmp/$LSB_JOBID.out --notextw --cut_ga --nohmmonly --rfam --cpu 4 /tmp/$LSB_JOBID.cm /tmp/$LSB_JOBID.fa"

func testGenerator() *Generator {
	return New(Resources{
		MemoryMB:      4000,
		TmpMemoryMB:   9000,
		CPU:           4,
		TmpPath:       "/tmp",
		ResourceGroup: "/rfam_rnac",
		Shell:         "/bin/csh",
		JobIDVar:      "LSB_JOBID",
	})
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := testGenerator().Render(&buf, "RF00001_seq1", "/models/RF00001.cm", "/seqs/seq1.fa", testCommand, "/out/RF00001")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := `#!/bin/csh
#BSUB -M 4000
#BSUB -R "rusage[mem=4000,tmp=9000]"
#BSUB -f "/models/RF00001.cm > /tmp/%J.cm"
#BSUB -f "/seqs/seq1.fa > /tmp/%J.fa"
#BSUB -f "/out/RF00001/RF00001_seq1.out < /tmp/%J.out"
#BSUB -f "/out/RF00001/RF00001_seq1.err < /tmp/%J.err"
#BSUB -e "/tmp/%J.err"
#BSUB -Ep "rm /tmp/$LSB_JOBID.*"
#BSUB -n 4
#BSUB -g "/rfam_rnac"

` + testCommand + "\n"

	if got := buf.String(); got != want {
		t.Errorf("script mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRender_NoResourceGroup(t *testing.T) {
	g := testGenerator()
	g.Resources.ResourceGroup = ""

	var buf bytes.Buffer
	if err := g.Render(&buf, "n", "/m.cm", "/s.fa", "cmd", "/out"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(buf.String(), "#BSUB -g") {
		t.Errorf("expected no group directive:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "#BSUB -n 4\n\ncmd\n") {
		t.Errorf("unexpected layout:\n%s", buf.String())
	}
}

func TestGenerate(t *testing.T) {
	outDir := t.TempDir()

	path, err := testGenerator().Generate("RF00002_s1", "/models/RF00002.cm", "/seqs/projA/s1.fa", testCommand, outDir)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if path != filepath.Join(outDir, "RF00002_s1.sh") {
		t.Errorf("unexpected script path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	content := string(data)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if last := lines[len(lines)-1]; last != testCommand {
		t.Errorf("final line = %q, want the search command", last)
	}

	outSlash := filepath.ToSlash(outDir)
	for _, want := range []string{
		`#BSUB -f "` + outSlash + `/RF00002_s1.out < /tmp/%J.out"`,
		`#BSUB -f "` + outSlash + `/RF00002_s1.err < /tmp/%J.err"`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("script missing %q\n%s", want, content)
		}
	}
}

func TestGenerate_MissingOutDir(t *testing.T) {
	_, err := testGenerator().Generate("x", "/m", "/s", "cmd", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error when output directory does not exist")
	}
}

func TestRender_RejectsUnquotablePaths(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		sequence string
		outDir   string
	}{
		{"quote in model", `/models/RF"1.cm`, "/s.fa", "/out"},
		{"quote in sequence", "/m.cm", `/seqs/a"b.fa`, "/out"},
		{"newline in output dir", "/m.cm", "/s.fa", "/out\nx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := testGenerator().Render(&buf, "n", tt.model, tt.sequence, "cmd", tt.outDir)
			if !errors.Is(err, ErrUnquotable) {
				t.Fatalf("expected ErrUnquotable, got %v", err)
			}
			if buf.Len() != 0 {
				t.Errorf("nothing should be written, got:\n%s", buf.String())
			}
		})
	}
}

func TestGenerate_UnquotablePathLeavesNoScript(t *testing.T) {
	outDir := t.TempDir()

	_, err := testGenerator().Generate("RF00001_x", `/seqs/"x".fa`, "/s.fa", "cmd", outDir)
	if !errors.Is(err, ErrUnquotable) {
		t.Fatalf("expected ErrUnquotable, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "RF00001_x.sh")); !os.IsNotExist(err) {
		t.Error("script should not be left behind")
	}
}
