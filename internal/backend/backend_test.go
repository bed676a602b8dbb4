package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rfamscan/internal/jobscript"
	"rfamscan/internal/proc"
	"rfamscan/internal/search"
)

func testBuilder() search.Builder {
	return search.Builder{
		Tools: search.Tools{
			search.MethodCMSearch: "/opt/infernal/cmsearch",
			search.MethodCMScan:   "/opt/infernal/cmscan",
		},
		CPU:      4,
		TmpPath:  "/tmp",
		JobIDVar: "LSB_JOBID",
	}
}

func testPair(outDir string) Pair {
	return Pair{
		Method:       search.MethodCMSearch,
		ID:           "RF00001_seq1",
		Name:         "RF00001_seq1",
		Family:       "RF00001",
		ModelPath:    "/models/RF00001.cm",
		SequencePath: "/seqs/seq1.fasta",
		OutputDir:    outDir,
	}
}

func TestLocal_Dispatch(t *testing.T) {
	exec := NewMockExecutor()
	local := NewLocal(testBuilder(), exec)
	local.Stdout = nil

	res := local.Dispatch(context.Background(), testPair("/out/RF00001"))

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(exec.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(exec.Calls))
	}

	call := exec.Calls[0]
	if call.Name != "/opt/infernal/cmsearch" {
		t.Errorf("expected cmsearch executable, got %q", call.Name)
	}
	wantArgs := []string{
		"--tblout", "/out/RF00001/RF00001_seq1.out",
		"--notextw", "--cut_ga", "--nohmmonly", "--rfam",
		"--cpu", "4",
		"/models/RF00001.cm", "/seqs/seq1.fasta",
	}
	if !reflect.DeepEqual(call.Args, wantArgs) {
		t.Errorf("args = %v, want %v", call.Args, wantArgs)
	}
	if res.Output != "/out/RF00001/RF00001_seq1.out" {
		t.Errorf("unexpected output path %q", res.Output)
	}
	if res.Backend != "local" {
		t.Errorf("expected backend local, got %q", res.Backend)
	}
}

func TestLocal_DispatchFailure(t *testing.T) {
	exec := NewMockExecutor()
	exec.ExitCode = 2
	exec.RunErr = fmt.Errorf("cmsearch: %w (exit 2)", proc.ErrNonZeroExit)
	local := NewLocal(testBuilder(), exec)
	pair := testPair("/out/RF00001")
	pair.Method = search.MethodCMScan

	res := local.Dispatch(context.Background(), pair)

	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %d", res.ExitCode)
	}
	if !strings.HasPrefix(res.Command, "/opt/infernal/cmscan ") {
		t.Errorf("expected cmscan command, got %q", res.Command)
	}
}

func TestLocal_UnknownMethod(t *testing.T) {
	exec := NewMockExecutor()
	local := NewLocal(testBuilder(), exec)
	pair := testPair("/out")
	pair.Method = search.Method("blast")

	res := local.Dispatch(context.Background(), pair)
	if !res.Failed() {
		t.Fatal("expected failure for unknown method")
	}
	if len(exec.Calls) != 0 {
		t.Errorf("expected no process to run, got %d", len(exec.Calls))
	}
}

func newTestCluster(exec *MockExecutor, submit string) *Cluster {
	scripts := jobscript.New(jobscript.Resources{
		MemoryMB:      4000,
		TmpMemoryMB:   9000,
		CPU:           4,
		TmpPath:       "/tmp",
		ResourceGroup: "/rfam_rnac",
		Shell:         "/bin/csh",
		JobIDVar:      "LSB_JOBID",
	})
	return NewCluster(testBuilder(), scripts, exec, submit)
}

func TestCluster_Dispatch(t *testing.T) {
	outDir := t.TempDir()
	exec := NewMockExecutor()
	exec.Stdout = "Job <48213> is submitted to queue <normal>."
	cluster := newTestCluster(exec, "bsub")

	res := cluster.Dispatch(context.Background(), testPair(outDir))

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.JobID != "48213" {
		t.Errorf("expected job id 48213, got %q", res.JobID)
	}

	wantScript := filepath.Join(outDir, "RF00001_seq1.sh")
	if res.Script != wantScript {
		t.Errorf("expected script %q, got %q", wantScript, res.Script)
	}
	if _, err := os.Stat(wantScript); err != nil {
		t.Fatalf("job script not written: %v", err)
	}

	if len(exec.Calls) != 1 || exec.Calls[0].Name != "bsub" || len(exec.Calls[0].Args) != 0 {
		t.Fatalf("expected a single bare bsub call, got %+v", exec.Calls)
	}

	// The script reaches bsub on stdin and ends with the staged command
	stdin := exec.Stdins[0]
	lines := strings.Split(strings.TrimRight(stdin, "\n"), "\n")
	want := "/opt/infernal/cmsearch --tblout /tmp/$LSB_JOBID.out --notextw --cut_ga --nohmmonly --rfam --cpu 4 /tmp/$LSB_JOBID.cm /tmp/$LSB_JOBID.fa"
	if lines[len(lines)-1] != want {
		t.Errorf("final script line = %q, want %q", lines[len(lines)-1], want)
	}
	if res.Command != want {
		t.Errorf("recorded command = %q", res.Command)
	}
}

func TestCluster_SubmitArgs(t *testing.T) {
	exec := NewMockExecutor()
	cluster := newTestCluster(exec, "bsub -q long")

	cluster.Dispatch(context.Background(), testPair(t.TempDir()))

	if len(exec.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(exec.Calls))
	}
	if exec.Calls[0].Name != "bsub" || !reflect.DeepEqual(exec.Calls[0].Args, []string{"-q", "long"}) {
		t.Errorf("unexpected submit call %+v", exec.Calls[0])
	}
}

func TestCluster_SubmitFailure(t *testing.T) {
	exec := NewMockExecutor()
	exec.ExitCode = 255
	exec.RunErr = errors.New("bsub: queue closed")
	cluster := newTestCluster(exec, "bsub")

	res := cluster.Dispatch(context.Background(), testPair(t.TempDir()))

	if !res.Failed() {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 255 || res.JobID != "" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCluster_MissingOutputDir(t *testing.T) {
	exec := NewMockExecutor()
	cluster := newTestCluster(exec, "bsub")

	res := cluster.Dispatch(context.Background(), testPair(filepath.Join(t.TempDir(), "missing")))

	if !res.Failed() {
		t.Fatal("expected failure when the script cannot be written")
	}
	if len(exec.Calls) != 0 {
		t.Errorf("nothing should be submitted, got %d calls", len(exec.Calls))
	}
}

func TestCluster_NoSubmitCommand(t *testing.T) {
	exec := NewMockExecutor()
	cluster := newTestCluster(exec, "  ")

	res := cluster.Dispatch(context.Background(), testPair(t.TempDir()))
	if !res.Failed() || !strings.Contains(res.Error, "no submit command") {
		t.Errorf("expected missing submit command failure, got %+v", res)
	}
}

func TestParseJobID(t *testing.T) {
	testCases := []struct {
		output string
		want   string
	}{
		{"Job <1234> is submitted to queue <normal>.", "1234"},
		{"Job <77> is submitted to default queue <long>.\n", "77"},
		{"Submitted batch job 49229449", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := ParseJobID(tc.output); got != tc.want {
			t.Errorf("ParseJobID(%q) = %q, want %q", tc.output, got, tc.want)
		}
	}
}
