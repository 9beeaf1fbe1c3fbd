package scheduler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ezeeEric/batchbuddha/internal/render"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"SLURM", SLURM},
		{"slurm", SLURM},
		{"sbatch", SLURM},
		{" pbs ", PBS},
		{"qsub", PBS},
		{"Lsf", LSF},
		{"bsub", LSF},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil {
			t.Errorf("ParseType(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseType("condor"); !errors.Is(err, ErrUnknownScheduler) {
		t.Errorf("ParseType(condor) err = %v; want ErrUnknownScheduler", err)
	}
}

func TestIsInsideJob(t *testing.T) {
	for _, env := range []string{"SLURM_JOB_ID", "PBS_JOBID", "LSB_JOBID"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	if IsInsideJob() {
		t.Fatal("IsInsideJob() = true without scheduler variables")
	}

	t.Setenv("LSB_JOBID", "99999")
	if !IsInsideJob() {
		t.Error("IsInsideJob() = false with LSB_JOBID set")
	}
}

func TestParseJobID(t *testing.T) {
	tests := []struct {
		typ    Type
		output string
		want   string
	}{
		{SLURM, "Submitted batch job 123456\n", "123456"},
		{SLURM, "sbatch: warning: something\nSubmitted batch job 7", "7"},
		{PBS, "4242.pbs-server\n", "4242.pbs-server"},
		{PBS, "99\n", "99"},
		{LSF, "Job <5150> is submitted to queue <normal>.\n", "5150"},
		{SLURM, "no id here", ""},
		{Unknown, "Submitted batch job 1", ""},
	}
	for _, tt := range tests {
		if got := ParseJobID(tt.typ, tt.output); got != tt.want {
			t.Errorf("ParseJobID(%v, %q) = %q; want %q", tt.typ, tt.output, got, tt.want)
		}
	}
}

func TestSubmitTemplatesRender(t *testing.T) {
	bindings := map[string]any{
		"jobname":       "240517_0.1_42",
		"project":       "def-someone",
		"time":          "01:00:00",
		"cores":         4,
		"memory":        "8192M",
		"local_scratch": "localscratch",
		"logsdir":       "/out/logs",
		"outdir":        "/out/42",
		"runlog":        "/out/logs/240517_42_run.log",
		"runscript":     "/out/logs/240517_0.1_42.sh",
		"launcher":      "",
		"payload":       "python train.py --lr 0.1",
	}
	for _, typ := range Types {
		t.Run(typ.String(), func(t *testing.T) {
			tmpl, err := SubmitTemplate(typ)
			if err != nil {
				t.Fatalf("SubmitTemplate failed: %v", err)
			}
			got, err := render.Render(tmpl, bindings)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.HasPrefix(got, "#!/bin/bash\n") {
				t.Errorf("script does not start with a shebang:\n%s", got)
			}
			if !strings.Contains(got, "\n/out/logs/240517_0.1_42.sh\n") {
				t.Errorf("script does not invoke the run script:\n%s", got)
			}
			if strings.Contains(got, "{{") || strings.Contains(got, "}}") {
				t.Errorf("escaped braces left in output:\n%s", got)
			}
		})
	}

	if _, err := SubmitTemplate(Unknown); !errors.Is(err, ErrUnknownScheduler) {
		t.Errorf("SubmitTemplate(Unknown) err = %v", err)
	}
}

func TestDefaultSubmitCommand(t *testing.T) {
	if got := DefaultSubmitCommand(SLURM); got != "sbatch {submitscript}" {
		t.Errorf("SLURM = %q", got)
	}
	if got := DefaultSubmitCommand(PBS); got != "qsub {submitscript}" {
		t.Errorf("PBS = %q", got)
	}
	if got := DefaultSubmitCommand(LSF); got != "bsub < {submitscript}" {
		t.Errorf("LSF = %q", got)
	}
	if got := DefaultSubmitCommand(Unknown); got != "sbatch {submitscript}" {
		t.Errorf("Unknown = %q", got)
	}
}

func TestFormatTimeAndMemory(t *testing.T) {
	d := 26*time.Hour + 30*time.Minute
	if got := SLURM.FormatTime(d); got != "1-02:30:00" {
		t.Errorf("SLURM.FormatTime = %q", got)
	}
	if got := SLURM.FormatTime(90 * time.Minute); got != "01:30:00" {
		t.Errorf("SLURM.FormatTime = %q", got)
	}
	if got := PBS.FormatTime(d); got != "26:30:00" {
		t.Errorf("PBS.FormatTime = %q", got)
	}
	if got := LSF.FormatTime(d); got != "26:30" {
		t.Errorf("LSF.FormatTime = %q", got)
	}
	if got := LSF.FormatTime(30 * time.Second); got != "00:01" {
		t.Errorf("LSF.FormatTime(30s) = %q; want 00:01", got)
	}
	if got := LSF.FormatTime(time.Hour + 90*time.Second); got != "01:02" {
		t.Errorf("LSF.FormatTime(1h1m30s) = %q; want 01:02", got)
	}

	if got := SLURM.FormatMemory(8192); got != "8192M" {
		t.Errorf("SLURM.FormatMemory = %q", got)
	}
	if got := PBS.FormatMemory(8192); got != "8192mb" {
		t.Errorf("PBS.FormatMemory = %q", got)
	}
	if got := LSF.FormatMemory(8192); got != "8192" {
		t.Errorf("LSF.FormatMemory = %q", got)
	}
}

func TestShellSubmitterSuccess(t *testing.T) {
	s := NewShellSubmitter(SLURM)
	sub, err := s.Submit(context.Background(), "echo 'Submitted batch job 31337'")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sub.JobID != "31337" {
		t.Errorf("JobID = %q; want 31337", sub.JobID)
	}
}

func TestShellSubmitterStderrIsFailure(t *testing.T) {
	s := NewShellSubmitter(SLURM)
	_, err := s.Submit(context.Background(), "echo 'sbatch: error: invalid account' >&2")
	if !errors.Is(err, ErrJobSubmissionFailed) {
		t.Fatalf("err = %v; want ErrJobSubmissionFailed", err)
	}
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("err is not a SubmissionError: %T", err)
	}
	if se.ExitCode != 0 || !strings.Contains(se.Stderr, "invalid account") {
		t.Errorf("unexpected SubmissionError %+v", se)
	}
}

func TestShellSubmitterExitCode(t *testing.T) {
	s := NewShellSubmitter(PBS)
	_, err := s.Submit(context.Background(), "exit 3")
	var se *SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v; want SubmissionError", err)
	}
	if se.ExitCode != 3 {
		t.Errorf("ExitCode = %d; want 3", se.ExitCode)
	}
	if !IsSubmissionError(err) || !errors.Is(err, ErrJobSubmissionFailed) {
		t.Errorf("error helpers do not match %v", err)
	}
}

func TestScriptCreationError(t *testing.T) {
	base := errors.New("permission denied")
	err := NewScriptCreationError("job", "/tmp/job.sh", base)
	if !IsScriptCreationError(err) || !errors.Is(err, base) {
		t.Errorf("ScriptCreationError does not unwrap: %v", err)
	}
	if !strings.Contains(err.Error(), "/tmp/job.sh") {
		t.Errorf("Error() = %q", err.Error())
	}
}
