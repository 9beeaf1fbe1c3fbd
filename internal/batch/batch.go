// Package batch turns a sweep into job scripts and scheduler submissions.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ezeeEric/batchbuddha/internal/config"
	"github.com/ezeeEric/batchbuddha/internal/render"
	"github.com/ezeeEric/batchbuddha/internal/scheduler"
	"github.com/ezeeEric/batchbuddha/internal/sweep"
	"github.com/ezeeEric/batchbuddha/internal/timing"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// DeferredScriptName is the consolidated script for jobs submitted later by hand.
const DeferredScriptName = "submitJobs.sh"

// DateTagLayout formats the YYMMDD prefix of job names.
const DateTagLayout = "060102"

// Status is what happened to a job's submission.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusDeferred  Status = "deferred"
	StatusTest      Status = "test"
)

// Job is one prepared job and its submission outcome.
type Job struct {
	Name           string   `yaml:"name"`
	ID             string   `yaml:"id"`
	Hash           string   `yaml:"hash"`
	Args           []string `yaml:"args,omitempty"`
	Payload        string   `yaml:"payload"`
	RunScript      string   `yaml:"runScript"`
	SubmitScript   string   `yaml:"submitScript"`
	RunLog         string   `yaml:"runLog"`
	OutputDir      string   `yaml:"outputDir"`
	Command        string   `yaml:"command"`
	Status         Status   `yaml:"status"`
	SchedulerJobID string   `yaml:"schedulerJobId,omitempty"`
	Error          string   `yaml:"error,omitempty"`
}

// Result summarizes one run.
type Result struct {
	RunID          string
	DateTag        string
	Created        time.Time
	Jobs           []*Job
	DeferredScript string // empty when no job was deferred
	Manifest       string
}

// Deferred returns the jobs queued for later submission, in enumeration order.
func (r *Result) Deferred() []*Job {
	var out []*Job
	for _, j := range r.Jobs {
		if j.Status == StatusDeferred {
			out = append(out, j)
		}
	}
	return out
}

// Runner executes one sweep. Jobs are processed one at a time in enumeration
// order; each submission blocks until the scheduler CLI returns.
type Runner struct {
	Config    *config.Config
	Namespace sweep.Namespace     // gin bindings; nil means none
	Submitter scheduler.Submitter // defaults to a ShellSubmitter for the configured scheduler
	Recorder  *timing.Recorder    // optional
	Now       func() time.Time    // defaults to time.Now
}

// Run expands the sweep, writes every job's scripts and submits or defers
// them. A failed submission defers that job and the sweep continues; a log
// directory, template or script write failure aborts the run, as does a
// malformed combination.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	defer r.Recorder.Track("batch.Run")()

	cfg := r.Config
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	submitter := r.Submitter
	if submitter == nil {
		submitter = scheduler.NewShellSubmitter(cfg.Scheduler)
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Created: now(),
	}
	res.DateTag = res.Created.Format(DateTagLayout)

	logDir := cfg.LogDir()
	if err := utils.EnsureDir(logDir); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	submitTemplate, err := cfg.SubmitScriptText()
	if err != nil {
		return nil, err
	}

	stop := r.Recorder.Track("sweep.BuildParameterSet")
	ps := sweep.BuildParameterSet(cfg.LoopableNames(), r.Namespace, cfg.Pairs())
	stop()
	utils.PrintMessage("Sweeping %s into %s job(s)", ps, utils.StyleNumber(ps.Count()))

	p := &preparer{
		cfg:            cfg,
		dateTag:        res.DateTag,
		logDir:         logDir,
		submitTemplate: submitTemplate,
	}

	for spec, err := range ps.Expand() {
		if err != nil {
			utils.PrintError("Could not unpack job configuration: %v", err)
			return res, err
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		job, err := p.prepare(spec)
		if err != nil {
			return res, err
		}
		r.dispatch(ctx, submitter, job)
		res.Jobs = append(res.Jobs, job)
	}

	if deferred := res.Deferred(); len(deferred) > 0 {
		path, err := writeDeferredScript(cfg, deferred)
		if err != nil {
			return res, err
		}
		res.DeferredScript = path
		utils.PrintSuccess("Executable file %s has been created with %s job(s)",
			utils.StylePath(path), utils.StyleNumber(len(deferred)))
	} else {
		utils.PrintMessage("No deferred submissions, %s was not written", DeferredScriptName)
	}

	manifest, err := writeManifest(logDir, res)
	if err != nil {
		return res, err
	}
	res.Manifest = manifest
	utils.PrintDebug("Wrote sweep manifest %s", utils.StylePath(manifest))

	return res, nil
}

// dispatch submits job unless the run is deferred or a test run.
func (r *Runner) dispatch(ctx context.Context, submitter scheduler.Submitter, job *Job) {
	cfg := r.Config
	switch {
	case cfg.DumpSubmitCommandsToFile:
		job.Status = StatusDeferred
		utils.PrintDebug("Deferring %s", utils.StyleName(job.Name))
		return
	case cfg.TestRun:
		job.Status = StatusTest
		utils.PrintNote("Test run, not submitting %s", utils.StyleName(job.Name))
		return
	}

	defer r.Recorder.Track("scheduler.Submit")()
	sub, err := submitter.Submit(ctx, job.Command)
	if err != nil {
		job.Status = StatusDeferred
		job.Error = err.Error()
		utils.PrintError("Could not submit %s: %v", utils.StyleName(job.Name), err)
		utils.PrintHint("The command will be written to %s to run later", DeferredScriptName)
		return
	}

	job.Status = StatusSubmitted
	job.SchedulerJobID = sub.JobID
	if sub.JobID != "" {
		utils.PrintSuccess("Submitted %s as job %s", utils.StyleName(job.Name), utils.StyleNumber(sub.JobID))
	} else {
		utils.PrintSuccess("Submitted %s", utils.StyleName(job.Name))
	}
}

// ComposePayload renders the job's command line: args are appended to the
// first "&&" segment of the run command and later segments follow unchanged.
func ComposePayload(runCommand string, args []string) string {
	segments := strings.Split(runCommand, "&&")
	first := strings.TrimSpace(segments[0])
	if len(args) > 0 {
		first = strings.TrimSpace(first + " " + strings.Join(args, " "))
	}

	parts := []string{first}
	for _, s := range segments[1:] {
		parts = append(parts, strings.TrimSpace(s))
	}
	return strings.Join(parts, " && ")
}

// RunCommand binds the job's output folder into the configured run command.
func RunCommand(cfg *config.Config, jobName string) (string, error) {
	out, err := render.Render(cfg.RunCommand, map[string]any{
		config.RunCommandPlaceholder: filepath.Join(cfg.OutputFolderName, jobName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render runCommand: %w", err)
	}
	return out, nil
}
