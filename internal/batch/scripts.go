package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ezeeEric/batchbuddha/internal/config"
	"github.com/ezeeEric/batchbuddha/internal/render"
	"github.com/ezeeEric/batchbuddha/internal/scheduler"
	"github.com/ezeeEric/batchbuddha/internal/sweep"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

// preparer writes the run and submit script of each job.
type preparer struct {
	cfg            *config.Config
	dateTag        string
	logDir         string
	submitTemplate string
}

func (p *preparer) prepare(spec *sweep.JobSpec) (*Job, error) {
	cfg := p.cfg
	name := fileSafe(spec.Name(p.dateTag))
	utils.PrintMessage("Setting up job %s: %s", utils.StyleNumber(spec.Hash), utils.StyleName(spec.ID))

	runCommand, err := RunCommand(cfg, name)
	if err != nil {
		return nil, err
	}

	job := &Job{
		Name:         name,
		ID:           spec.ID,
		Hash:         spec.Hash,
		Args:         spec.Args,
		Payload:      ComposePayload(runCommand, spec.Args),
		RunScript:    filepath.Join(p.logDir, name+".sh"),
		SubmitScript: filepath.Join(p.logDir, p.dateTag+"_"+spec.Hash+"_submit.sh"),
		RunLog:       filepath.Join(p.logDir, p.dateTag+"_"+spec.Hash+"_run.log"),
		OutputDir:    filepath.Join(cfg.BaseOutputDir, spec.Hash),
	}
	utils.PrintMessage("Job: %s", utils.StyleCommand(job.Payload))

	if err := utils.WriteExecutable(job.RunScript, RunScript(cfg.NodeSetup, job.Payload)); err != nil {
		return nil, scheduler.NewScriptCreationError(name, job.RunScript, err)
	}

	submit, err := render.Render(p.submitTemplate, p.submitBindings(job))
	if err != nil {
		return nil, scheduler.NewScriptCreationError(name, job.SubmitScript, err)
	}
	if err := utils.WriteExecutable(job.SubmitScript, submit); err != nil {
		return nil, scheduler.NewScriptCreationError(name, job.SubmitScript, err)
	}
	utils.PrintDebug("Submit script: %s", utils.StylePath(job.SubmitScript))
	utils.PrintDebug("Run log: %s", utils.StylePath(job.RunLog))

	job.Command, err = render.Render(cfg.SubmissionTemplate, map[string]any{"submitscript": job.SubmitScript})
	if err != nil {
		return nil, fmt.Errorf("failed to render submissionTemplate: %w", err)
	}
	utils.PrintMessage("Batch command: %s", utils.StyleCommand(job.Command))

	return job, nil
}

// fileSafe replaces path separators so that values like "path/to/data" give a
// plain file name. ID and Hash keep the raw value.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == filepath.Separator {
			return '_'
		}
		return r
	}, name)
}

// submitBindings are the values a submit-script template may reference.
func (p *preparer) submitBindings(job *Job) map[string]any {
	cfg := p.cfg
	launcher := strings.TrimSpace(cfg.Launcher)
	if launcher != "" {
		launcher += " "
	}
	return map[string]any{
		"jobname":       job.Name,
		"project":       cfg.Project,
		"time":          cfg.Scheduler.FormatTime(cfg.Walltime),
		"cores":         cfg.Cores,
		"memory":        cfg.Scheduler.FormatMemory(cfg.MemoryMB),
		"local_scratch": cfg.LocalScratch,
		"logsdir":       p.logDir,
		"outdir":        job.OutputDir,
		"runlog":        job.RunLog,
		"runscript":     job.RunScript,
		"launcher":      launcher,
		"payload":       job.Payload,
	}
}

// RunScript is the text of a job's run script.
func RunScript(nodeSetup, payload string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	if setup := strings.TrimSpace(nodeSetup); setup != "" {
		sb.WriteString(setup)
		sb.WriteString("\n")
	}
	sb.WriteString(payload)
	sb.WriteString("\n")
	return sb.String()
}

// DeferredScript is the text of submitJobs.sh for the given commands.
func DeferredScript(setup string, commands []string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	if setup = strings.TrimSpace(setup); setup != "" {
		sb.WriteString(setup)
		sb.WriteString("\n")
	}
	for _, c := range commands {
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeDeferredScript(cfg *config.Config, jobs []*Job) (string, error) {
	dir := cfg.DeferredScriptDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, DeferredScriptName)

	commands := make([]string, len(jobs))
	for i, j := range jobs {
		commands[i] = j.Command
	}
	if err := utils.WriteExecutable(path, DeferredScript(cfg.DeferredSetup, commands)); err != nil {
		return "", scheduler.NewScriptCreationError(DeferredScriptName, path, err)
	}
	return path, nil
}
