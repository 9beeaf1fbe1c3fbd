package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Submission is the outcome of one successful submit command.
type Submission struct {
	Command string
	JobID   string // empty when the output carried no recognizable ID
	Stdout  string
}

// Submitter hands a rendered submit command to the scheduler.
type Submitter interface {
	Submit(ctx context.Context, command string) (*Submission, error)
}

// ShellSubmitter runs submit commands through a shell and blocks until the
// scheduler CLI returns. Anything written to stderr counts as a failure, even
// with a zero exit code.
type ShellSubmitter struct {
	Type  Type   // used to parse the job ID from stdout
	Shell string // defaults to "sh"
}

// NewShellSubmitter returns a ShellSubmitter for t.
func NewShellSubmitter(t Type) *ShellSubmitter {
	return &ShellSubmitter{Type: t}
}

// Submit runs command with "sh -c".
func (s *ShellSubmitter) Submit(ctx context.Context, command string) (*Submission, error) {
	shell := s.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &SubmissionError{
			Command:  command,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	if strings.TrimSpace(stderr.String()) != "" {
		return nil, &SubmissionError{
			Command: command,
			Stderr:  stderr.String(),
		}
	}

	return &Submission{
		Command: command,
		JobID:   ParseJobID(s.Type, stdout.String()),
		Stdout:  stdout.String(),
	}, nil
}
