package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrUnknownScheduler indicates a scheduler name that is not supported
	ErrUnknownScheduler = errors.New("unknown scheduler")

	// ErrJobSubmissionFailed indicates job submission failed
	ErrJobSubmissionFailed = errors.New("job submission failed")
)

// SubmissionError represents an error during job submission
type SubmissionError struct {
	Command  string // Submit command as run
	ExitCode int    // Exit code, -1 if the process did not run
	Stderr   string // Scheduler error stream
	Err      error  // Underlying error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrJobSubmissionFailed, e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrJobSubmissionFailed) {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\nStderr: " + stderr
	}
	return msg
}

// Unwrap always reaches ErrJobSubmissionFailed, plus the process error if any.
func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrJobSubmissionFailed}
	}
	return []error{ErrJobSubmissionFailed, e.Err}
}

// ScriptCreationError represents an error creating a job script
type ScriptCreationError struct {
	JobName string // Job name
	Path    string // Script path
	Err     error  // Underlying error
}

func (e *ScriptCreationError) Error() string {
	return fmt.Sprintf("failed to create script for job %s at %s: %v",
		e.JobName, e.Path, e.Err)
}

func (e *ScriptCreationError) Unwrap() error {
	return e.Err
}

// NewScriptCreationError creates a new ScriptCreationError
func NewScriptCreationError(jobName string, path string, err error) *ScriptCreationError {
	return &ScriptCreationError{
		JobName: jobName,
		Path:    path,
		Err:     err,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsScriptCreationError checks if an error is a ScriptCreationError
func IsScriptCreationError(err error) bool {
	var sce *ScriptCreationError
	return errors.As(err, &sce)
}
