// Package scheduler knows the batch systems batchbuddha can submit to: their
// submit-script templates, their submit commands and how to read a job ID
// back from their output.
package scheduler

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Type represents the type of job scheduler
type Type string

const (
	Unknown Type = ""
	SLURM   Type = "SLURM"
	PBS     Type = "PBS"
	LSF     Type = "LSF"
)

// Types lists the supported schedulers in detection order.
var Types = []Type{SLURM, PBS, LSF}

// submitBinary is the CLI each scheduler submits through.
var submitBinary = map[Type]string{
	SLURM: "sbatch",
	PBS:   "qsub",
	LSF:   "bsub",
}

// jobIDPatterns pull the scheduler job ID out of a successful submit's stdout.
var jobIDPatterns = map[Type]*regexp.Regexp{
	SLURM: regexp.MustCompile(`Submitted batch job (\d+)`),
	PBS:   regexp.MustCompile(`(?m)^\s*(\d+(?:\.\S+)?)\s*$`),
	LSF:   regexp.MustCompile(`Job <(\d+)> is submitted`),
}

// ParseType maps a scheduler name to its Type. Matching ignores case and
// accepts the submit binary name ("sbatch", "qsub", "bsub") as an alias.
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	for _, t := range Types {
		if strings.EqualFold(name, string(t)) || strings.EqualFold(name, submitBinary[t]) {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownScheduler, name)
}

// Binary returns the submit CLI of t, or "" for Unknown.
func (t Type) Binary() string {
	return submitBinary[t]
}

func (t Type) String() string {
	if t == Unknown {
		return "unknown"
	}
	return string(t)
}

// DetectType returns the first scheduler whose submit binary is on PATH.
func DetectType() Type {
	for _, t := range Types {
		if _, err := exec.LookPath(submitBinary[t]); err == nil {
			return t
		}
	}
	return Unknown
}

// IsInsideJob checks if we're currently running inside a scheduler job.
// Submitting from inside an allocation usually means a sweep was started from
// a job script by mistake.
func IsInsideJob() bool {
	for _, env := range []string{"SLURM_JOB_ID", "PBS_JOBID", "LSB_JOBID"} {
		if _, ok := os.LookupEnv(env); ok {
			return true
		}
	}
	return false
}

// ParseJobID extracts the job ID from a scheduler's submit output. It returns
// "" when the output carries no recognizable ID.
func ParseJobID(t Type, output string) string {
	re, ok := jobIDPatterns[t]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(output)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
