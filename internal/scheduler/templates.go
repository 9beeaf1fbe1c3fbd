package scheduler

import (
	"fmt"
	"time"
)

// DefaultNodeSetup is the preamble every run script starts with.
const DefaultNodeSetup = `pwd; whoami; date; hostname -f; date -u
if [ -f setup.sh ]; then source setup.sh; fi`

const slurmTemplate = `#!/bin/bash
#SBATCH --time={time}
#SBATCH --cpus-per-task={cores}
#SBATCH --mem={memory}
#SBATCH --account={project}
#SBATCH --job-name={jobname}
#SBATCH --output={runlog}
#SBATCH --error={runlog}

# payload: {payload}
export BB_JOB_NAME={jobname}
export BB_LOGSDIR={logsdir}
export BB_OUTDIR={outdir}
export TMPDIR=/{local_scratch}/${{SLURM_JOB_USER}}/${{SLURM_JOB_ID}}
mkdir -p "$TMPDIR"

{launcher}{runscript}
`

const pbsTemplate = `#!/bin/bash
#PBS -N {jobname}
#PBS -A {project}
#PBS -l walltime={time}
#PBS -l select=1:ncpus={cores}:mem={memory}
#PBS -o {runlog}
#PBS -j oe

# payload: {payload}
cd "$PBS_O_WORKDIR"
export BB_JOB_NAME={jobname}
export BB_LOGSDIR={logsdir}
export BB_OUTDIR={outdir}
export TMPDIR=/{local_scratch}/${{USER}}/${{PBS_JOBID}}
mkdir -p "$TMPDIR"

{launcher}{runscript}
`

const lsfTemplate = `#!/bin/bash
#BSUB -J {jobname}
#BSUB -P {project}
#BSUB -W {time}
#BSUB -n {cores}
#BSUB -R "rusage[mem={memory}]"
#BSUB -o {runlog}
#BSUB -e {runlog}

# payload: {payload}
export BB_JOB_NAME={jobname}
export BB_LOGSDIR={logsdir}
export BB_OUTDIR={outdir}
export TMPDIR=/{local_scratch}/${{USER}}/${{LSB_JOBID}}
mkdir -p "$TMPDIR"

{launcher}{runscript}
`

// SubmitTemplate returns the built-in submit-script template for t.
func SubmitTemplate(t Type) (string, error) {
	switch t {
	case SLURM:
		return slurmTemplate, nil
	case PBS:
		return pbsTemplate, nil
	case LSF:
		return lsfTemplate, nil
	}
	return "", fmt.Errorf("%w: no submit template for %s", ErrUnknownScheduler, t)
}

// DefaultSubmitCommand returns the submission command template for t. Its only
// placeholder is {submitscript}.
func DefaultSubmitCommand(t Type) string {
	switch t {
	case PBS:
		return "qsub {submitscript}"
	case LSF:
		// bsub reads embedded #BSUB directives only from stdin
		return "bsub < {submitscript}"
	default:
		return "sbatch {submitscript}"
	}
}

// FormatTime renders a walltime the way t's directives expect it.
func (t Type) FormatTime(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	switch t {
	case PBS:
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	case LSF:
		// -W takes [hours:]minutes; partial minutes round up
		mins := (total + 59) / 60
		return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
	default:
		if days := h / 24; days > 0 {
			return fmt.Sprintf("%d-%02d:%02d:%02d", days, h%24, m, s)
		}
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
}

// FormatMemory renders a memory request in MB the way t's directives expect it.
func (t Type) FormatMemory(mb int) string {
	switch t {
	case PBS:
		return fmt.Sprintf("%dmb", mb)
	case LSF:
		return fmt.Sprintf("%d", mb)
	default:
		return fmt.Sprintf("%dM", mb)
	}
}
