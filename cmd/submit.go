package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ezeeEric/batchbuddha/internal/batch"
	"github.com/ezeeEric/batchbuddha/internal/config"
	"github.com/ezeeEric/batchbuddha/internal/gin"
	"github.com/ezeeEric/batchbuddha/internal/scheduler"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Write job scripts for every parameter combination and submit them",
	Long: `Expand the loopable parameters of the config into one job per combination.

For every job a run script ({logDir}/{jobName}.sh) and a submit script
({logDir}/{dateTag}_{jobHash}_submit.sh) are written and the submission
command is run. Jobs whose submission fails are written to submitJobs.sh so
they can be submitted later. A manifest of the run is written to
{logDir}/{dateTag}_sweep.yaml.`,
	Example: `  batchbuddha submit -c sweep.yaml
  batchbuddha submit -c sweep.yaml --test-run
  batchbuddha submit -c sweep.yaml --gin-param 'temperature = [0.5, 1.0]'`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	addSubmitFlags(submitCmd.Flags())
	rootCmd.AddCommand(submitCmd)
}

func addSubmitFlags(flags *pflag.FlagSet) {
	flags.Bool("test-run", false, "Write scripts but do not submit anything")
	flags.Bool("dump", false, "Write every submission command to submitJobs.sh instead of submitting")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, reg, err := loadSweep()
	if err != nil {
		return err
	}

	if scheduler.IsInsideJob() && !cfg.TestRun {
		utils.PrintWarning("Running inside a scheduler job, submitted jobs will be nested")
	}

	runner := &batch.Runner{
		Config:    cfg,
		Namespace: reg,
		Submitter: scheduler.NewShellSubmitter(cfg.Scheduler),
		Recorder:  recorder,
	}
	res, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	submitted := 0
	for _, j := range res.Jobs {
		if j.Status == batch.StatusSubmitted {
			submitted++
		}
	}
	utils.PrintSuccess("Processed %s job(s), %s submitted, %s deferred",
		utils.StyleNumber(len(res.Jobs)), utils.StyleNumber(submitted), utils.StyleNumber(len(res.Deferred())))
	if res.DeferredScript != "" {
		utils.PrintHint("Run %s to submit the deferred jobs", utils.StylePath(res.DeferredScript))
	}
	return nil
}

// loadSweep loads the config and the gin bindings it refers to, plus any
// given with --gin-config and --gin-param.
func loadSweep() (*config.Config, *gin.Registry, error) {
	done := recorder.Track("config.Load")
	cfg, err := config.Load(viper.GetViper())
	done()
	if err != nil {
		return nil, nil, err
	}
	for _, f := range ginConfigs {
		cfg.GinConfig = append(cfg.GinConfig, utils.AbsPath(f))
	}
	cfg.GinBindings = append(cfg.GinBindings, ginParams...)

	done = recorder.Track("gin.Parse")
	reg, err := cfg.GinRegistry()
	done()
	if err != nil {
		return nil, nil, err
	}

	utils.PrintDebug("Scheduler: %s", utils.StyleName(cfg.Scheduler.String()))
	utils.PrintDebug("Log directory: %s", utils.StylePath(cfg.LogDir()))
	utils.PrintDebug("Loopable entries: %v", cfg.LoopableNames())
	return cfg, reg, nil
}
