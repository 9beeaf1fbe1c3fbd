package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ezeeEric/batchbuddha/internal/config"
	"github.com/ezeeEric/batchbuddha/internal/timing"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

var (
	cfgFile     string
	ginConfigs  []string
	ginParams   []string
	debugMode   bool
	quietMode   bool
	showTimings bool
)

// recorder collects step timings for --timing.
var recorder = timing.NewRecorder()

var rootCmd = &cobra.Command{
	Use:   "batchbuddha",
	Short: "BatchBuddha: sweep parameters into HPC batch jobs.",
	Long: `BatchBuddha expands the loopable parameters of a config into one batch job
per combination, writes a run script and a submit script for each job and
submits them. Jobs that cannot be submitted are collected in submitJobs.sh.

Running batchbuddha without a subcommand is the same as 'batchbuddha submit'.`,
	Version:       config.VERSION,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.DebugMode = debugMode
		utils.QuietMode = quietMode && !debugMode
		utils.PrintDebug("BatchBuddha Version: %s", utils.StyleInfo(config.VERSION))

		done := recorder.Track("config.InitViper")
		defer done()
		if err := config.InitViper(viper.GetViper(), cfgFile); err != nil {
			return err
		}
		return bindFlags(cmd.Flags())
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		flushTimings()
	},

	RunE: runSubmit,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.PrintError("%v", err)
		flushTimings()
		os.Exit(1)
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./batchbuddha.yaml or $XDG_CONFIG_HOME/batchbuddha/batchbuddha.yaml)")
	pf.StringSliceVar(&ginConfigs, "gin-config", nil, "Additional gin binding file (repeatable)")
	pf.StringArrayVar(&ginParams, "gin-param", nil, "Additional gin binding, e.g. 'lr = [0.1, 0.01]' (repeatable)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	pf.BoolVarP(&quietMode, "quiet", "q", false, "Only print warnings and errors")
	pf.BoolVar(&showTimings, "timing", false, "Print how long each step took")

	addSubmitFlags(rootCmd.Flags())
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"test-run": "testRun",
	"dump":     "dumpSubmitCommandsToFile",
}

// bindFlags binds the flags of the running command to their config keys, so
// an explicitly set flag beats the environment and the config file.
func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := viper.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("failed to bind --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

func flushTimings() {
	if !showTimings && !debugMode {
		return
	}
	if err := recorder.Flush(utils.Stdout); err != nil {
		utils.PrintDebug("Failed to print timings: %v", err)
	}
}
