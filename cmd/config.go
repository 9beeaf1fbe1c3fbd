package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ezeeEric/batchbuddha/internal/config"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective sweep configuration",
	Long: `Show the configuration batchbuddha would run with.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (BATCHBUDDHA_*)
  3. Config file (--config, ./batchbuddha.yaml or $XDG_CONFIG_HOME/batchbuddha/batchbuddha.yaml)
  4. Defaults`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reg, err := loadSweep()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		used := viper.ConfigFileUsed()
		if used == "" {
			used = utils.StyleWarning("none (defaults and environment only)")
		} else {
			used = utils.StylePath(used)
		}
		fmt.Fprintf(out, "%s %s\n\n", utils.StyleTitle("Config file:"), used)

		fmt.Fprintln(out, utils.StyleTitle("Sweep:"))
		printSetting(out, "runCommand", cfg.RunCommand)
		printSetting(out, "loopableConfigEntries", fmt.Sprint(cfg.LoopableNames()))
		printSetting(out, "logDir", cfg.LogDir())
		printSetting(out, "outputFolderName", cfg.OutputFolderName)
		printSetting(out, "testRun", fmt.Sprint(cfg.TestRun))
		printSetting(out, "dumpSubmitCommandsToFile", fmt.Sprint(cfg.DumpSubmitCommandsToFile))
		if cfg.RequiresVersion != "" {
			printSetting(out, "requiresVersion", fmt.Sprintf("%s (running %s)", cfg.RequiresVersion, config.VERSION))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Scheduler:"))
		printSetting(out, "scheduler", cfg.Scheduler.String())
		printSetting(out, "submissionTemplate", cfg.SubmissionTemplate)
		printSetting(out, "project", cfg.Project)
		printSetting(out, "time", cfg.Scheduler.FormatTime(cfg.Walltime))
		printSetting(out, "cores", fmt.Sprint(cfg.Cores))
		printSetting(out, "memory", cfg.Scheduler.FormatMemory(cfg.MemoryMB))
		if cfg.SubmitScriptTemplate != "" {
			printSetting(out, "submitScriptTemplate", cfg.SubmitScriptTemplate)
		}
		if cfg.Launcher != "" {
			printSetting(out, "launcher", cfg.Launcher)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Gin bindings:"))
		for _, f := range reg.Files() {
			fmt.Fprintf(out, "  file %s\n", utils.StylePath(f))
		}
		for _, name := range reg.Names() {
			v, _ := reg.Query(name)
			printSetting(out, name, fmt.Sprint(v))
		}
		if len(reg.Names()) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func printSetting(out io.Writer, key, value string) {
	fmt.Fprintf(out, "  %-26s %s\n", key+":", value)
}
