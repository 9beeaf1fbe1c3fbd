package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezeeEric/batchbuddha/internal/sweep"
)

var hashCmd = &cobra.Command{
	Use:   "hash <jobID>...",
	Short: "Print the job hash of a job ID",
	Long: `Print the hash batchbuddha derives from a job ID, i.e. the underscore-joined
parameter values of a job. Useful to find a job's output directory.`,
	Example: `  batchbuddha hash 0.1_32
  batchbuddha hash theOnlyJob`,
	Args: cobra.MinimumNArgs(1),
	// hashing needs no config
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range args {
			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), sweep.PositiveHash(id))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, sweep.PositiveHash(id))
		}
	},
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the batchbuddha version",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(versionCmd)
}
