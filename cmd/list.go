package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezeeEric/batchbuddha/internal/batch"
	"github.com/ezeeEric/batchbuddha/internal/sweep"
	"github.com/ezeeEric/batchbuddha/internal/utils"
)

var listManifest string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the jobs a sweep would create",
	Long: `List the jobs the config expands into, without writing or submitting anything.

With --manifest, list the jobs recorded by an earlier run instead, together
with their submission status.`,
	Example: `  batchbuddha list -c sweep.yaml
  batchbuddha list --manifest output/logs/240517_sweep.yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listManifest, "manifest", "m", "", "Show the jobs recorded in a sweep manifest")
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if listManifest != "" {
		m, err := batch.ReadManifest(listManifest)
		if err != nil {
			return err
		}
		printManifest(out, m)
		return nil
	}

	cfg, reg, err := loadSweep()
	if err != nil {
		return err
	}
	ps := sweep.BuildParameterSet(cfg.LoopableNames(), reg, cfg.Pairs())
	jobs, err := ps.Jobs()
	if err != nil {
		return err
	}

	dateTag := time.Now().Format(batch.DateTagLayout)
	fmt.Fprintln(out, utils.StyleTitle(fmt.Sprintf("Jobs for %s:", ps)))
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name(dateTag)
	}
	width := maxWidth(names)
	for i, j := range jobs {
		fmt.Fprintf(out, " %3d. %s  %s\n", i+1, utils.StyleName(fmt.Sprintf("%-*s", width, names[i])), j.ArgString())
	}
	return nil
}

func printManifest(out io.Writer, m *batch.Manifest) {
	fmt.Fprintf(out, "%s %s (%s)\n", utils.StyleTitle("Run"), m.RunID, m.Created.Format(time.RFC3339))
	names := make([]string, len(m.Jobs))
	for i, j := range m.Jobs {
		names[i] = j.Name
	}
	width := maxWidth(names)
	for i, j := range m.Jobs {
		status := string(j.Status)
		switch j.Status {
		case batch.StatusSubmitted:
			status = utils.StyleSuccess(status)
			if j.SchedulerJobID != "" {
				status += " " + utils.StyleNumber(j.SchedulerJobID)
			}
		case batch.StatusDeferred:
			status = utils.StyleWarning(status)
		}
		fmt.Fprintf(out, " %3d. %s  %s\n", i+1, utils.StyleName(fmt.Sprintf("%-*s", width, j.Name)), status)
	}
	if m.DeferredScript != "" {
		fmt.Fprintf(out, "Deferred jobs are in %s\n", utils.StylePath(m.DeferredScript))
	}
}

func maxWidth(items []string) int {
	w := 0
	for _, s := range items {
		if n := len(strings.TrimSpace(s)); n > w {
			w = n
		}
	}
	return w
}
