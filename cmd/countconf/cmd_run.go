package main

import (
	"errors"
	"fmt"

	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/report"
	"github.com/nvandessel/countconf/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Monte Carlo simulation and print a summary",
		Long: `Simulate weighing a reference sample and a counted batch many times and
report the standard deviation of the count estimate and the confidence that
the true count is at least the required count.

Examples:
  countconf run --n-ref 100 --cv 0.05 --n-counted 1000 --n-required 1000
  countconf run -n 50000 --cv 0.1 --plot histogram.svg
  countconf run --json --include-counts --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			bins, err := env.histogramBins(cmd)
			if err != nil {
				return err
			}

			res, clamped, err := env.simulate(cmd)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if constants.OutputFormat(env.cfg.Output.Format) == constants.FormatJSON {
				jsonOut = true
			}
			noColor, _ := cmd.Flags().GetBool("no-color")
			includeCounts, _ := cmd.Flags().GetBool("include-counts")

			opts := report.Options{
				Color:         env.cfg.Output.Color && !noColor,
				IncludeCounts: env.cfg.Output.IncludeCounts || includeCounts,
				Clamped:       clamped,
			}
			summary := report.NewSummary(res, opts)

			out := cmd.OutOrStdout()
			if jsonOut {
				err = report.WriteJSON(out, summary)
			} else {
				err = report.WriteText(out, summary, opts)
			}
			if err != nil {
				return fmt.Errorf("write summary: %w", err)
			}

			plotPath, _ := cmd.Flags().GetString("plot")
			if plotPath == "" {
				return nil
			}

			path, err := writeChart(res, plotPath, "", bins)
			if errors.Is(err, visualization.ErrNoData) {
				fmt.Fprintln(cmd.ErrOrStderr(), "No chart written: no valid simulated counts.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Chart written to %s\n", path)

			if open, _ := cmd.Flags().GetBool("open"); open {
				openInBrowser(cmd, path)
			}
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().String("plot", "", "Also write the histogram to this file (.svg, .png or .html)")
	cmd.Flags().Bool("open", false, "Open the plot after writing it")
	cmd.Flags().Int("bins", 0, "Histogram bin count (default from config, 0 = automatic)")
	cmd.Flags().Bool("include-counts", false, "Include the valid simulated counts in JSON output")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}
