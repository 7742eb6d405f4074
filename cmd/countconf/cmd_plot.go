package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/countconf/internal/pathutil"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/visualization"
	"github.com/spf13/cobra"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Run the simulation and write the count histogram",
		Long: `Run the simulation and render the density histogram of estimated counts,
with reference lines at the displayed count and at the required count.

The format is taken from --format, else from the output file extension,
else SVG. Use -o - to write the chart to stdout.

Examples:
  countconf plot --cv 0.08 -o histogram.png
  countconf plot --format html --open
  countconf plot --format svg -o - > chart.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			// Fail on bad flags before spending time simulating.
			bins, err := env.histogramBins(cmd)
			if err != nil {
				return err
			}
			if format != "" {
				if _, err := visualization.ParseFormat(format); err != nil {
					return err
				}
			} else if output != "" && output != "-" {
				if _, err := visualization.FormatFromPath(output); err != nil {
					return err
				}
			}

			res, _, err := env.simulate(cmd)
			if err != nil {
				return err
			}

			if output == "-" {
				f := visualization.FormatSVG
				if format != "" {
					f, _ = visualization.ParseFormat(format)
				}
				return visualization.RenderHistogram(cmd.OutOrStdout(), res, f, bins)
			}

			path, err := writeChart(res, output, format, bins)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", path)

			if open, _ := cmd.Flags().GetBool("open"); open {
				openInBrowser(cmd, path)
			}
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().String("format", "", "Chart format: svg, png, or html")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: countconf-histogram.<format> in the temp dir)")
	cmd.Flags().Int("bins", 0, "Histogram bin count (default from config, 0 = automatic)")
	cmd.Flags().Bool("open", false, "Open the chart after writing it")

	return cmd
}

// writeChart renders the histogram and writes it to path. An empty format is
// inferred from path; an empty path is a temp file named after the format.
// Nothing is written when rendering fails. Returns the path written.
func writeChart(res *simulation.Result, path, format string, bins int) (string, error) {
	var f visualization.Format
	var err error
	switch {
	case format != "":
		f, err = visualization.ParseFormat(format)
	case path != "":
		f, err = visualization.FormatFromPath(path)
	default:
		f = visualization.FormatSVG
	}
	if err != nil {
		return "", err
	}

	if path == "" {
		path = filepath.Join(os.TempDir(), "countconf-histogram."+string(f))
	}

	var buf bytes.Buffer
	if err := visualization.RenderHistogram(&buf, res, f, bins); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write chart file %s: %w", pathutil.RedactPath(path), err)
	}
	return path, nil
}

// openInBrowser opens target, reporting failure on stderr without failing
// the command.
func openInBrowser(cmd *cobra.Command, target string) {
	if err := visualization.OpenBrowser(target); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, target)
	}
}
