package main

import (
	"fmt"
	"time"

	"github.com/nvandessel/countconf/internal/visualization"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and serve the results page locally",
		Long: `Run the simulation, then start a local HTTP server with the results page,
the SVG histogram at /histogram.svg and the JSON summary at /api/result.
The server runs until interrupted.`,
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

			res, _, err := env.simulate(cmd)
			if err != nil {
				return err
			}

			noOpen, _ := cmd.Flags().GetBool("no-open")
			srv := visualization.NewServer(res, bins)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx) }()

			// Wait for server to start
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) && srv.Addr() == "" {
				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("server error: %w", err)
					}
					return nil
				case <-time.After(10 * time.Millisecond):
				}
			}

			addr := srv.Addr()
			if addr == "" {
				return fmt.Errorf("server failed to start")
			}

			url := "http://" + addr
			fmt.Fprintf(cmd.OutOrStdout(), "Results server running at %s\n", url)
			fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

			if !noOpen {
				openInBrowser(cmd, url)
			}

			// Block until server exits
			if err := <-errCh; err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Bool("no-open", false, "Don't open the browser")
	cmd.Flags().Int("bins", 0, "Histogram bin count (default from config, 0 = automatic)")

	return cmd
}
