package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/countconf/internal/config"
	"github.com/nvandessel/countconf/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing two tools:

  countconf_simulate   run the simulation and return the summary statistics
  countconf_histogram  run the simulation and return the SVG histogram

Tool calls are rate limited and recorded in ~/.countconf/audit.jsonl
(parameters only). Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupRun(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			noAudit, _ := cmd.Flags().GetBool("no-audit")
			auditDir := ""
			if !noAudit {
				if dir, err := config.Dir(); err == nil {
					auditDir = dir
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:          "countconf",
				Version:       version,
				Defaults:      env.cfg.Defaults,
				HistogramBins: env.cfg.Output.HistogramBins,
				AuditDir:      auditDir,
				Logger:        env.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			if auditDir != "" {
				env.logger.Debug("mcp server starting", "audit_log", filepath.Join(auditDir, "audit.jsonl"))
			}
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().Bool("no-audit", false, "Do not write the tool audit log")

	return cmd
}
