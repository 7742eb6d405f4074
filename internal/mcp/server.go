// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the count confidence simulation as tools.
package mcp

import (
	"context"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/countconf/internal/ratelimit"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/variate"
)

// Server wraps the MCP SDK server and the simulation tools.
type Server struct {
	server       *sdk.Server
	defaults     simulation.Params
	bins         int
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "countconf")
	Version string // Server version

	// Defaults fill in optional tool arguments (num_simulations, mu_weight).
	Defaults simulation.Params

	// HistogramBins is the bin count for histogram renders; <= 0 is automatic.
	HistogramBins int

	// AuditDir is where audit.jsonl is written. Empty disables auditing.
	AuditDir string

	// Logger receives engine debug output. Nil discards it.
	Logger *slog.Logger
}

// NewServer creates a new MCP server with the simulation tools registered.
func NewServer(cfg *Config) (*Server, error) {
	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	var audit *AuditLogger
	if cfg.AuditDir != "" {
		audit = NewAuditLogger(cfg.AuditDir)
	}

	s := &Server{
		server:       mcpServer,
		defaults:     cfg.Defaults,
		bins:         cfg.HistogramBins,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  audit,
		logger:       cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle OS signals
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}

// newEngine returns an engine for one tool call. A nil seed draws from
// a randomly seeded source.
func (s *Server) newEngine(seed *uint64) *simulation.Engine {
	var engine *simulation.Engine
	if seed != nil {
		engine = simulation.NewSeededEngine(*seed)
	} else {
		engine = simulation.NewEngine(variate.NewGenerator(variate.NewSource()))
	}
	engine.SetLogger(s.logger, nil)
	return engine
}
