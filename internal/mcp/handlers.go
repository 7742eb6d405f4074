package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/ratelimit"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/visualization"
)

// registerTools registers the simulation tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSimulate,
		Description: "Estimate the probability that the true number of items in a weighed batch is at least a required count, by Monte Carlo simulation of the counting scale",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolHistogram,
		Description: "Run the count simulation and render the distribution of estimated counts as an SVG density histogram",
	}, s.handleHistogram)
}

// params resolves tool arguments into clamped simulation parameters.
func (s *Server) params(args runArgs) (simulation.Params, bool, error) {
	p := simulation.Params{
		NRef:           args.NRef,
		CV:             args.CV,
		NCounted:       args.NCounted,
		NRequired:      args.NRequired,
		NumSimulations: args.NumSimulations,
		MuWeight:       args.MuWeight,
	}
	if p.NumSimulations == 0 {
		p.NumSimulations = s.defaults.NumSimulations
	}
	if p.MuWeight == 0 {
		p.MuWeight = s.defaults.MuWeight
	}

	if p.NRef > constants.MaxToolSampleSize || p.NCounted > constants.MaxToolSampleSize {
		return simulation.Params{}, false, fmt.Errorf("%w: n_ref and n_counted must be at most %d for tool calls",
			simulation.ErrInvalidParams, constants.MaxToolSampleSize)
	}

	p, clamped := p.Clamp()
	if err := p.Validate(); err != nil {
		return simulation.Params{}, false, err
	}
	return p, clamped, nil
}

// run executes a simulation, forwarding progress to the client when the
// request carries a progress token.
func (s *Server) run(ctx context.Context, req *sdk.CallToolRequest, args runArgs, p simulation.Params) (*simulation.Result, error) {
	var obs simulation.Observer
	if token := progressToken(req); token != nil {
		obs = simulation.ProgressFunc(func(pr simulation.Progress) {
			// Notification failures do not abort the run.
			_ = req.Session.NotifyProgress(ctx, &sdk.ProgressNotificationParams{
				ProgressToken: token,
				Progress:      float64(pr.Completed),
				Total:         float64(pr.Total),
				Message:       pr.String(),
			})
		})
	}

	res, err := s.newEngine(args.Seed).Run(ctx, p, obs)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	return res, nil
}

func progressToken(req *sdk.CallToolRequest) any {
	if req == nil || req.Params == nil || req.Session == nil {
		return nil
	}
	return req.Params.GetProgressToken()
}

// handleSimulate implements the countconf_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolSimulate, start, retErr, sanitizeToolParams(ratelimit.ToolSimulate, args.runArgs().fields()))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	p, clamped, err := s.params(args.runArgs())
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	res, err := s.run(ctx, req, args.runArgs(), p)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	out := SimulateOutput{
		NumSimulations:      p.NumSimulations,
		Clamped:             clamped,
		ConfidenceLevel:     optional(res.ConfidenceLevel),
		ConfidenceLower:     optional(res.ConfidenceInterval.Lower),
		ConfidenceUpper:     optional(res.ConfidenceInterval.Upper),
		StdDevCountEstimate: optional(res.StdDevCountEstimate),
		MeanCountEstimate:   optional(res.Mean),
		ValidTrials:         res.ValidCount(),
		InvalidTrials:       res.InvalidTrials,
		ElapsedMS:           res.Elapsed.Milliseconds(),
		Message:             summaryMessage(res),
	}
	if args.IncludeCounts {
		out.SimulatedCountsValid = res.SimulatedCountsValid
	}
	return nil, out, nil
}

// handleHistogram implements the countconf_histogram tool.
func (s *Server) handleHistogram(ctx context.Context, req *sdk.CallToolRequest, args HistogramInput) (_ *sdk.CallToolResult, _ HistogramOutput, retErr error) {
	start := time.Now()
	defer func() {
		fields := args.runArgs().fields()
		fields["bins"] = args.Bins
		s.auditTool(ratelimit.ToolHistogram, start, retErr, sanitizeToolParams(ratelimit.ToolHistogram, fields))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolHistogram); err != nil {
		return nil, HistogramOutput{}, err
	}
	if err := visualization.ValidateBins(args.Bins); err != nil {
		return nil, HistogramOutput{}, fmt.Errorf("bins: %w", err)
	}

	p, clamped, err := s.params(args.runArgs())
	if err != nil {
		return nil, HistogramOutput{}, err
	}

	res, err := s.run(ctx, req, args.runArgs(), p)
	if err != nil {
		return nil, HistogramOutput{}, err
	}

	bins := args.Bins
	if bins == 0 {
		bins = s.bins
	}
	svg, err := visualization.RenderSVG(res, bins)
	if err != nil {
		return nil, HistogramOutput{}, fmt.Errorf("render histogram: %w", err)
	}

	return nil, HistogramOutput{
		Format:      string(visualization.FormatSVG),
		Chart:       string(svg),
		ValidTrials: res.ValidCount(),
		Clamped:     clamped,
	}, nil
}

func summaryMessage(res *simulation.Result) string {
	if res.ValidCount() == 0 {
		return fmt.Sprintf("No valid trials out of %d; confidence is undefined", res.Trials)
	}
	return fmt.Sprintf("Confidence that the true count is at least %d: %s%% (std dev of count estimate %s, %d of %d trials valid)",
		res.Params.NRequired, res.ConfidenceLevel.Fixed(2), res.StdDevCountEstimate.Fixed(4), res.ValidCount(), res.Trials)
}

// fields flattens the arguments for audit logging.
func (a runArgs) fields() map[string]interface{} {
	m := map[string]interface{}{
		"n_ref":           a.NRef,
		"cv":              a.CV,
		"n_counted":       a.NCounted,
		"n_required":      a.NRequired,
		"num_simulations": a.NumSimulations,
		"mu_weight":       a.MuWeight,
	}
	if a.Seed != nil {
		m["seed"] = *a.Seed
	}
	return m
}
