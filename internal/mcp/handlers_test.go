package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/ratelimit"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/visualization"
)

func seed(v uint64) *uint64 { return &v }

func TestHandleSimulate(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	req := &sdk.CallToolRequest{}

	args := SimulateInput{
		NRef:           100,
		CV:             0.05,
		NCounted:       1000,
		NRequired:      1000,
		NumSimulations: 2000,
		Seed:           seed(1),
	}
	result, output, err := server.handleSimulate(ctx, req, args)
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if result != nil {
		t.Error("Expected nil result (SDK auto-populates)")
	}

	if output.NumSimulations != 2000 {
		t.Errorf("NumSimulations = %d, want 2000", output.NumSimulations)
	}
	if output.Clamped {
		t.Error("Clamped = true, want false")
	}
	if output.ValidTrials+output.InvalidTrials != 2000 {
		t.Errorf("valid+invalid = %d, want 2000", output.ValidTrials+output.InvalidTrials)
	}
	if output.ConfidenceLevel == nil || *output.ConfidenceLevel < 40 || *output.ConfidenceLevel > 60 {
		t.Errorf("ConfidenceLevel = %v, want near 50", output.ConfidenceLevel)
	}
	if output.StdDevCountEstimate == nil || *output.StdDevCountEstimate <= 0 {
		t.Errorf("StdDevCountEstimate = %v, want positive", output.StdDevCountEstimate)
	}
	if output.ConfidenceLower == nil || output.ConfidenceUpper == nil ||
		*output.ConfidenceLower > *output.ConfidenceLevel || *output.ConfidenceUpper < *output.ConfidenceLevel {
		t.Errorf("interval [%v, %v] should bracket %v", output.ConfidenceLower, output.ConfidenceUpper, output.ConfidenceLevel)
	}
	if output.SimulatedCountsValid != nil {
		t.Error("counts should be omitted unless requested")
	}
	if !strings.Contains(output.Message, "at least 1000") {
		t.Errorf("Message = %q", output.Message)
	}
}

func TestHandleSimulate_DefaultsAndCounts(t *testing.T) {
	server := newTestServer(t)
	server.defaults.NumSimulations = 30

	_, output, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, SimulateInput{
		NRef:          10,
		CV:            0,
		NCounted:      7,
		NRequired:     7,
		Seed:          seed(3),
		IncludeCounts: true,
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	if output.NumSimulations != 30 {
		t.Errorf("NumSimulations = %d, want config default 30", output.NumSimulations)
	}
	if len(output.SimulatedCountsValid) != 30 {
		t.Fatalf("len(counts) = %d, want 30", len(output.SimulatedCountsValid))
	}
	for i, c := range output.SimulatedCountsValid {
		if c != 7 {
			t.Fatalf("count[%d] = %v, want 7 with zero variation", i, c)
		}
	}
	if output.StdDevCountEstimate == nil || *output.StdDevCountEstimate != 0 {
		t.Errorf("StdDevCountEstimate = %v, want 0 (not undefined)", output.StdDevCountEstimate)
	}
	if output.ConfidenceLevel == nil || *output.ConfidenceLevel != 100 {
		t.Errorf("ConfidenceLevel = %v, want 100", output.ConfidenceLevel)
	}
}

func TestHandleSimulate_Clamped(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, SimulateInput{
		NRef:           1,
		CV:             0,
		NCounted:       0,
		NRequired:      0,
		NumSimulations: constants.MaxSimulations + 1,
		Seed:           seed(5),
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if !output.Clamped {
		t.Error("Clamped = false, want true")
	}
	if output.NumSimulations != constants.MaxSimulations {
		t.Errorf("NumSimulations = %d, want %d", output.NumSimulations, constants.MaxSimulations)
	}
}

func TestHandleSimulate_SingleTrialUndefinedStdDev(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, SimulateInput{
		NRef: 100, CV: 0.05, NCounted: 1000, NRequired: 1000, NumSimulations: 1, Seed: seed(9),
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if output.StdDevCountEstimate != nil {
		t.Errorf("StdDevCountEstimate = %v, want nil", *output.StdDevCountEstimate)
	}
	if output.ConfidenceLevel == nil {
		t.Fatal("ConfidenceLevel should be defined with one valid trial")
	}
	if c := *output.ConfidenceLevel; c != 0 && c != 100 {
		t.Errorf("ConfidenceLevel = %v, want 0 or 100", c)
	}
}

func TestHandleSimulate_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		args SimulateInput
	}{
		{"zero n_ref", SimulateInput{NRef: 0, CV: 0.05, NCounted: 10, NRequired: 10}},
		{"negative cv", SimulateInput{NRef: 10, CV: -1, NCounted: 10, NRequired: 10}},
		{"negative n_counted", SimulateInput{NRef: 10, CV: 0.05, NCounted: -1, NRequired: 10}},
		{"negative mu", SimulateInput{NRef: 10, CV: 0.05, NCounted: 10, NRequired: 10, MuWeight: -2}},
		{"n_ref above tool limit", SimulateInput{NRef: constants.MaxToolSampleSize + 1, CV: 0.05, NCounted: 10, NRequired: 10}},
		{"huge n_counted", SimulateInput{NRef: 10, CV: 0.05, NCounted: 1_000_000_000_000, NRequired: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			_, _, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, tt.args)
			if !errors.Is(err, simulation.ErrInvalidParams) {
				t.Errorf("error = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestHandleSimulate_RateLimited(t *testing.T) {
	server := newTestServer(t)
	args := SimulateInput{NRef: 10, CV: 0, NCounted: 5, NRequired: 5, NumSimulations: 1}

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, _, err = server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, args)
	}
	if !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited after burst", err)
	}
}

func TestHandleSimulate_Cancelled(t *testing.T) {
	server := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := server.handleSimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{
		NRef: 10, CV: 0.05, NCounted: 5, NRequired: 5, NumSimulations: 100,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestHandleHistogram(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleHistogram(context.Background(), &sdk.CallToolRequest{}, HistogramInput{
		NRef: 100, CV: 0.05, NCounted: 1000, NRequired: 1000, NumSimulations: 300, Seed: seed(11), Bins: 15,
	})
	if err != nil {
		t.Fatalf("handleHistogram failed: %v", err)
	}
	if output.Format != "svg" {
		t.Errorf("Format = %q, want svg", output.Format)
	}
	if !strings.Contains(output.Chart, "<svg") {
		t.Error("Chart should contain SVG markup")
	}
	if output.ValidTrials != 300 {
		t.Errorf("ValidTrials = %d, want 300", output.ValidTrials)
	}
}

func TestHandleHistogram_BinCountOutOfRange(t *testing.T) {
	// One server per call keeps the histogram rate limit out of the way.
	for _, bins := range []int{constants.MaxHistogramBins + 1, 1 << 40, -3} {
		server := newTestServer(t)
		_, output, err := server.handleHistogram(context.Background(), &sdk.CallToolRequest{}, HistogramInput{
			NRef: 100, CV: 0.05, NCounted: 1000, NRequired: 1000, NumSimulations: 300, Seed: seed(11), Bins: bins,
		})
		if !errors.Is(err, visualization.ErrBinCount) {
			t.Errorf("bins=%d: error = %v, want ErrBinCount", bins, err)
		}
		if output.Chart != "" {
			t.Errorf("bins=%d: chart should be empty on error", bins)
		}
	}

	// The largest allowed count still renders.
	_, output, err := newTestServer(t).handleHistogram(context.Background(), &sdk.CallToolRequest{}, HistogramInput{
		NRef: 100, CV: 0.05, NCounted: 1000, NRequired: 1000, NumSimulations: 50, Seed: seed(11), Bins: constants.MaxHistogramBins,
	})
	if err != nil {
		t.Fatalf("bins=%d: %v", constants.MaxHistogramBins, err)
	}
	if !strings.Contains(output.Chart, "<svg") {
		t.Error("Chart should contain SVG markup")
	}
}

func TestSummaryMessage(t *testing.T) {
	params := simulation.Params{NRef: 10, NCounted: 5, NRequired: 5, NumSimulations: 2, MuWeight: 1}

	none := simulation.Aggregate(params, []simulation.Outcome{simulation.InvalidOutcome(), simulation.InvalidOutcome()})
	if got := summaryMessage(none); !strings.Contains(got, "undefined") {
		t.Errorf("summaryMessage(no valid) = %q, want mention of undefined", got)
	}

	some := simulation.Aggregate(params, []simulation.Outcome{simulation.ValidOutcome(5), simulation.ValidOutcome(4)})
	got := summaryMessage(some)
	for _, want := range []string{"50.00%", "2 of 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("summaryMessage = %q, missing %q", got, want)
		}
	}
}
