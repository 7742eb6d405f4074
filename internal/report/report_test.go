package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/countconf/internal/simulation"
)

func testResult(outcomes ...simulation.Outcome) *simulation.Result {
	params := simulation.Params{NRef: 100, CV: 0, NCounted: 50, NRequired: 50, NumSimulations: len(outcomes), MuWeight: 1}
	res := simulation.Aggregate(params, outcomes)
	res.Elapsed = 1500 * time.Millisecond
	return res
}

func TestWriteText(t *testing.T) {
	res := testResult(simulation.ValidOutcome(50), simulation.ValidOutcome(50), simulation.ValidOutcome(50))

	var buf bytes.Buffer
	if err := WriteText(&buf, NewSummary(res, Options{}), Options{}); err != nil {
		t.Fatalf("WriteText error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Monte Carlo Simulation Results:",
		"Number of Simulations: 3",
		"N_ref: 100, CV: 0, N_counted: 50, N_required: 50, mu_weight: 1",
		"Valid Trials: 3 of 3",
		"Estimated Standard Deviation of Count Estimate: 0.0000",
		"Confidence Level (True Count >= N_required): 100.00%",
		"95% interval:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "NaN") || strings.Contains(out, "undefined") {
		t.Errorf("zero std dev must render as zero, not undefined:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("color disabled but output contains ANSI escapes:\n%q", out)
	}
}

func TestWriteText_Undefined(t *testing.T) {
	tests := []struct {
		name       string
		outcomes   []simulation.Outcome
		wantLines  []string
		wantAbsent []string
	}{
		{
			name:     "no valid trials",
			outcomes: []simulation.Outcome{simulation.InvalidOutcome(), simulation.InvalidOutcome()},
			wantLines: []string{
				"Estimated Standard Deviation of Count Estimate: undefined",
				"Confidence Level (True Count >= N_required): undefined",
				"Valid Trials: 0 of 2",
				"Warning: No valid simulated counts generated",
			},
			wantAbsent: []string{"95% interval"},
		},
		{
			name:     "single valid trial",
			outcomes: []simulation.Outcome{simulation.ValidOutcome(49)},
			wantLines: []string{
				"Estimated Standard Deviation of Count Estimate: undefined",
				"Confidence Level (True Count >= N_required): 0.00%",
			},
			wantAbsent: []string{"Warning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			res := testResult(tt.outcomes...)
			if err := WriteText(&buf, NewSummary(res, Options{}), Options{}); err != nil {
				t.Fatalf("WriteText error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.wantLines {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(out, absent) {
					t.Errorf("output should not contain %q:\n%s", absent, out)
				}
			}
		})
	}
}

func TestWriteText_Clamped(t *testing.T) {
	res := testResult(simulation.ValidOutcome(50))
	opts := Options{Clamped: true}

	var buf bytes.Buffer
	if err := WriteText(&buf, NewSummary(res, opts), opts); err != nil {
		t.Fatalf("WriteText error = %v", err)
	}
	if !strings.Contains(buf.String(), "limited to the maximum") {
		t.Errorf("expected clamp notice:\n%s", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteText_PropagatesWriteError(t *testing.T) {
	res := testResult(simulation.ValidOutcome(50))
	err := WriteText(failingWriter{}, NewSummary(res, Options{}), Options{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("WriteText error = %v, want disk full", err)
	}
}

func TestWriteJSON(t *testing.T) {
	res := testResult(simulation.ValidOutcome(50), simulation.InvalidOutcome())

	t.Run("without counts", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteJSON(&buf, NewSummary(res, Options{})); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if got["confidence_level"] != 100.0 {
			t.Errorf("confidence_level = %v, want 100", got["confidence_level"])
		}
		if got["std_dev_count_estimate"] != nil {
			t.Errorf("std_dev_count_estimate = %v, want null", got["std_dev_count_estimate"])
		}
		if got["invalid_trials"] != 1.0 || got["valid_trials"] != 1.0 {
			t.Errorf("trial counts = %v/%v", got["valid_trials"], got["invalid_trials"])
		}
		if got["elapsed_ms"] != 1500.0 {
			t.Errorf("elapsed_ms = %v, want 1500", got["elapsed_ms"])
		}
		if _, ok := got["simulated_counts_valid"]; ok {
			t.Error("counts should be omitted unless requested")
		}
	})

	t.Run("with counts", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteJSON(&buf, NewSummary(res, Options{IncludeCounts: true})); err != nil {
			t.Fatalf("WriteJSON error = %v", err)
		}

		var got Summary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.SimulatedCountsValid) != 1 || got.SimulatedCountsValid[0] != 50 {
			t.Errorf("counts = %v, want [50]", got.SimulatedCountsValid)
		}
		if got.StdDevCountEstimate.OK {
			t.Error("std dev should decode as undefined")
		}
	})
}

func TestWriteJSON_EmptyCounts(t *testing.T) {
	res := testResult(simulation.InvalidOutcome(), simulation.InvalidOutcome())

	tests := []struct {
		name          string
		includeCounts bool
		want          string
		present       bool
	}{
		{"requested counts written as empty array", true, `"simulated_counts_valid": []`, true},
		{"counts omitted when not requested", false, `"simulated_counts_valid"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteJSON(&buf, NewSummary(res, Options{IncludeCounts: tt.includeCounts})); err != nil {
				t.Fatalf("WriteJSON error = %v", err)
			}
			if got := strings.Contains(buf.String(), tt.want); got != tt.present {
				t.Errorf("contains %s = %v, want %v\n%s", tt.want, got, tt.present, buf.String())
			}
		})
	}

	nilCounts := &simulation.Result{Params: res.Params, Trials: 2, InvalidTrials: 2}
	if s := NewSummary(nilCounts, Options{IncludeCounts: true}); s.SimulatedCountsValid == nil {
		t.Error("requested counts should be an empty slice, not nil")
	}
}
