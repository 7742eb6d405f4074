// Package report renders simulation results as a text summary or JSON.
//
// Undefined statistics are always shown as undefined (text) or null (JSON);
// a standard deviation of exactly zero is shown as zero.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/stats"
)

// Options controls how a summary is built and written.
type Options struct {
	// Color enables ANSI color in text output. Color is still suppressed
	// when stdout is not a terminal.
	Color bool

	// IncludeCounts adds the valid simulated counts to JSON output.
	IncludeCounts bool

	// Clamped records that num_simulations was reduced to the cap.
	Clamped bool
}

// Summary is the rendering view of a simulation.Result.
type Summary struct {
	Params              simulation.Params `json:"params"`
	Clamped             bool              `json:"clamped,omitempty"`
	ConfidenceLevel     stats.Value       `json:"confidence_level"`
	ConfidenceInterval  stats.Interval    `json:"confidence_interval"`
	StdDevCountEstimate stats.Value       `json:"std_dev_count_estimate"`
	MeanCountEstimate   stats.Value       `json:"mean_count_estimate"`
	Threshold           float64           `json:"threshold"`
	Trials              int               `json:"trials"`
	ValidTrials         int               `json:"valid_trials"`
	InvalidTrials       int               `json:"invalid_trials"`
	ElapsedMS           int64             `json:"elapsed_ms"`

	// SimulatedCountsValid is set only when counts were requested, and is
	// then written even when empty.
	SimulatedCountsValid []float64 `json:"simulated_counts_valid,omitzero"`
}

// NewSummary builds a Summary from a result.
func NewSummary(res *simulation.Result, opts Options) Summary {
	s := Summary{
		Params:              res.Params,
		Clamped:             opts.Clamped,
		ConfidenceLevel:     res.ConfidenceLevel,
		ConfidenceInterval:  res.ConfidenceInterval,
		StdDevCountEstimate: res.StdDevCountEstimate,
		MeanCountEstimate:   res.Mean,
		Threshold:           res.Threshold,
		Trials:              res.Trials,
		ValidTrials:         res.ValidCount(),
		InvalidTrials:       res.InvalidTrials,
		ElapsedMS:           res.Elapsed.Milliseconds(),
	}
	if opts.IncludeCounts {
		s.SimulatedCountsValid = res.SimulatedCountsValid
		if s.SimulatedCountsValid == nil {
			s.SimulatedCountsValid = []float64{}
		}
	}
	return s
}

// NoValidCountsWarning is shown when every trial was invalid.
const NoValidCountsWarning = "Warning: No valid simulated counts generated (reference total weight was always non-positive).\n" +
	"This is highly unusual unless parameters are very extreme."

// WriteText writes the human-readable summary.
func WriteText(w io.Writer, s Summary, opts Options) error {
	heading := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	value := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow)
	if !opts.Color {
		for _, c := range []*color.Color{heading, dim, value, warn} {
			c.DisableColor()
		}
	}

	p := s.Params
	ew := &errWriter{w: w}

	ew.write(heading.Sprint("Monte Carlo Simulation Results:") + "\n")
	ew.printf("Number of Simulations: %d\n", p.NumSimulations)
	if s.Clamped {
		ew.write(warn.Sprintf("  (limited to the maximum of %d)", p.NumSimulations) + "\n")
	}
	ew.write("Input Parameters:\n")
	ew.printf("  N_ref: %d, CV: %g, N_counted: %d, N_required: %d, mu_weight: %g\n",
		p.NRef, p.CV, p.NCounted, p.NRequired, p.MuWeight)
	ew.printf("Valid Trials: %d of %d\n", s.ValidTrials, s.Trials)
	ew.printf("Estimated Standard Deviation of Count Estimate: %s\n", value.Sprint(s.StdDevCountEstimate.Fixed(4)))
	ew.printf("Mean Count Estimate: %s\n", s.MeanCountEstimate.Fixed(4))
	ew.printf("Confidence Level (True Count >= N_required): %s\n", value.Sprint(percent(s.ConfidenceLevel)))
	if s.ConfidenceInterval.Lower.OK && s.ConfidenceInterval.Upper.OK {
		ew.write(dim.Sprintf("  95%% interval: %s to %s", percent(s.ConfidenceInterval.Lower), percent(s.ConfidenceInterval.Upper)) + "\n")
	}

	if s.ValidTrials == 0 {
		ew.write(warn.Sprint(NoValidCountsWarning) + "\n")
	}

	return ew.err
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

func percent(v stats.Value) string {
	if !v.OK {
		return "undefined"
	}
	return v.Fixed(2) + "%"
}

// errWriter keeps the first write error so a sequence of writes can be
// checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
