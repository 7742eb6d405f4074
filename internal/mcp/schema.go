package mcp

import "github.com/nvandessel/countconf/internal/stats"

// SimulateInput defines the input for countconf_simulate tool.
type SimulateInput struct {
	NRef           int     `json:"n_ref" jsonschema:"Reference-group sample size (items weighed to calibrate), 1 to 1000000"`
	CV             float64 `json:"cv" jsonschema:"Coefficient of variation of per-item weight (sigma/mu), zero or more"`
	NCounted       int     `json:"n_counted" jsonschema:"Number of items in the counted group as displayed by the scale, at most 1000000"`
	NRequired      int     `json:"n_required" jsonschema:"Required true count threshold"`
	NumSimulations int     `json:"num_simulations,omitempty" jsonschema:"Number of Monte Carlo trials (default from config, capped at 100000)"`
	MuWeight       float64 `json:"mu_weight,omitempty" jsonschema:"Assumed mean weight per item (default 1); results are scale invariant"`
	Seed           *uint64 `json:"seed,omitempty" jsonschema:"Optional seed for a reproducible run"`
	IncludeCounts  bool    `json:"include_counts,omitempty" jsonschema:"Include every valid simulated count in the output (default: false)"`
}

// SimulateOutput defines the output for countconf_simulate tool.
// Undefined statistics are null.
type SimulateOutput struct {
	NumSimulations      int      `json:"num_simulations" jsonschema:"Trials actually run"`
	Clamped             bool     `json:"clamped" jsonschema:"Whether num_simulations was reduced to the maximum"`
	ConfidenceLevel     *float64 `json:"confidence_level" jsonschema:"Percent of valid trials whose estimate reached n_required - 0.5, null if no trial was valid"`
	ConfidenceLower     *float64 `json:"confidence_lower" jsonschema:"Lower bound of the 95% Wilson interval for the confidence level, in percent"`
	ConfidenceUpper     *float64 `json:"confidence_upper" jsonschema:"Upper bound of the 95% Wilson interval for the confidence level, in percent"`
	StdDevCountEstimate *float64 `json:"std_dev_count_estimate" jsonschema:"Sample standard deviation of the count estimate, null with fewer than two valid trials"`
	MeanCountEstimate   *float64 `json:"mean_count_estimate" jsonschema:"Mean of the valid count estimates, null if no trial was valid"`
	ValidTrials         int      `json:"valid_trials" jsonschema:"Trials with a positive reference weight"`
	InvalidTrials       int      `json:"invalid_trials" jsonschema:"Trials discarded for a non-positive reference weight"`
	ElapsedMS           int64    `json:"elapsed_ms" jsonschema:"Wall time of the run in milliseconds"`
	Message             string   `json:"message" jsonschema:"Human-readable result summary"`

	SimulatedCountsValid []float64 `json:"simulated_counts_valid,omitempty" jsonschema:"Valid simulated counts in generation order"`
}

// HistogramInput defines the input for countconf_histogram tool.
type HistogramInput struct {
	NRef           int     `json:"n_ref" jsonschema:"Reference-group sample size (items weighed to calibrate), 1 to 1000000"`
	CV             float64 `json:"cv" jsonschema:"Coefficient of variation of per-item weight (sigma/mu), zero or more"`
	NCounted       int     `json:"n_counted" jsonschema:"Number of items in the counted group as displayed by the scale, at most 1000000"`
	NRequired      int     `json:"n_required" jsonschema:"Required true count threshold"`
	NumSimulations int     `json:"num_simulations,omitempty" jsonschema:"Number of Monte Carlo trials (default from config, capped at 100000)"`
	MuWeight       float64 `json:"mu_weight,omitempty" jsonschema:"Assumed mean weight per item (default 1); results are scale invariant"`
	Seed           *uint64 `json:"seed,omitempty" jsonschema:"Optional seed for a reproducible run"`
	Bins           int     `json:"bins,omitempty" jsonschema:"Histogram bin count, at most 500 (default: automatic)"`
}

// HistogramOutput defines the output for countconf_histogram tool.
type HistogramOutput struct {
	Format      string `json:"format" jsonschema:"Chart format (always svg)"`
	Chart       string `json:"chart" jsonschema:"SVG markup of the density histogram"`
	ValidTrials int    `json:"valid_trials" jsonschema:"Number of counts plotted"`
	Clamped     bool   `json:"clamped" jsonschema:"Whether num_simulations was reduced to the maximum"`
}

// runArgs are the parameters shared by both tools.
type runArgs struct {
	NRef           int
	CV             float64
	NCounted       int
	NRequired      int
	NumSimulations int
	MuWeight       float64
	Seed           *uint64
}

func (in SimulateInput) runArgs() runArgs {
	return runArgs{in.NRef, in.CV, in.NCounted, in.NRequired, in.NumSimulations, in.MuWeight, in.Seed}
}

func (in HistogramInput) runArgs() runArgs {
	return runArgs{in.NRef, in.CV, in.NCounted, in.NRequired, in.NumSimulations, in.MuWeight, in.Seed}
}

// optional converts an undefined statistic to nil.
func optional(v stats.Value) *float64 {
	if !v.OK {
		return nil
	}
	x := v.V
	return &x
}
