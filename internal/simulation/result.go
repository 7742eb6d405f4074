package simulation

import (
	"time"

	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/stats"
)

// Result is the outcome of one run. It is created once, when the run
// completes, and is not mutated afterwards.
type Result struct {
	Params Params `json:"params"`

	// ConfidenceLevel is the percentage of valid trials whose estimate is at
	// least NRequired - 0.5. Undefined when no trial was valid.
	ConfidenceLevel stats.Value `json:"confidence_level"`

	// StdDevCountEstimate is the Bessel-corrected standard deviation of the
	// valid estimates. Undefined with fewer than two valid trials.
	StdDevCountEstimate stats.Value `json:"std_dev_count_estimate"`

	// SimulatedCountsValid holds the valid estimates in generation order.
	SimulatedCountsValid []float64 `json:"simulated_counts_valid"`

	Mean stats.Value `json:"mean"`

	// ConfidenceInterval is the 95% Wilson interval around ConfidenceLevel,
	// in percent.
	ConfidenceInterval stats.Interval `json:"confidence_interval"`

	Threshold     float64       `json:"threshold"`
	Trials        int           `json:"trials"`
	InvalidTrials int           `json:"invalid_trials"`
	Elapsed       time.Duration `json:"-"`
}

// ValidCount returns the number of valid trials.
func (r *Result) ValidCount() int {
	return len(r.SimulatedCountsValid)
}

// Aggregate folds trial outcomes into a Result. Invalid outcomes are
// dropped; the valid estimates keep their order.
func Aggregate(params Params, outcomes []Outcome) *Result {
	valid := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Valid {
			valid = append(valid, o.Estimate)
		}
	}

	threshold := params.Threshold()
	result := &Result{
		Params:               params,
		SimulatedCountsValid: valid,
		Mean:                 stats.Mean(valid),
		StdDevCountEstimate:  stats.SampleStdDev(valid),
		Threshold:            threshold,
		Trials:               len(outcomes),
		InvalidTrials:        len(outcomes) - len(valid),
	}

	if len(valid) == 0 {
		return result
	}

	met := stats.CountAtLeast(valid, threshold)
	result.ConfidenceLevel = stats.Some(100 * float64(met) / float64(len(valid)))

	lo, hi := stats.Wilson(met, len(valid), constants.Z95)
	result.ConfidenceInterval = stats.Interval{Lower: lo, Upper: hi}.Scale(100)

	return result
}
