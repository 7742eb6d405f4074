// Package constants provides named constants used throughout the countconf codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Simulation limits
const (
	// MaxSimulations is the hard cap on trials per run. Requests above this
	// are clamped by the input layer before the engine sees them.
	MaxSimulations = 100000

	// SlicesPerRun is the target number of progress slices per run.
	// The slice size is NumSimulations / SlicesPerRun, never less than 1.
	SlicesPerRun = 100
)

// Estimator constants
const (
	// ContinuityCorrection is subtracted from the integer count threshold when
	// comparing against the continuous ratio estimate.
	ContinuityCorrection = 0.5

	// Z95 is the standard normal quantile for a two-sided 95% interval.
	Z95 = 1.96
)

// Default run parameters, used when neither flags nor config supply a value.
const (
	DefaultNRef           = 100
	DefaultCV             = 0.05
	DefaultNCounted       = 1000
	DefaultNRequired      = 1000
	DefaultNumSimulations = 10000
	DefaultMuWeight       = 1.0
)

// MaxToolSampleSize bounds n_ref and n_counted in MCP tool calls. One trial
// draws n_ref + n_counted weights, so this caps the work per trial for
// remote callers. The CLI does not apply it.
const MaxToolSampleSize = 1_000_000

// Histogram rendering
const (
	// DefaultHistogramBins of 0 means "pick a bin count from the sample size".
	DefaultHistogramBins = 0

	// MaxHistogramBins bounds user-supplied bin counts.
	MaxHistogramBins = 500
)
