package simulation

// Outcome is the result of a single trial: either a count estimate or an
// invalid marker for trials whose reference total was not positive.
type Outcome struct {
	Estimate float64
	Valid    bool
}

// ValidOutcome returns an outcome carrying estimate.
func ValidOutcome(estimate float64) Outcome {
	return Outcome{Estimate: estimate, Valid: true}
}

// InvalidOutcome returns the invalid marker.
func InvalidOutcome() Outcome {
	return Outcome{}
}
