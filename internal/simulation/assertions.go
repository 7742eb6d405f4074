package simulation

import (
	"math"
	"testing"
)

// AssertAllCountsEqual asserts that every valid estimate equals want within tol.
func AssertAllCountsEqual(t *testing.T, result *Result, want, tol float64) {
	t.Helper()
	for i, x := range result.SimulatedCountsValid {
		if math.Abs(x-want) > tol {
			t.Errorf("AssertAllCountsEqual: trial %d: estimate %.9f, want %.9f ± %g", i, x, want, tol)
		}
	}
}

// AssertConfidenceLevel asserts that the confidence level is defined and
// within tol of want (percent).
func AssertConfidenceLevel(t *testing.T, result *Result, want, tol float64) {
	t.Helper()
	if !result.ConfidenceLevel.OK {
		t.Errorf("AssertConfidenceLevel: confidence level undefined, want %.4f", want)
		return
	}
	if math.Abs(result.ConfidenceLevel.V-want) > tol {
		t.Errorf("AssertConfidenceLevel: confidence level %.4f, want %.4f ± %g", result.ConfidenceLevel.V, want, tol)
	}
}

// AssertStdDevUndefined asserts that the standard deviation was not computed.
func AssertStdDevUndefined(t *testing.T, result *Result) {
	t.Helper()
	if result.StdDevCountEstimate.OK {
		t.Errorf("AssertStdDevUndefined: std dev = %v, want undefined", result.StdDevCountEstimate.V)
	}
}

// AssertProgressMonotonic asserts that reported percentages never decrease,
// completed counts strictly increase, and the last event reports 100%.
func AssertProgressMonotonic(t *testing.T, events []Progress) {
	t.Helper()
	if len(events) == 0 {
		t.Error("AssertProgressMonotonic: no progress events")
		return
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("AssertProgressMonotonic: event %d: percent %d < previous %d", i, events[i].Percent, events[i-1].Percent)
		}
		if events[i].Completed <= events[i-1].Completed {
			t.Errorf("AssertProgressMonotonic: event %d: completed %d <= previous %d", i, events[i].Completed, events[i-1].Completed)
		}
	}
	last := events[len(events)-1]
	if last.Percent != 100 || !last.Done() {
		t.Errorf("AssertProgressMonotonic: last event %+v, want 100%% complete", last)
	}
}
