package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/countconf/internal/constants"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid simulation parameters")

// Params holds the inputs for one run. It is immutable for the run's duration.
type Params struct {
	// NRef is the reference-group sample size. Must be positive.
	NRef int `json:"n_ref" yaml:"n_ref"`

	// CV is the coefficient of variation of per-item weight. Must be >= 0.
	CV float64 `json:"cv" yaml:"cv"`

	// NCounted is the counted-group sample size. Must be >= 0.
	NCounted int `json:"n_counted" yaml:"n_counted"`

	// NRequired is the required true count. Must be >= 0.
	NRequired int `json:"n_required" yaml:"n_required"`

	// NumSimulations is the number of trials, in [1, constants.MaxSimulations].
	NumSimulations int `json:"num_simulations" yaml:"num_simulations"`

	// MuWeight is the assumed mean per-item weight. Must be positive.
	MuWeight float64 `json:"mu_weight" yaml:"mu_weight"`
}

// SigmaWeight returns the per-item weight standard deviation, CV * MuWeight.
func (p Params) SigmaWeight() float64 {
	return p.CV * p.MuWeight
}

// Threshold returns the continuity-corrected lower bound an estimate must
// reach to count as meeting NRequired.
func (p Params) Threshold() float64 {
	return float64(p.NRequired) - constants.ContinuityCorrection
}

// Validate checks every parameter constraint. The returned error wraps
// ErrInvalidParams and names the first offending field.
func (p Params) Validate() error {
	if p.NRef <= 0 {
		return fmt.Errorf("%w: n_ref must be positive, got %d", ErrInvalidParams, p.NRef)
	}
	if math.IsNaN(p.CV) || math.IsInf(p.CV, 0) || p.CV < 0 {
		return fmt.Errorf("%w: cv must be a finite non-negative number, got %v", ErrInvalidParams, p.CV)
	}
	if p.NCounted < 0 {
		return fmt.Errorf("%w: n_counted must be non-negative, got %d", ErrInvalidParams, p.NCounted)
	}
	if p.NRequired < 0 {
		return fmt.Errorf("%w: n_required must be non-negative, got %d", ErrInvalidParams, p.NRequired)
	}
	if p.NumSimulations <= 0 {
		return fmt.Errorf("%w: num_simulations must be positive, got %d", ErrInvalidParams, p.NumSimulations)
	}
	if p.NumSimulations > constants.MaxSimulations {
		return fmt.Errorf("%w: num_simulations must be at most %d, got %d", ErrInvalidParams, constants.MaxSimulations, p.NumSimulations)
	}
	if math.IsNaN(p.MuWeight) || math.IsInf(p.MuWeight, 0) || p.MuWeight <= 0 {
		return fmt.Errorf("%w: mu_weight must be a finite positive number, got %v", ErrInvalidParams, p.MuWeight)
	}
	return nil
}

// Clamp limits NumSimulations to constants.MaxSimulations and reports
// whether a change was made. Other fields are returned untouched.
func (p Params) Clamp() (Params, bool) {
	if p.NumSimulations > constants.MaxSimulations {
		p.NumSimulations = constants.MaxSimulations
		return p, true
	}
	return p, false
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("Params{NRef:%d, CV:%g, NCounted:%d, NRequired:%d, NumSimulations:%d, MuWeight:%g}",
		p.NRef, p.CV, p.NCounted, p.NRequired, p.NumSimulations, p.MuWeight)
}
