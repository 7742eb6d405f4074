// Package simulation estimates, by Monte Carlo, how confident a weigh-count
// can be that the true number of items meets a required threshold.
//
// Each trial synthesizes a reference-group total weight and a counted-group
// total weight under an additive Gaussian noise model, then forms the ratio
// estimate NRef * counted / reference. Trials whose reference total is not
// positive are recorded as invalid and excluded from the statistics.
//
// The engine runs trials in slices of roughly one percent of the run,
// reporting progress and yielding between slices. Randomness comes from an
// injected variate.Generator, so tests can run against a seeded source.
//
// Usage:
//
//	engine := simulation.NewEngine(variate.NewGenerator(variate.NewSource()))
//	result, err := engine.Run(ctx, simulation.Params{
//	    NRef:           100,
//	    CV:             0.05,
//	    NCounted:       1000,
//	    NRequired:      1000,
//	    NumSimulations: 10000,
//	    MuWeight:       1.0,
//	}, simulation.ProgressFunc(func(p simulation.Progress) {
//	    fmt.Fprintln(os.Stderr, p)
//	}))
package simulation
