package simulation

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/nvandessel/countconf/internal/logging"
	"github.com/nvandessel/countconf/internal/variate"
)

// Engine runs Monte Carlo weigh-count simulations. An Engine owns its
// generator and is not safe for concurrent runs; use one Engine per
// goroutine.
type Engine struct {
	gen     *variate.Generator
	logger  *slog.Logger
	events  *logging.EventLogger
	nowFunc func() time.Time // injectable clock for testing
}

// NewEngine creates an engine drawing variates from gen.
func NewEngine(gen *variate.Generator) *Engine {
	return &Engine{
		gen:     gen,
		nowFunc: time.Now,
	}
}

// SetLogger sets the structured logger and run event logger for observability.
// Either may be nil.
func (e *Engine) SetLogger(logger *slog.Logger, events *logging.EventLogger) {
	e.logger = logger
	e.events = events
}

// Run executes params.NumSimulations trials and aggregates them into a Result.
//
// Trials run in slices of SliceSize(params.NumSimulations). After each slice
// obs (which may be nil) receives a Progress event, the goroutine yields, and
// ctx is checked. Long trials also check ctx every drawsPerCheck draws. A
// cancelled context ends the run with ctx.Err() and no result. Invalid parameters fail fast with an error wrapping
// ErrInvalidParams. Degenerate statistics are never errors; they are
// reported as undefined values in the Result.
func (e *Engine) Run(ctx context.Context, params Params, obs Observer) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := e.nowFunc()
	n := params.NumSimulations
	slice := SliceSize(n)

	if e.logger != nil {
		e.logger.Debug("simulation started", "params", params.String(), "slice_size", slice)
	}
	trace := e.events.StartRun(params.runParams(), slice)

	outcomes := make([]Outcome, n)
	for i := 0; i < n; {
		if err := ctx.Err(); err != nil {
			return nil, e.cancelled(trace, i, n, err)
		}

		end := min(i+slice, n)
		for ; i < end; i++ {
			o, err := e.trial(ctx, params)
			if err != nil {
				return nil, e.cancelled(trace, i, n, err)
			}
			outcomes[i] = o
		}

		p := newProgress(i, n, e.nowFunc().Sub(start))
		if e.logger != nil {
			e.logger.Log(ctx, logging.LevelTrace, "slice complete", "run_id", trace.ID(), "completed", p.Completed, "percent", p.Percent)
		}
		if obs != nil {
			obs.Observe(p)
		}

		if i < n {
			runtime.Gosched()
		}
	}

	result := Aggregate(params, outcomes)
	result.Elapsed = e.nowFunc().Sub(start)

	if e.logger != nil {
		e.logger.Debug("simulation finished",
			"valid", result.ValidCount(),
			"invalid", result.InvalidTrials,
			"confidence_level", result.ConfidenceLevel.String(),
			"std_dev", result.StdDevCountEstimate.String(),
			"elapsed", result.Elapsed)
	}
	trace.Finished(logging.RunOutcome{
		Valid:           result.ValidCount(),
		Invalid:         result.InvalidTrials,
		ConfidenceLevel: result.ConfidenceLevel,
		StdDev:          result.StdDevCountEstimate,
	})

	return result, nil
}

// runParams converts params for the run event log.
func (p Params) runParams() logging.RunParams {
	return logging.RunParams{
		NRef:           p.NRef,
		CV:             p.CV,
		NCounted:       p.NCounted,
		NRequired:      p.NRequired,
		NumSimulations: p.NumSimulations,
		MuWeight:       p.MuWeight,
	}
}

// cancelled logs a run stopped by ctx after completed trials and returns err.
func (e *Engine) cancelled(trace *logging.RunTrace, completed, total int, err error) error {
	if e.logger != nil {
		e.logger.Debug("simulation cancelled", "run_id", trace.ID(), "completed", completed, "total", total)
	}
	trace.Cancelled(completed)
	return err
}

// drawsPerCheck is how many weight draws a trial makes between context checks.
const drawsPerCheck = 1 << 16

// Trial runs one trial: it sums NRef reference weights and NCounted counted
// weights, each drawn as MuWeight + z*SigmaWeight, and returns the ratio
// estimate NRef * counted / reference. Reference draws precede counted
// draws. A non-positive reference total yields InvalidOutcome.
func (e *Engine) Trial(params Params) Outcome {
	o, _ := e.trial(context.Background(), params)
	return o
}

// trial is Trial with ctx checked every drawsPerCheck draws, so a run with
// very large samples can be cancelled in the middle of a trial.
func (e *Engine) trial(ctx context.Context, params Params) (Outcome, error) {
	mu := params.MuWeight
	sigma := params.SigmaWeight()

	reference, err := e.sumWeights(ctx, params.NRef, mu, sigma)
	if err != nil {
		return Outcome{}, err
	}
	counted, err := e.sumWeights(ctx, params.NCounted, mu, sigma)
	if err != nil {
		return Outcome{}, err
	}

	if reference <= 0 {
		return InvalidOutcome(), nil
	}
	return ValidOutcome(float64(params.NRef) * (counted / reference)), nil
}

func (e *Engine) sumWeights(ctx context.Context, n int, mu, sigma float64) (float64, error) {
	total := 0.0
	for k := 0; k < n; k++ {
		if k%drawsPerCheck == drawsPerCheck-1 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		total += mu + e.gen.NextStandardNormal()*sigma
	}
	return total, nil
}
