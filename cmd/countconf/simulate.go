package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/countconf/internal/config"
	"github.com/nvandessel/countconf/internal/logging"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/variate"
	"github.com/nvandessel/countconf/internal/visualization"
	"github.com/spf13/cobra"
)

// clampWarning is printed when num_simulations exceeds the cap.
const clampWarning = "Warning: Limiting simulations to 100,000 as maximum allowed."

// addParamFlags registers the run parameter flags. Unset flags fall back to
// the defaults section of the config.
func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("n-ref", 0, "Reference sample size used to calibrate the scale (default from config)")
	f.Float64("cv", 0, "Coefficient of variation of item weight, sigma/mu (default from config)")
	f.Int("n-counted", 0, "Count displayed by the scale for the batch (default from config)")
	f.Int("n-required", 0, "Required true count (default from config)")
	f.IntP("num-simulations", "n", 0, "Number of simulations, at most 100000 (default from config)")
	f.Float64("mu-weight", 0, "Assumed mean item weight (default from config)")
	f.Uint64("seed", 0, "Seed for a reproducible run (default: random)")
	f.BoolP("quiet", "q", false, "Do not print progress")
}

// resolveParams merges flags over config defaults, clamps num_simulations
// and validates the result.
func resolveParams(cmd *cobra.Command, cfg *config.Config) (simulation.Params, bool, error) {
	p := cfg.Defaults
	f := cmd.Flags()

	if f.Changed("n-ref") {
		p.NRef, _ = f.GetInt("n-ref")
	}
	if f.Changed("cv") {
		p.CV, _ = f.GetFloat64("cv")
	}
	if f.Changed("n-counted") {
		p.NCounted, _ = f.GetInt("n-counted")
	}
	if f.Changed("n-required") {
		p.NRequired, _ = f.GetInt("n-required")
	}
	if f.Changed("num-simulations") {
		p.NumSimulations, _ = f.GetInt("num-simulations")
	}
	if f.Changed("mu-weight") {
		p.MuWeight, _ = f.GetFloat64("mu-weight")
	}

	p, clamped := p.Clamp()
	if err := p.Validate(); err != nil {
		return simulation.Params{}, false, err
	}
	return p, clamped, nil
}

// runEnv holds what every simulating command needs.
type runEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	events *logging.EventLogger
}

// setupRun loads and validates config and builds the loggers. Logs go to
// stderr so stdout stays clean for results.
func setupRun(cmd *cobra.Command) (*runEnv, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	env := &runEnv{
		cfg:    cfg,
		logger: logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
	}
	if dir, err := config.Dir(); err == nil {
		env.events = logging.NewEventLogger(dir, cfg.Logging.Level)
	}
	return env, nil
}

// Close releases the event log.
func (e *runEnv) Close() {
	e.events.Close()
}

// newEngine builds an engine, seeded when --seed was given.
func (e *runEnv) newEngine(cmd *cobra.Command) *simulation.Engine {
	var engine *simulation.Engine
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		engine = simulation.NewSeededEngine(seed)
	} else {
		engine = simulation.NewEngine(variate.NewGenerator(variate.NewSource()))
	}
	engine.SetLogger(e.logger, e.events)
	return engine
}

// histogramBins returns --bins when set, else the configured bin count.
// Call it before simulating so a bad flag fails fast.
func (e *runEnv) histogramBins(cmd *cobra.Command) (int, error) {
	if !cmd.Flags().Changed("bins") {
		return e.cfg.Output.HistogramBins, nil
	}
	bins, _ := cmd.Flags().GetInt("bins")
	if err := visualization.ValidateBins(bins); err != nil {
		return 0, fmt.Errorf("invalid --bins: %w", err)
	}
	return bins, nil
}

// simulate resolves parameters, warns about clamping and runs the engine in
// the background, drawing a progress line on stderr. SIGINT/SIGTERM cancel
// the run.
func (e *runEnv) simulate(cmd *cobra.Command) (*simulation.Result, bool, error) {
	params, clamped, err := resolveParams(cmd, e.cfg)
	if err != nil {
		return nil, false, err
	}
	if clamped {
		fmt.Fprintln(cmd.ErrOrStderr(), clampWarning)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	quiet, _ := cmd.Flags().GetBool("quiet")
	errOut := cmd.ErrOrStderr()

	job := e.newEngine(cmd).Start(ctx, params)
	for p := range job.Progress() {
		if !quiet {
			fmt.Fprintf(errOut, "\r%s", p)
		}
	}
	if !quiet {
		fmt.Fprintln(errOut)
	}

	res, err := job.Wait()
	if err != nil {
		return nil, clamped, fmt.Errorf("simulation: %w", err)
	}
	return res, clamped, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
