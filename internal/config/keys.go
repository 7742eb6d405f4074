package config

import (
	"fmt"
	"math"
	"strconv"

	"github.com/nvandessel/countconf/internal/constants"
)

// Keys lists every dot-notation key accepted by Get and Set, in display order.
var Keys = []string{
	"defaults.n_ref",
	"defaults.cv",
	"defaults.n_counted",
	"defaults.n_required",
	"defaults.num_simulations",
	"defaults.mu_weight",
	"output.format",
	"output.color",
	"output.include_counts",
	"output.histogram_bins",
	"logging.level",
}

// Get retrieves a configuration value by dot-notation key.
func (c *Config) Get(key string) (interface{}, bool) {
	switch key {
	case "defaults.n_ref":
		return c.Defaults.NRef, true
	case "defaults.cv":
		return c.Defaults.CV, true
	case "defaults.n_counted":
		return c.Defaults.NCounted, true
	case "defaults.n_required":
		return c.Defaults.NRequired, true
	case "defaults.num_simulations":
		return c.Defaults.NumSimulations, true
	case "defaults.mu_weight":
		return c.Defaults.MuWeight, true
	case "output.format":
		return c.Output.Format, true
	case "output.color":
		return c.Output.Color, true
	case "output.include_counts":
		return c.Output.IncludeCounts, true
	case "output.histogram_bins":
		return c.Output.HistogramBins, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key. The value is parsed
// and range-checked for the key's type; the rest of the config is untouched.
func (c *Config) Set(key, value string) error {
	switch key {
	case "defaults.n_ref":
		n, err := parseInt(key, value, 1)
		if err != nil {
			return err
		}
		c.Defaults.NRef = n
	case "defaults.cv":
		f, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		if f < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", key, f)
		}
		c.Defaults.CV = f
	case "defaults.n_counted":
		n, err := parseInt(key, value, 0)
		if err != nil {
			return err
		}
		c.Defaults.NCounted = n
	case "defaults.n_required":
		n, err := parseInt(key, value, 0)
		if err != nil {
			return err
		}
		c.Defaults.NRequired = n
	case "defaults.num_simulations":
		n, err := parseInt(key, value, 1)
		if err != nil {
			return err
		}
		c.Defaults.NumSimulations = n
	case "defaults.mu_weight":
		f, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		if f <= 0 {
			return fmt.Errorf("%s must be positive, got %v", key, f)
		}
		c.Defaults.MuWeight = f
	case "output.format":
		if !constants.OutputFormat(value).Valid() {
			return fmt.Errorf("invalid output format: %s (valid: text, json)", value)
		}
		c.Output.Format = value
	case "output.color":
		c.Output.Color = value == "true" || value == "1"
	case "output.include_counts":
		c.Output.IncludeCounts = value == "true" || value == "1"
	case "output.histogram_bins":
		n, err := parseInt(key, value, 0)
		if err != nil {
			return err
		}
		if n > constants.MaxHistogramBins {
			return fmt.Errorf("%s must be at most %d, got %d", key, constants.MaxHistogramBins, n)
		}
		c.Output.HistogramBins = n
	case "logging.level":
		validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
		if !validLevels[value] {
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", value)
		}
		c.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func parseInt(key, value string, lowest int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s (must be an integer)", key, value)
	}
	if n < lowest {
		return 0, fmt.Errorf("%s must be at least %d, got %d", key, lowest, n)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %s (must be a number)", key, value)
	}
	return f, nil
}
