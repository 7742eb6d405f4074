// Package config provides unified configuration loading for countconf.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/pathutil"
	"github.com/nvandessel/countconf/internal/simulation"
	"gopkg.in/yaml.v3"
)

// Config contains all countconf configuration settings.
type Config struct {
	// Defaults holds the run parameters used when a flag is not given.
	Defaults simulation.Params `json:"defaults" yaml:"defaults"`

	// Output contains settings for result rendering.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig configures how results are rendered.
type OutputConfig struct {
	// Format is the stdout summary format: "text" (default) or "json".
	Format string `json:"format" yaml:"format"`

	// Color enables ANSI color in the text summary.
	Color bool `json:"color" yaml:"color"`

	// IncludeCounts adds the valid simulated counts to JSON output.
	IncludeCounts bool `json:"include_counts" yaml:"include_counts"`

	// HistogramBins is the number of histogram bins; 0 picks one from the
	// sample size.
	HistogramBins int `json:"histogram_bins" yaml:"histogram_bins"`
}

// LoggingConfig configures countconf's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables run event logging to ~/.countconf/events.jsonl.
	// "trace" additionally logs every progress slice.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Defaults: simulation.Params{
			NRef:           constants.DefaultNRef,
			CV:             constants.DefaultCV,
			NCounted:       constants.DefaultNCounted,
			NRequired:      constants.DefaultNRequired,
			NumSimulations: constants.DefaultNumSimulations,
			MuWeight:       constants.DefaultMuWeight,
		},
		Output: OutputConfig{
			Format:        string(constants.FormatText),
			Color:         true,
			IncludeCounts: false,
			HistogramBins: constants.DefaultHistogramBins,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the countconf home directory (~/.countconf).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".countconf"), nil
}

// DefaultPath returns the default config file location (~/.countconf/config.yaml).
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.countconf/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads configuration from path, or from the default locations when
// path is empty. Environment overrides are applied in both cases.
func LoadPath(path string) (*Config, error) {
	if path == "" {
		return Load()
	}

	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", pathutil.RedactPath(path), err)
	}

	return config, nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is valid. Default parameters are
// checked after clamping, so an oversized num_simulations is accepted here
// and clamped at run time.
func (c *Config) Validate() error {
	defaults, _ := c.Defaults.Clamp()
	if err := defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if !constants.OutputFormat(c.Output.Format).Valid() {
		return fmt.Errorf("invalid output format: %s (valid: text, json)", c.Output.Format)
	}

	if c.Output.HistogramBins < 0 || c.Output.HistogramBins > constants.MaxHistogramBins {
		return fmt.Errorf("histogram_bins must be between 0 and %d, got %d", constants.MaxHistogramBins, c.Output.HistogramBins)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COUNTCONF_NUM_SIMULATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Defaults.NumSimulations = n
		}
	}

	if v := os.Getenv("COUNTCONF_CV"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Defaults.CV = f
		}
	}

	if v := os.Getenv("COUNTCONF_FORMAT"); v != "" {
		config.Output.Format = v
	}

	// NO_COLOR is the cross-tool convention; any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" || os.Getenv("COUNTCONF_NO_COLOR") != "" {
		config.Output.Color = false
	}

	if v := os.Getenv("COUNTCONF_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
