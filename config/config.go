// Package config loads the run configuration from YAML and applies CLI
// overrides. The dataset directory is an explicit field here, never an
// ambient environment lookup.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	Submission   string  `yaml:"submission"`
	Overwrite    bool    `yaml:"overwrite"`
	ModelPath    string  `yaml:"model_path"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	HiddenSize   int     `yaml:"hidden_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"`
	NumWorkers   int     `yaml:"num_workers"`
	Seed         int64   `yaml:"seed"`
	NoShuffle    bool    `yaml:"no_shuffle"`
	ShortBatches bool    `yaml:"short_batches"`
	VerboseEvery int     `yaml:"verbose_every"`
}

// Overrides captures CLI supplied values. Zero values leave the file
// setting untouched.
type Overrides struct {
	DataDir    string
	Submission string
	Epochs     int
	BatchSize  int
	NumWorkers int
	Seed       int64
	Overwrite  bool
}

// Default returns the notebook-equivalent settings: batch 50, one hidden
// layer of 200 units, Adam at 1e-3.
func Default() *Config {
	return &Config{
		Submission:   "submission.csv",
		ModelPath:    "model.gob",
		Epochs:       100,
		BatchSize:    50,
		HiddenSize:   200,
		LearningRate: 0.001,
		Optimizer:    "adam",
		NumWorkers:   1,
		Seed:         42,
		VerboseEvery: 10,
	}
}

// Load reads and validates a Config from YAML, starting from defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Submission != "" {
		c.Submission = o.Submission
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Overwrite {
		c.Overwrite = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be > 0 (got %d)", c.HiddenSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	switch c.Optimizer {
	case "sgd", "momentum", "adam":
	default:
		return fmt.Errorf("unknown optimizer %q", c.Optimizer)
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("num_workers must be > 0 (got %d)", c.NumWorkers)
	}
	if c.VerboseEvery <= 0 {
		c.VerboseEvery = 10
	}
	return nil
}
