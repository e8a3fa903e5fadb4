package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when neither a .env file nor the environment override them
const (
	DefaultSamples    = 1000
	DefaultOutputPath = "image_features_structured.csv"
	DefaultInputShape = "128x128x3"
)

// Config holds run settings for the stegolab commands
type Config struct {
	Samples    int
	Seed       uint64
	OutputPath string
	XLSXPath   string
	InputShape string
}

// Default returns the configuration used with an empty environment
func Default() *Config {
	return &Config{
		Samples:    DefaultSamples,
		OutputPath: DefaultOutputPath,
		InputShape: DefaultInputShape,
	}
}

// Load reads an optional .env file and applies STEGOLAB_* overrides
func Load() (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("STEGOLAB_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STEGOLAB_SAMPLES: %w", err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid STEGOLAB_SAMPLES: %d is negative", n)
		}
		cfg.Samples = n
	}

	if v := os.Getenv("STEGOLAB_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STEGOLAB_SEED: %w", err)
		}
		cfg.Seed = seed
	}

	if v := os.Getenv("STEGOLAB_OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("STEGOLAB_XLSX"); v != "" {
		cfg.XLSXPath = v
	}
	if v := os.Getenv("STEGOLAB_INPUT_SHAPE"); v != "" {
		cfg.InputShape = v
	}

	return cfg, nil
}
