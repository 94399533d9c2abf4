// Package config holds the YAML driver configuration: everything about
// how a run is executed that is not part of the simulation state itself.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEvents       = 100000
	DefaultPrintEvery   = 50000
	DefaultSwapInterval = 1000
)

type Config struct {
	DataDir    string  `yaml:"data_dir"`
	Events     uint64  `yaml:"events"`
	Time       float64 `yaml:"time"`
	PrintEvery uint64  `yaml:"print_every"`
	Seed       int64   `yaml:"seed"`

	Compression CompressionConfig `yaml:"compression"`
	Replex      ReplexConfig      `yaml:"replex"`
}

type CompressionConfig struct {
	GrowthRate    float64 `yaml:"growth_rate"`
	TargetPacking float64 `yaml:"target_packing"`
	Restore       bool    `yaml:"restore"`
}

type ReplexConfig struct {
	Temperatures []float64 `yaml:"temperatures"`
	SwapInterval uint64    `yaml:"swap_interval"`
	Attempts     int       `yaml:"attempts"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:    ".dynamo",
		Events:     DefaultEvents,
		PrintEvery: DefaultPrintEvery,
		Replex: ReplexConfig{
			SwapInterval: DefaultSwapInterval,
			Attempts:     10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
