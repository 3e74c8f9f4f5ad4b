// Package config provides configuration loading, validation and parameter
// overrides for a simulation run.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/biosim/animals"
	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/landscape"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrInvalidConfig is returned when a config document cannot be decoded,
	// including documents with unknown keys.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownParameter is returned for an override key that does not exist.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrInvalidValue is returned for a parameter outside its domain.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig   `yaml:"simulation"`
	Herbivore  animals.Params     `yaml:"herbivore"`
	Carnivore  animals.Params     `yaml:"carnivore"`
	Landscape  LandscapeConfig    `yaml:"landscape"`
	Population []island.Placement `yaml:"population"`
	Telemetry  TelemetryConfig    `yaml:"telemetry"`
}

// SimulationConfig holds run-level settings.
type SimulationConfig struct {
	Seed   uint64 `yaml:"seed"`
	Cycles int    `yaml:"cycles"`
	Map    string `yaml:"map"`
}

// LandscapeConfig holds fodder parameters for the terrains that grow fodder.
type LandscapeConfig struct {
	Jungle   landscape.FodderParams `yaml:"jungle"`
	Savannah landscape.FodderParams `yaml:"savannah"`
}

// TelemetryConfig holds reporting intervals, in cycles. Zero disables.
type TelemetryConfig struct {
	LogEvery   int `yaml:"log_every"`
	CellsEvery int `yaml:"cells_every"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Unknown keys and values
// outside their domain are rejected.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := decodeStrict(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks every parameter against its domain.
func (c *Config) Validate() error {
	if err := validateSpecies(animals.Herbivore, &c.Herbivore); err != nil {
		return err
	}
	if err := validateSpecies(animals.Carnivore, &c.Carnivore); err != nil {
		return err
	}
	if err := validateFodder(landscape.Jungle, &c.Landscape.Jungle); err != nil {
		return err
	}
	if err := validateFodder(landscape.Savannah, &c.Landscape.Savannah); err != nil {
		return err
	}
	if c.Simulation.Cycles < 0 {
		return fmt.Errorf("%w: simulation.cycles must be non-negative, got %d", ErrInvalidValue, c.Simulation.Cycles)
	}
	if c.Telemetry.LogEvery < 0 || c.Telemetry.CellsEvery < 0 {
		return fmt.Errorf("%w: telemetry intervals must be non-negative", ErrInvalidValue)
	}
	for _, g := range c.Population {
		if g.Cycle < 0 {
			return fmt.Errorf("%w: population cycle must be non-negative, got %d", ErrInvalidValue, g.Cycle)
		}
	}
	return nil
}

// Species returns the configured parameters of a species.
func (c *Config) Species(s animals.Species) *animals.Params {
	if s == animals.Carnivore {
		return &c.Carnivore
	}
	return &c.Herbivore
}

// ParamSet returns copies of both species' parameters. The copies are what
// a simulation shares among its animals, so later edits to c do not reach a
// running simulation.
func (c *Config) ParamSet() animals.ParamSet {
	h, carn := c.Herbivore, c.Carnivore
	return animals.ParamSet{&h, &carn}
}

// FodderSet returns the fodder parameters for every terrain.
func (c *Config) FodderSet() landscape.FodderSet {
	var fs landscape.FodderSet
	fs[landscape.Jungle] = c.Landscape.Jungle
	fs[landscape.Savannah] = c.Landscape.Savannah
	return fs
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
