// Package config loads and saves the anemometer's persisted settings:
// reflector geometry, oversampling, the measurement period, the
// enable/dump-error toggles, and the calibrated per-channel pulse
// offsets. Grounded on the original firmware's sensor_config_t/
// anemometer_config_t and its save_system_cfg_to_file, reworked onto
// gopkg.in/yaml.v3 with a CRC-32 trailer instead of a raw memory image.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the anemometer's persisted configuration.
type Config struct {
	Pitch        float64    `yaml:"pitch"`
	Height       float64    `yaml:"height"`
	Oversampling int        `yaml:"oversampling"`
	DataPeriodMs int        `yaml:"data_period_ms"`
	IsEnable     bool       `yaml:"is_enable"`
	IsDumpError  bool       `yaml:"is_dump_error"`
	PulseOffset  [4]float64 `yaml:"pulse_offset"`
	FilterName   string     `yaml:"filter"`
}

// Default matches the original firmware's HEIGHT/PITCH compile-time
// constants and its default oversampling/data period.
func Default() Config {
	return Config{
		Pitch:        0.04,
		Height:       0.05,
		Oversampling: 4,
		DataPeriodMs: 250,
		IsEnable:     true,
		IsDumpError:  false,
		FilterName:   "bp40k10k1order",
	}
}

// Load reads and CRC-verifies a config file written by Save. A missing
// file is not an error: it returns Default().
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	payload, ok := verifyCRC32(raw)
	if !ok {
		return Config{}, fmt.Errorf("config %s: checksum mismatch", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save serializes cfg as YAML with a CRC-32 trailer and writes it to
// path, the counterpart of save_system_cfg_to_file.
func Save(path string, cfg Config) error {
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, appendCRC32(payload), 0o644)
}
