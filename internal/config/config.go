// Package config loads and persists the glowsync configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/glowsync/internal/engine"
)

// Config is the full on-disk configuration: the core sync tuning plus the
// collaborator settings (device endpoint, monitor selection).
type Config struct {
	NumLEDs              int     `yaml:"num_leds"`
	TransitionSteps      int     `yaml:"transition_steps"`
	TransitionDelayMs    int     `yaml:"transition_delay_ms"`
	FrameDelayMs         int     `yaml:"frame_delay_ms"`
	SampleStep           int     `yaml:"sample_step"`
	ColorChangeThreshold float64 `yaml:"color_change_threshold"`
	BrightnessFactor     float64 `yaml:"brightness_factor"`
	SaturationFactor     float64 `yaml:"saturation_factor"`
	DebounceDurationMs   int     `yaml:"debounce_duration_ms"`

	OpenRGBHost  string `yaml:"openrgb_host"`
	OpenRGBPort  int    `yaml:"openrgb_port"`
	DeviceName   string `yaml:"device_name"`
	MonitorIndex int    `yaml:"monitor_index"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		NumLEDs:              5,
		TransitionSteps:      10,
		TransitionDelayMs:    15,
		FrameDelayMs:         100,
		SampleStep:           10,
		ColorChangeThreshold: 0.05,
		BrightnessFactor:     5.0,
		SaturationFactor:     4.0,
		DebounceDurationMs:   500,
		OpenRGBHost:          "localhost",
		OpenRGBPort:          6742,
		DeviceName:           "G213",
		MonitorIndex:         0,
	}
}

// DefaultPath places the config under the user config dir, falling back to
// the working directory when the platform offers none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "glowsync.yaml"
	}
	return filepath.Join(dir, "glowsync", "config.yaml")
}

// Load reads the file at path. A missing file is not an error: the defaults
// are written out as a starter config and returned.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c := Default()
		if err := Save(path, c); err != nil {
			return c, err
		}
		return c, nil
	}
	if err != nil {
		return Default(), err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Default(), err
	}
	return c.Normalize(), nil
}

// Save writes the config as YAML, creating parent directories as needed.
func Save(path string, c Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Normalize clamps out-of-range values back to their defaults so invalid
// file contents can never violate the engine's invariants.
func (c Config) Normalize() Config {
	d := Default()
	if c.NumLEDs <= 0 {
		c.NumLEDs = d.NumLEDs
	}
	if c.SampleStep < 1 {
		c.SampleStep = d.SampleStep
	}
	if c.ColorChangeThreshold < 0 || c.ColorChangeThreshold > 1 {
		c.ColorChangeThreshold = d.ColorChangeThreshold
	}
	if c.BrightnessFactor < 0 {
		c.BrightnessFactor = d.BrightnessFactor
	}
	if c.SaturationFactor < 0 {
		c.SaturationFactor = d.SaturationFactor
	}
	if c.TransitionSteps < 0 {
		c.TransitionSteps = d.TransitionSteps
	}
	if c.TransitionDelayMs < 0 {
		c.TransitionDelayMs = d.TransitionDelayMs
	}
	if c.FrameDelayMs <= 0 {
		c.FrameDelayMs = d.FrameDelayMs
	}
	if c.DebounceDurationMs < 0 {
		c.DebounceDurationMs = d.DebounceDurationMs
	}
	if c.OpenRGBHost == "" {
		c.OpenRGBHost = d.OpenRGBHost
	}
	if c.OpenRGBPort <= 0 || c.OpenRGBPort > 65535 {
		c.OpenRGBPort = d.OpenRGBPort
	}
	if c.MonitorIndex < 0 {
		c.MonitorIndex = d.MonitorIndex
	}
	return c
}

// Sync extracts the engine's per-session tuning.
func (c Config) Sync() engine.Config {
	return engine.Config{
		NumLEDs:              c.NumLEDs,
		SampleStep:           c.SampleStep,
		ColorChangeThreshold: c.ColorChangeThreshold,
		BrightnessFactor:     c.BrightnessFactor,
		SaturationFactor:     c.SaturationFactor,
		Debounce:             time.Duration(c.DebounceDurationMs) * time.Millisecond,
		FrameDelay:           time.Duration(c.FrameDelayMs) * time.Millisecond,
		TransitionSteps:      c.TransitionSteps,
		TransitionDelay:      time.Duration(c.TransitionDelayMs) * time.Millisecond,
	}
}
