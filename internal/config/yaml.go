// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"audioviz/pkg/bitint"
)

// LoadConfig loads configuration from a YAML file at path. If path is empty
// it searches default locations ("config.yaml"); if no file is found the
// built-in defaults are used. Environment overrides are applied after the
// file, and the final configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the hard constraints. Analyzer tunables (smoothing,
// sensitivity, gate threshold) are deliberately not rejected here; the
// engine clamps them on write.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > MaxChannels {
		return fmt.Errorf("audio.channels %d outside [1, %d]", c.Audio.Channels, MaxChannels)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2, got %d (next: %d)",
			c.Audio.FramesPerBuffer, bitint.NextPowerOfTwo(c.Audio.FramesPerBuffer))
	}
	if c.Analysis.Mode != "waveform" && c.Analysis.Mode != "spectrum" {
		return fmt.Errorf("analysis.mode must be \"waveform\" or \"spectrum\", got %q", c.Analysis.Mode)
	}
	if c.Analysis.Bands <= 0 {
		return fmt.Errorf("analysis.bands must be positive, got %d", c.Analysis.Bands)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	if c.Transport.PublishInterval <= 0 {
		return fmt.Errorf("transport.publish_interval must be positive, got %s", c.Transport.PublishInterval)
	}
	return nil
}

// applyEnvOverrides applies AUDIOVIZ_* environment variables on top of the
// loaded configuration. Unparsable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("AUDIOVIZ_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_MODE"); ok {
		cfg.Analysis.Mode = val
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("AUDIOVIZ_PUBLISH_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.PublishInterval = dur
		}
	}
}
