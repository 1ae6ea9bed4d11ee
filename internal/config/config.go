// SPDX-License-Identifier: MIT
// Package config defines the runtime configuration for the analyzer host:
// defaults, YAML loading, environment overrides, and validation.
package config

import "time"

// Boundaries and defaults for the audio host and the analysis engine.
const (
	DefaultChannels        = 2
	DefaultDeviceID        = MinDeviceID // system default device
	DefaultFramesPerBuffer = 512
	DefaultLowLatency      = false
	DefaultSampleRate      = 44100
	DefaultMode            = "spectrum"
	DefaultBands           = 16
	DefaultLogLevel        = "info"

	DefaultRecordingFormat = "wav"
	DefaultBitDepth        = 32

	DefaultWebSocketAddr   = ":8080"
	DefaultPublishInterval = 33 * time.Millisecond // ~30Hz consumer poll

	// Hardware and processing limits.
	MinDeviceID   = -1
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxChannels   = 8
)

// Config holds all runtime options. It is built from defaults, then a YAML
// file, then environment overrides, then command line flags.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`
	Command  string `yaml:"-"` // one-off command ("list"), set by the CLI only

	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture settings for the PortAudio host.
type AudioConfig struct {
	DeviceID        int     `yaml:"device_id"`         // input device index, -1 for default
	Channels        int     `yaml:"channels"`          // 1=mono, 2=stereo
	SampleRate      float64 `yaml:"sample_rate"`       // Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // callback block size
	LowLatency      bool    `yaml:"low_latency"`
	GateEnabled     bool    `yaml:"gate_enabled"`   // noise gate ahead of analysis
	GateThreshold   float64 `yaml:"gate_threshold"` // [0,1], 0=always open
}

// AnalysisConfig holds the analyzer construction and tuning parameters.
// Mode is fixed at construction; smoothing and sensitivity stay runtime-tunable.
type AnalysisConfig struct {
	Mode        string  `yaml:"mode"`        // "waveform" or "spectrum"
	Smoothing   float64 `yaml:"smoothing"`   // spectral EMA factor [0,1]
	Sensitivity float64 `yaml:"sensitivity"` // output multiplier [0,inf)
	Bands       int     `yaml:"bands"`       // band count for published snapshots
}

// RecordingConfig holds WAV capture settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // empty for a timestamped name
	Format     string `yaml:"format"`
	BitDepth   int    `yaml:"bit_depth"`
}

// TransportConfig holds snapshot publishing settings.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddr    string        `yaml:"websocket_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
}

// NewConfig returns a Config populated with defaults. This is the base that
// file, environment, and flag overrides are applied on top of.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			DeviceID:        DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			GateEnabled:     false,
			GateThreshold:   0.001,
		},
		Analysis: AnalysisConfig{
			Mode:        DefaultMode,
			Smoothing:   0.8,
			Sensitivity: 1.0,
			Bands:       DefaultBands,
		},
		Recording: RecordingConfig{
			Enabled:  false,
			Format:   DefaultRecordingFormat,
			BitDepth: DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketEnabled: true,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			PublishInterval:  DefaultPublishInterval,
		},
	}
}
