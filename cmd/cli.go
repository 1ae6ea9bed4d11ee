// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"audioviz/internal/config"
	"audioviz/pkg/build"
)

// ParseArgs builds the final configuration: defaults, then the YAML file
// (and environment overrides) via LoadConfig, then command line flags on
// top.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetInfo()

	var (
		configPath  string
		options     *config.Config
		flagOptions = config.NewConfig()
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio analysis engine for visualization clients",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, loaded, flagOptions)
			options = loaded
			return options.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&flagOptions.Audio.DeviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices")
	rootCmd.PersistentFlags().IntVarP(&flagOptions.Audio.Channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&flagOptions.Audio.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&flagOptions.Audio.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per callback buffer (power of 2, affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&flagOptions.Audio.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Analysis configuration
	rootCmd.PersistentFlags().StringVarP(&flagOptions.Analysis.Mode, "mode", "m", config.DefaultMode,
		"Analysis mode: waveform (coarse, low-latency) or spectrum (fine)")
	rootCmd.PersistentFlags().Float64Var(&flagOptions.Analysis.Smoothing, "smoothing", flagOptions.Analysis.Smoothing,
		"Spectral smoothing time constant [0,1]")
	rootCmd.PersistentFlags().Float64Var(&flagOptions.Analysis.Sensitivity, "sensitivity", flagOptions.Analysis.Sensitivity,
		"Output sensitivity multiplier")
	rootCmd.PersistentFlags().IntVar(&flagOptions.Analysis.Bands, "bands", config.DefaultBands,
		"Number of frequency bands in published snapshots")

	// Recording configuration
	rootCmd.PersistentFlags().BoolVarP(&flagOptions.Recording.Enabled, "record", "r", false,
		"Record the raw input stream to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&flagOptions.Recording.OutputFile, "output", "o", "",
		"Recording file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Debug configuration
	rootCmd.PersistentFlags().BoolVarP(&flagOptions.Debug, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// applyFlagOverrides copies the values of flags the user actually set onto
// the loaded configuration, so flags beat both the file and the environment.
func applyFlagOverrides(cmd *cobra.Command, loaded, flags *config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("device") {
		loaded.Audio.DeviceID = flags.Audio.DeviceID
	}
	if set("channels") {
		loaded.Audio.Channels = flags.Audio.Channels
	}
	if set("sample-rate") {
		loaded.Audio.SampleRate = flags.Audio.SampleRate
	}
	if set("frames-per-buffer") {
		loaded.Audio.FramesPerBuffer = flags.Audio.FramesPerBuffer
	}
	if set("low-latency") {
		loaded.Audio.LowLatency = flags.Audio.LowLatency
	}
	if set("mode") {
		loaded.Analysis.Mode = flags.Analysis.Mode
	}
	if set("smoothing") {
		loaded.Analysis.Smoothing = flags.Analysis.Smoothing
	}
	if set("sensitivity") {
		loaded.Analysis.Sensitivity = flags.Analysis.Sensitivity
	}
	if set("bands") {
		loaded.Analysis.Bands = flags.Analysis.Bands
	}
	if set("record") {
		loaded.Recording.Enabled = flags.Recording.Enabled
	}
	if set("output") {
		loaded.Recording.OutputFile = flags.Recording.OutputFile
	}
	if set("verbose") {
		loaded.Debug = flags.Debug
		if flags.Debug {
			loaded.LogLevel = "debug"
		}
	}
}
