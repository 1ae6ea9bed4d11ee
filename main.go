// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"audioviz/cmd"
	"audioviz/internal/analysis"
	"audioviz/internal/audio"
	"audioviz/internal/config"
	applog "audioviz/internal/log"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
)

// main wires the engine together in three phases:
//
//  1. Startup (cold path): runtime settings, PortAudio, configuration,
//     one-off commands.
//  2. Concurrent (hot path): the capture callback feeds the analyzer while
//     snapshot publishers poll it for downstream visualization clients.
//  3. Shutdown (cold path): stop publishers, recording, and the stream.
func main() {
	// Limit OS threads: one for the time-critical audio callback, one for
	// publishing and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return // help or version output
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// Analyzer mode is fixed for the lifetime of the stream; smoothing and
	// sensitivity stay tunable.
	mode := analysis.ModeSpectrum
	if cfg.Analysis.Mode == "waveform" {
		mode = analysis.ModeWaveform
	}
	analyzer := analysis.NewAnalyzer(mode)
	analyzer.SetSmoothingTimeConstant(cfg.Analysis.Smoothing)
	analyzer.SetSensitivity(cfg.Analysis.Sensitivity)

	engine, err := audio.NewEngine(cfg, analyzer)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	closables := startPublishers(cfg, analyzer)
	defer func() {
		for _, c := range closables {
			if err := c.Close(); err != nil {
				applog.Errorf("Shutdown: %v", err)
			}
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// From here on the PortAudio callback runs on the real-time path.
	if err := engine.StartInputStream(); err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Recording.Enabled {
		if cfg.Recording.OutputFile == "" {
			cfg.Recording.OutputFile = "recording-" +
				time.Now().UTC().Format("02-01-2006-150405") +
				"." + cfg.Recording.Format
		}
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	applog.Infof("Running. Press Ctrl+C to stop.")
	<-done

	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}

	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}
}

// startPublishers brings up the configured consumer-side publishers and
// returns them for shutdown, most recently started first.
func startPublishers(cfg *config.Config, analyzer *analysis.Analyzer) []interface{ Close() error } {
	var closables []interface{ Close() error }

	if cfg.Transport.WebSocketEnabled {
		wst := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr)
		publisher, err := transport.NewSnapshotPublisher(
			cfg.Transport.PublishInterval, wst, analyzer, cfg.Analysis.Bands)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
		closables = append([]interface{ Close() error }{publisher, wst}, closables...)
	}

	if cfg.Debug && !cfg.Transport.WebSocketEnabled {
		// No outward transport configured; log snapshot levels instead.
		publisher, err := transport.NewSnapshotPublisher(
			cfg.Transport.PublishInterval, transport.NewLoggingTransport(), analyzer, cfg.Analysis.Bands)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
		closables = append([]interface{ Close() error }{publisher}, closables...)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err := udp.NewPublisher(cfg.Transport.PublishInterval, sender, analyzer)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
		closables = append([]interface{ Close() error }{publisher, sender}, closables...)
	}

	return closables
}
