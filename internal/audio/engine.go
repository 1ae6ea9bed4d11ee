// SPDX-License-Identifier: MIT
/*
Package audio hosts the PortAudio capture side of the analyzer:
- Real-time input stream driving analysis.Analyzer.PushBlock
- Branchless noise gate ahead of analysis
- WAV recording with atomic state management

The stream callback is the producer context: it uses pre-allocated buffers
only, never logs, and never blocks beyond the analyzer's short spectrum
mutex.
*/
package audio

import (
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"audioviz/internal/analysis"
	"audioviz/internal/config"
	applog "audioviz/internal/log"
)

// int32 sample to [-1.0, 1.0) float64.
const sampleNorm = 1.0 / float64(0x80000000)

// Engine owns the input stream and feeds captured audio into the analyzer.
type Engine struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer

	// Input handling. Both buffers are sized frames x channels at
	// construction; the callback never allocates.
	inputBuffer  []int32
	floatBuffer  []float64
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold int32 // absolute amplitude threshold

	// Recording state and buffers.
	isRecording atomic.Bool
	wavEncoder  *wav.Encoder
	outputFile  *os.File
	sampleBuf   *audio.IntBuffer
}

// NewEngine creates an engine bound to the configured input device. The
// analyzer must be constructed by the caller; the engine only pushes samples
// into it and never calls back out.
func NewEngine(cfg *config.Config, analyzer *analysis.Analyzer) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.DeviceID)
	if err != nil {
		return nil, err
	}

	inputSize := cfg.Audio.FramesPerBuffer * cfg.Audio.Channels

	e := &Engine{
		cfg:           cfg,
		analyzer:      analyzer,
		inputBuffer:   make([]int32, inputSize),
		floatBuffer:   make([]float64, inputSize),
		inputDevice:   inputDevice,
		gateEnabled:   cfg.Audio.GateEnabled,
		gateThreshold: thresholdToInt32(cfg.Audio.GateThreshold),
	}

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	applog.Infof("Audio: Engine ready (Device: %s, %d ch @ %.0f Hz, %d frames/buffer)",
		inputDevice.Name, cfg.Audio.Channels, cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)

	return e, nil
}

// StartInputStream opens and starts the PortAudio input stream. From the
// first callback on, processInputStream runs on the real-time path.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.cfg.Audio.FramesPerBuffer,
		SampleRate:      e.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}
	return nil
}

// StopInputStream stops and closes the input stream if running.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}
		if err := e.inputStream.Close(); err != nil {
			return err
		}
		e.inputStream = nil
	}
	return nil
}

// processInputStream is the capture callback. Performance critical:
// pre-allocated buffers only, no allocation, no logging.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	if e.isRecording.Load() && e.wavEncoder != nil {
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]
		// Encoder errors cannot be surfaced here; recording carries on and
		// the file is finalized on StopRecording.
		_ = e.wavEncoder.Write(e.sampleBuf)
	}
}

// processBuffer runs the gate and forwards the block to the analyzer.
// Hot path: branchless gate, no allocations.
func (e *Engine) processBuffer(buffer []int32) {
	if e.gateEnabled {
		var maxAmplitude int32
		for i := range buffer {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		if maxAmplitude <= e.gateThreshold {
			return // gate closed, skip analysis for this block
		}
	}

	for i, sample := range buffer {
		e.floatBuffer[i] = float64(sample) * sampleNorm
	}
	e.analyzer.PushBlock(e.floatBuffer[:len(buffer)], e.cfg.Audio.Channels)
}

func thresholdToInt32(threshold float64) int32 {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return int32(threshold * float64(math.MaxInt32))
}
