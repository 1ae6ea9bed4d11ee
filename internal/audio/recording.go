// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// StartRecording begins writing the raw input stream to a WAV file. The
// encoder and sample buffer are allocated here, before the callback ever
// touches them.
func (e *Engine) StartRecording(filename string) error {
	if e.isRecording.Load() {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	e.wavEncoder = wav.NewEncoder(file, int(e.cfg.Audio.SampleRate),
		e.cfg.Recording.BitDepth, e.cfg.Audio.Channels, 1)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.cfg.Audio.Channels,
			SampleRate:  int(e.cfg.Audio.SampleRate),
		},
		Data: make([]int, e.cfg.Audio.FramesPerBuffer*e.cfg.Audio.Channels),
	}

	e.isRecording.Store(true)
	return nil
}

// StopRecording finalizes the WAV file. Safe to call when not recording.
func (e *Engine) StopRecording() error {
	if !e.isRecording.Load() {
		return nil
	}
	e.isRecording.Store(false)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}
	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}
	return nil
}

// Close stops recording and the input stream.
func (e *Engine) Close() error {
	if e.isRecording.Load() {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}
	return e.StopInputStream()
}
