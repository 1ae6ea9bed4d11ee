// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"audioviz/internal/analysis"
	"audioviz/pkg/utils"
)

func TestSnapshotPublisherPublish(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.ModeWaveform)
	a.SetSmoothingTimeConstant(0)
	a.PushSamples(utils.GenerateComplexWave(a.WindowSize(), 44100))

	mock := &utils.MockTransport{}
	p, err := NewSnapshotPublisher(time.Second, mock, a, 16)
	if err != nil {
		t.Fatalf("NewSnapshotPublisher: %v", err)
	}

	p.publish()

	if len(mock.Sent) != 1 {
		t.Fatalf("sent payloads: got %d, want 1", len(mock.Sent))
	}
	snap, ok := mock.Sent[0].(*Snapshot)
	if !ok {
		t.Fatalf("payload type: got %T, want *Snapshot", mock.Sent[0])
	}

	if len(snap.Spectrum) != a.BinCount() {
		t.Errorf("spectrum length: got %d, want %d", len(snap.Spectrum), a.BinCount())
	}
	if len(snap.Bands) != 16 {
		t.Errorf("bands length: got %d, want 16", len(snap.Bands))
	}
	if snap.RMS <= 0 {
		t.Errorf("rms: got %g, want > 0 for a live signal", snap.RMS)
	}
	if snap.Peak <= 0 {
		t.Errorf("peak: got %g, want > 0 for a live signal", snap.Peak)
	}

	// Each snapshot owns its slices; mutating one must not affect the next.
	snap.Spectrum[0] = 42
	p.publish()
	next := mock.Sent[1].(*Snapshot)
	if next.Spectrum[0] == 42 {
		t.Error("snapshots share spectrum backing storage")
	}
}

func TestSnapshotPublisherConstructorValidation(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.ModeWaveform)
	mock := &utils.MockTransport{}

	if _, err := NewSnapshotPublisher(time.Second, nil, a, 8); err == nil {
		t.Error("expected error for nil transport")
	}
	if _, err := NewSnapshotPublisher(time.Second, mock, nil, 8); err == nil {
		t.Error("expected error for nil analyzer")
	}

	// Invalid interval and band count fall back to defaults instead of failing.
	p, err := NewSnapshotPublisher(-1, mock, a, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.interval <= 0 {
		t.Errorf("interval not defaulted: %s", p.interval)
	}
	if p.numBands <= 0 {
		t.Errorf("band count not defaulted: %d", p.numBands)
	}
}

func TestSnapshotPublisherStartStop(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.ModeWaveform)
	mock := &utils.MockTransport{}
	p, err := NewSnapshotPublisher(time.Millisecond, mock, a, 8)
	if err != nil {
		t.Fatal(err)
	}

	p.Start()
	p.Start() // second Start is a no-op
	time.Sleep(10 * time.Millisecond)

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(); err != nil { // idempotent
		t.Fatalf("second Stop: %v", err)
	}

	if len(mock.Sent) == 0 {
		t.Error("publisher never ticked")
	}
}
