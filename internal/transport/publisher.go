// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// SnapshotPublisher periodically polls the analyzer from a best-effort
// consumer goroutine and forwards Snapshot payloads over a Transport. It is
// the only component that bridges the analyzer's read surface to the
// outside; the analyzer itself never calls out.
type SnapshotPublisher struct {
	transport Transport
	analyzer  *analysis.Analyzer
	interval  time.Duration
	numBands  int

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop
}

// NewSnapshotPublisher creates a publisher polling at the given interval.
// Invalid intervals default to 33ms (~30Hz).
func NewSnapshotPublisher(interval time.Duration, transport Transport, analyzer *analysis.Analyzer, numBands int) (*SnapshotPublisher, error) {
	if transport == nil {
		return nil, fmt.Errorf("snapshot publisher: transport cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("snapshot publisher: analyzer cannot be nil")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("SnapshotPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	if numBands <= 0 {
		numBands = 16
	}

	return &SnapshotPublisher{
		transport: transport,
		analyzer:  analyzer,
		interval:  interval,
		numBands:  numBands,
	}, nil
}

// Start launches the polling goroutine. Safe to call repeatedly; subsequent
// calls are no-ops while running.
func (p *SnapshotPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("SnapshotPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("SnapshotPublisher: Started (Interval: %s, Bands: %d)", p.interval, p.numBands)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the polling goroutine to terminate and waits for it.
func (p *SnapshotPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("SnapshotPublisher: Stopped.")
	return nil
}

// publish takes one full snapshot and sends it. Each payload owns fresh
// slices; the transport may hold onto it past this call.
func (p *SnapshotPublisher) publish() {
	snap := &Snapshot{
		Type:     "analysis",
		Spectrum: p.analyzer.FrequencyData(),
		Mirrored: p.analyzer.MirroredFrequencyData(),
		Bands:    p.analyzer.FrequencyBands(p.numBands, 0, p.analyzer.BinCount()),
		RMS:      p.analyzer.RMSLevel(),
		Peak:     p.analyzer.PeakLevel(),
		Dropped:  p.analyzer.DroppedSamples(),
	}

	if err := p.transport.Send(snap); err != nil {
		applog.Errorf("SnapshotPublisher: Error sending snapshot: %v", err)
	}
}

// Close implements io.Closer by stopping the publisher.
func (p *SnapshotPublisher) Close() error {
	return p.Stop()
}
