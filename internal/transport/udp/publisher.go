// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// Publisher periodically fetches analyzer snapshots, packs them into a
// binary format, and sends them over UDP. It runs in its own goroutine
// between Start and Stop, on the best-effort consumer side.
type Publisher struct {
	sender   *Sender
	analyzer *analysis.Analyzer
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	sequenceNum uint32

	// Pre-allocated buffers so each tick packs without reallocating.
	magBuffer    []float64
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher polling the analyzer at the given
// interval. Invalid intervals default to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, analyzer *analysis.Analyzer) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("udp publisher: analyzer cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDP Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	bins := analyzer.BinCount()
	applog.Infof("UDP Publisher: Initializing (Interval: %s, Bins: %d)", interval, bins)

	return &Publisher{
		sender:       sender,
		analyzer:     analyzer,
		interval:     interval,
		magBuffer:    make([]float64, bins),
		f32Buffer:    make([]float32, bins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins periodic publishing. Safe to call repeatedly; subsequent
// calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP Publisher: Start called but already running.")
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
		applog.Infof("UDP Publisher: Goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop gracefully terminates the publishing goroutine. Idempotent.
func (p *Publisher) Stop() error {
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
	applog.Infof("UDP Publisher: Stopped.")
	return nil
}

/*
Packet structure (BigEndian):

	| Field           | Type      | Size (Bytes)     |
	|-----------------|-----------|------------------|
	| Sequence Number | uint32    | 4                |
	| Timestamp       | int64     | 8 (ns since epoch)|
	| RMS Level       | float32   | 4                |
	| Peak Level      | float32   | 4                |
	| Bin Count       | uint16    | 2                |
	| Spectrum        | []float32 | BinCount * 4     |
*/
func (p *Publisher) buildAndSendPacket() {
	// FrequencyDataInto avoids allocating a spectrum copy per tick.
	if err := p.analyzer.FrequencyDataInto(p.magBuffer); err != nil {
		applog.Errorf("UDP Publisher: Error reading spectrum: %v", err)
		return
	}
	for i, v := range p.magBuffer {
		p.f32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	rms := float32(p.analyzer.RMSLevel())
	peak := float32(p.analyzer.PeakLevel())
	binCount := uint16(len(p.f32Buffer))

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, rms)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, peak)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, binCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		applog.Errorf("UDP Publisher: Error packing packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("UDP Publisher: Send failed for packet %d: %v", p.sequenceNum, err)
		return
	}
	applog.Debugf("UDP Publisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}
