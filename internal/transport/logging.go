// SPDX-License-Identifier: MIT
package transport

import (
	applog "audioviz/internal/log"
)

// LoggingTransport implements Transport by logging snapshot levels at debug
// level. Useful for wiring checks without a network consumer.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a summary of the payload. Never fails.
func (lt *LoggingTransport) Send(data any) error {
	if snap, ok := data.(*Snapshot); ok {
		applog.Debugf("LoggingTransport: rms=%.4f peak=%.4f bins=%d bands=%d",
			snap.RMS, snap.Peak, len(snap.Spectrum), len(snap.Bands))
		return nil
	}
	applog.Debugf("LoggingTransport: %T", data)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
