package telemetry

import (
	"context"
	"time"
)

// Collector records per-tick acquisition statistics. It stores operational
// counters only, never the waveform itself.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Snapshot is one stats-tick observation of the acquisition session.
type Snapshot struct {
	Timestamp      time.Time
	SampleRate     float64
	Samples        uint64
	DecodeFailures uint64
	StatusLines    uint64
	WindowFill     int
}
