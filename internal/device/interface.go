package device

import (
	"context"
	"io"
)

// SampleSource yields a lazy, effectively infinite sequence of decoded
// samples. Next blocks until a sample is available, the context is
// cancelled, or the underlying device fails, in which case the sequence
// terminates with a device_disconnected error. Malformed input never
// terminates the sequence.
type SampleSource interface {
	Next(ctx context.Context) (float64, error)
	Stats() Stats
	Close() error
}

// Port is the narrow serial handle the reader consumes. tarm/serial's
// *Port satisfies it; tests substitute an in-memory implementation.
type Port interface {
	io.ReadCloser
	Flush() error
}

// Stats is a snapshot of acquisition counters.
type Stats struct {
	LinesRead      uint64
	Samples        uint64
	DecodeFailures uint64
	StatusLines    uint64
}
