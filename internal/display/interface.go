package display

import "github.com/ekgmon/ekgmon/internal/errors"

const (
	ErrInitFailed = errors.ErrorCode("display_init_failed")
	// ErrClosed marks the user closing the chart. It is a normal
	// termination trigger, not a failure.
	ErrClosed = errors.ErrorCode("display_closed")
)

// Status carries the header line shown above the chart.
type Status struct {
	Port           string
	SampleRate     float64
	Samples        uint64
	DecodeFailures uint64
	StatusLines    uint64
	WindowFill     int
	WindowCap      int
}

// Renderer draws one persistent chart. Each Render call fully replaces the
// previous frame; cadence is driven by the caller.
type Renderer interface {
	Render(snapshot []float64, status Status) error
	Close() error
}
