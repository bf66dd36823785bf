package display

import (
	"fmt"
	"io"
	"os"
)

// Console is the non-TTY fallback renderer: one summary line per redraw.
type Console struct {
	w io.Writer
}

func NewConsole() *Console {
	return &Console{w: os.Stdout}
}

// NewConsoleWriter writes to the given writer instead of stdout.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Render(snapshot []float64, status Status) error {
	latest := 0.0
	if len(snapshot) > 0 {
		latest = snapshot[len(snapshot)-1]
	}

	_, err := fmt.Fprintf(c.w, "%s value=%.2f rate=%.1f/s window=%d/%d samples=%d dropped=%d status=%d\n",
		status.Port, latest, status.SampleRate, status.WindowFill, status.WindowCap,
		status.Samples, status.DecodeFailures, status.StatusLines)

	return err
}

func (c *Console) Close() error {
	return nil
}
