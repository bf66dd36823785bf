package display

import (
	"fmt"
	"sync"

	"github.com/ekgmon/ekgmon/internal/errors"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// TUI renders the sample window as a braille line chart in the terminal,
// redrawn in place. Closing the display (q, Escape or Ctrl-C in the chart)
// fires the onClose callback; the driver loop treats that as a normal stop.
type TUI struct {
	mu        sync.Mutex
	header    *widgets.Paragraph
	plot      *widgets.Plot
	onClose   func()
	closed    bool
	closeOnce sync.Once
}

func NewTUI(onClose func()) (*TUI, error) {
	if err := ui.Init(); err != nil {
		return nil, errors.New().Wrap(ErrInitFailed, err)
	}

	header := widgets.NewParagraph()
	header.Title = "ekgmon"
	header.Text = "waiting for samples... (q to quit)"

	plot := widgets.NewPlot()
	plot.Marker = widgets.MarkerBraille
	plot.AxesColor = ui.ColorWhite
	plot.LineColors = []ui.Color{ui.ColorGreen}
	plot.ShowAxes = true

	t := &TUI{
		header:  header,
		plot:    plot,
		onClose: onClose,
	}
	t.layout(ui.TerminalDimensions())
	ui.Render(t.header)

	go t.pollEvents()

	return t, nil
}

func (t *TUI) layout(width, height int) {
	t.header.SetRect(0, 0, width, 3)
	t.plot.SetRect(0, 3, width, height)
}

func (t *TUI) pollEvents() {
	for e := range ui.PollEvents() {
		switch e.ID {
		case "q", "<C-c>", "<Escape>":
			if t.onClose != nil {
				t.onClose()
			}

			return
		case "<Resize>":
			payload, ok := e.Payload.(ui.Resize)
			if !ok {
				continue
			}
			t.mu.Lock()
			if !t.closed {
				t.layout(payload.Width, payload.Height)
				ui.Render(t.header, t.plot)
			}
			t.mu.Unlock()
		}
	}
}

// Render replaces the previous frame with the given snapshot. The snapshot
// is trimmed to the points that fit the chart width and rebased to the
// window minimum so the trace uses the full vertical range.
func (t *TUI) Render(snapshot []float64, status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.New().New(ErrClosed)
	}

	t.header.Text = statusLine(status)

	// A line needs two points.
	if len(snapshot) < 2 {
		ui.Render(t.header)
		return nil
	}

	// Braille cells hold two points per column.
	if maxPoints := t.plot.Inner.Dx() * 2; maxPoints >= 2 && len(snapshot) > maxPoints {
		snapshot = snapshot[len(snapshot)-maxPoints:]
	}

	lo, hi := minMax(snapshot)
	data := make([]float64, len(snapshot))
	for i, v := range snapshot {
		data[i] = v - lo
	}
	t.plot.Data = [][]float64{data}
	t.plot.MaxVal = hi - lo
	if t.plot.MaxVal == 0 {
		t.plot.MaxVal = 1
	}

	ui.Render(t.header, t.plot)

	return nil
}

func (t *TUI) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.closeOnce.Do(ui.Close)

	return nil
}

func statusLine(status Status) string {
	return fmt.Sprintf("%s | %.1f samples/s | window %d/%d | samples %d | dropped %d | status lines %d | q to quit",
		status.Port, status.SampleRate, status.WindowFill, status.WindowCap,
		status.Samples, status.DecodeFailures, status.StatusLines)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	return lo, hi
}
