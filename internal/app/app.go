// Package app holds the driver loop: read one sample, push it into the
// window, redraw. The loop is synchronous; cancellation arrives through the
// context and the only blocking call is the bounded serial read.
package app

import (
	"context"
	"time"

	"github.com/ekgmon/ekgmon/internal/device"
	"github.com/ekgmon/ekgmon/internal/display"
	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/ekgmon/ekgmon/internal/logger"
	"github.com/ekgmon/ekgmon/internal/telemetry"
	"github.com/ekgmon/ekgmon/internal/window"
)

const statsInterval = time.Second

type App struct {
	source    device.SampleSource
	window    *window.Window
	renderer  display.Renderer
	collector telemetry.Collector

	port           string
	redrawInterval time.Duration

	rate float64
}

func New(
	source device.SampleSource,
	win *window.Window,
	renderer display.Renderer,
	collector telemetry.Collector,
	port string,
	redrawInterval time.Duration,
) *App {
	return &App{
		source:         source,
		window:         win,
		renderer:       renderer,
		collector:      collector,
		port:           port,
		redrawInterval: redrawInterval,
	}
}

// Run drives the read/push/redraw cycle until the context is cancelled or
// the source fails. The source is released exactly once on every exit path.
// A cancellation cause of display_closed (or a bare cancel from a signal)
// returns nil; a mid-stream device failure returns the coded error.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.source.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close sample source")
		}
	}()

	start := time.Now()
	lastRedraw := time.Time{}
	lastStats := start

	for {
		sample, err := a.source.Next(ctx)
		if err != nil {
			return a.stopCause(ctx, err)
		}

		a.window.Push(sample)

		now := time.Now()
		if lastRedraw.IsZero() || now.Sub(lastRedraw) >= a.redrawInterval {
			if err := a.render(); err != nil {
				return a.stopCause(ctx, err)
			}
			lastRedraw = now
		}

		if now.Sub(lastStats) >= statsInterval {
			a.updateStats(ctx, now.Sub(start))
			lastStats = now
		}
	}
}

// stopCause maps loop-terminating errors to the process outcome. User
// interrupts are a normal stop.
func (a *App) stopCause(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.IsCode(cause, display.ErrClosed), errors.IsCode(err, display.ErrClosed):
		logger.Info().Msg("Display closed")
		return nil
	case errors.Is(err, context.Canceled), errors.Is(cause, context.Canceled):
		logger.Info().Msg("Interrupted")
		return nil
	default:
		return err
	}
}

func (a *App) render() error {
	return a.renderer.Render(a.window.Snapshot(), a.status())
}

func (a *App) status() display.Status {
	stats := a.source.Stats()

	return display.Status{
		Port:           a.port,
		SampleRate:     a.rate,
		Samples:        stats.Samples,
		DecodeFailures: stats.DecodeFailures,
		StatusLines:    stats.StatusLines,
		WindowFill:     a.window.Len(),
		WindowCap:      a.window.Cap(),
	}
}

// updateStats recomputes the sample rate once a second, refreshes the
// display status and records a telemetry snapshot.
func (a *App) updateStats(ctx context.Context, elapsed time.Duration) {
	stats := a.source.Stats()
	if elapsed > 0 {
		a.rate = float64(stats.Samples) / elapsed.Seconds()
	}

	if err := a.render(); err != nil {
		logger.Debug().Err(err).Msg("status refresh failed")
	}

	err := a.collector.Record(ctx, &telemetry.Snapshot{
		Timestamp:      time.Now(),
		SampleRate:     a.rate,
		Samples:        stats.Samples,
		DecodeFailures: stats.DecodeFailures,
		StatusLines:    stats.StatusLines,
		WindowFill:     a.window.Len(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record telemetry snapshot")
	}
}
