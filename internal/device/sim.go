package device

import (
	"context"
	"math"
	"time"
)

// Beats per minute of the synthetic waveform.
const simHeartRate = 60.0

// Simulator is a SampleSource that produces a synthetic EKG-like waveform
// at a fixed rate, for running without hardware. Values stay in the same
// 12-bit range a real ADC frame would carry.
type Simulator struct {
	ticker *time.Ticker
	rate   int
	tick   uint64
	stats  Stats
}

func NewSimulator(rate int) *Simulator {
	return &Simulator{
		ticker: time.NewTicker(time.Second / time.Duration(rate)),
		rate:   rate,
	}
}

func (s *Simulator) Next(ctx context.Context) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, context.Cause(ctx)
	case <-s.ticker.C:
	}

	sample := s.waveform(s.tick)
	s.tick++
	s.stats.LinesRead++
	s.stats.Samples++

	return sample, nil
}

// waveform is a crude single-lead shape: a flat baseline with a small
// P-like bump, a narrow tall QRS spike and a broad T-like bump per beat.
func (s *Simulator) waveform(tick uint64) float64 {
	samplesPerBeat := float64(s.rate) * 60.0 / simHeartRate
	phase := math.Mod(float64(tick), samplesPerBeat) / samplesPerBeat

	const baseline = 2048.0
	value := baseline

	value += 120 * bump(phase, 0.18, 0.04)   // P
	value += 1400 * bump(phase, 0.40, 0.012) // QRS
	value -= 250 * bump(phase, 0.37, 0.01)   // Q dip
	value += 300 * bump(phase, 0.62, 0.06)   // T

	return clamp(value, adcMin, adcMax)
}

// bump is a gaussian centered at c with width w, evaluated at x in [0,1).
func bump(x, c, w float64) float64 {
	d := x - c

	return math.Exp(-(d * d) / (2 * w * w))
}

func (s *Simulator) Stats() Stats {
	return s.stats
}

func (s *Simulator) Close() error {
	s.ticker.Stop()

	return nil
}
