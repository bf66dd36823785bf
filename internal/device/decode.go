package device

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ekgmon/ekgmon/internal/errors"
)

// Format selects the wire grammar the device speaks.
type Format string

const (
	// FormatJSON frames are JSON arrays of per-channel values, e.g.
	// "[517,1891]"; the configured channel index picks the sample.
	FormatJSON Format = "json"
	// FormatHex frames are comma-separated base-16 values, one batch of
	// consecutive samples per line, e.g. "800,801,7FF".
	FormatHex Format = "hex"
	// FormatPlain frames are one decimal number per line.
	FormatPlain Format = "plain"
)

// 12-bit ADC range; hex samples outside it are clamped.
const (
	adcMin = 0
	adcMax = 4095
)

func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatHex, FormatPlain:
		return true
	default:
		return false
	}
}

// decoder turns one line into one or more samples. A non-nil error marks
// the whole line as a decode failure; the caller discards it.
type decoder func(line string) ([]float64, error)

func newDecoder(format Format, channel int) (decoder, error) {
	errFactory := errors.New()

	if channel < 0 {
		return nil, errFactory.WithData(ErrInvalidChannel, channel)
	}

	switch format {
	case FormatJSON:
		return func(line string) ([]float64, error) {
			return decodeJSON(line, channel)
		}, nil
	case FormatHex:
		return decodeHex, nil
	case FormatPlain:
		return decodePlain, nil
	default:
		return nil, errFactory.WithData(ErrInvalidFormat, string(format))
	}
}

func decodeJSON(line string, channel int) ([]float64, error) {
	errFactory := errors.New()

	var frame []float64
	if err := json.Unmarshal([]byte(line), &frame); err != nil {
		return nil, errFactory.Wrap(ErrDecodeFailed, err)
	}
	if channel >= len(frame) {
		return nil, errFactory.WithData(ErrDecodeFailed, map[string]any{
			"channel": channel,
			"arity":   len(frame),
		})
	}

	return []float64{frame[channel]}, nil
}

func decodeHex(line string) ([]float64, error) {
	errFactory := errors.New()

	fields := strings.Split(line, ",")
	samples := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseUint(strings.TrimSpace(field), 16, 32)
		if err != nil {
			return nil, errFactory.Wrap(ErrDecodeFailed, err)
		}
		samples = append(samples, clamp(float64(value), adcMin, adcMax))
	}
	if len(samples) == 0 {
		return nil, errFactory.WithMessage(ErrDecodeFailed, "empty hex batch")
	}

	return samples, nil
}

func decodePlain(line string) ([]float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return nil, errors.New().Wrap(ErrDecodeFailed, err)
	}

	return []float64{value}, nil
}

func clamp(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}
