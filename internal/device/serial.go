package device

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/ekgmon/ekgmon/internal/logger"
	"github.com/tarm/serial"
)

// Config describes one serial acquisition source.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
	Format      Format
	Channel     int
	// SkipSamples discards the first N decoded samples. Freshly opened
	// ports can carry stale driver buffer remainders.
	SkipSamples int
}

// Reader decodes numeric samples from newline-delimited frames on a serial
// port. It is not safe for concurrent use; the driver loop is its only
// caller.
type Reader struct {
	port      Port
	br        *bufio.Reader
	decode    decoder
	pending   []byte
	batch     []float64
	skip      int
	stats     Stats
	closeOnce sync.Once
	closeErr  error
}

// Open opens the configured serial port and flushes stale buffer contents.
// Failure to open is fatal to the caller.
func Open(cfg Config) (*Reader, error) {
	errFactory := errors.New()

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	if err := port.Flush(); err != nil {
		port.Close()
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	logger.Info().
		Str("port", cfg.Port).
		Int("baud", cfg.Baud).
		Str("format", string(cfg.Format)).
		Msg("Serial port opened")

	return NewReader(port, cfg)
}

// NewReader wraps an already-open port. Tests use it to substitute an
// in-memory port.
func NewReader(port Port, cfg Config) (*Reader, error) {
	decode, err := newDecoder(cfg.Format, cfg.Channel)
	if err != nil {
		port.Close()
		return nil, err
	}

	return &Reader{
		port:   port,
		br:     bufio.NewReader(port),
		decode: decode,
		skip:   cfg.SkipSamples,
	}, nil
}

// Next returns the next decoded sample. Empty lines, status lines and
// malformed lines are consumed without emitting; a failed port read
// terminates the sequence with device_disconnected.
func (r *Reader) Next(ctx context.Context) (float64, error) {
	for {
		if len(r.batch) > 0 {
			sample := r.batch[0]
			r.batch = r.batch[1:]
			if r.skip > 0 {
				r.skip--
				continue
			}
			r.stats.Samples++

			return sample, nil
		}

		line, err := r.readLine(ctx)
		if err != nil {
			return 0, err
		}
		r.stats.LinesRead++

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			r.stats.StatusLines++
			logger.Debug().Str("status", string(line)).Msg("Device status line")
			continue
		}

		batch, err := r.decode(string(line))
		if err != nil {
			r.stats.DecodeFailures++
			logger.Debug().Err(err).Str("line", string(line)).Msg("Discarded undecodable line")
			continue
		}
		r.batch = batch
	}
}

// readLine assembles one newline-terminated line. tarm/serial surfaces a
// timed-out read as io.EOF with whatever bytes arrived; partial chunks are
// accumulated until the newline shows up, and the context is checked
// between timeouts so cancellation latency is bounded by the read timeout.
func (r *Reader) readLine(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		default:
		}

		chunk, err := r.br.ReadBytes('\n')
		r.pending = append(r.pending, chunk...)
		if err == nil {
			line := r.pending
			r.pending = nil

			return line, nil
		}
		if err == io.EOF {
			continue
		}

		return nil, errors.New().Wrap(ErrDisconnected, err)
	}
}

func (r *Reader) Stats() Stats {
	return r.stats
}

// Close releases the port. Safe to call more than once.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		if err := r.port.Close(); err != nil {
			r.closeErr = errors.New().Wrap(ErrCloseFailed, err)
		}
	})

	return r.closeErr
}
