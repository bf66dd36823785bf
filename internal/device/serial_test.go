package device_test

import (
	"context"
	"io"
	"testing"

	"github.com/ekgmon/ekgmon/internal/device"
	"github.com/ekgmon/ekgmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort scripts the byte chunks and errors a port read produces. Once
// the script runs out it behaves like an idle port: timed-out reads.
type fakePort struct {
	script []step
	closed int
}

type step struct {
	data []byte
	err  error
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if len(p.script) == 0 {
		return 0, io.EOF
	}
	s := p.script[0]
	p.script = p.script[1:]
	n := copy(buf, s.data)

	return n, s.err
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

func (p *fakePort) Flush() error {
	return nil
}

func newTestReader(t *testing.T, cfg device.Config, script ...step) (*device.Reader, *fakePort) {
	t.Helper()
	port := &fakePort{script: script}
	r, err := device.NewReader(port, cfg)
	require.NoError(t, err)

	return r, port
}

func TestPlainFormatSkipsMalformedLines(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatPlain},
		step{data: []byte("1.0\nabc\n2.0\n")})

	ctx := context.Background()

	first, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, first)

	second, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, second)

	stats := r.Stats()
	assert.Equal(t, uint64(2), stats.Samples)
	assert.Equal(t, uint64(1), stats.DecodeFailures)
	assert.Equal(t, uint64(3), stats.LinesRead)
}

func TestStatusAndEmptyLines(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatPlain},
		step{data: []byte("# device ready\n\r\n42\n")})

	sample, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.0, sample)

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.StatusLines)
	assert.Equal(t, uint64(0), stats.DecodeFailures)
}

func TestJSONFormatSelectsChannel(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatJSON, Channel: 1},
		step{data: []byte("[517,1891]\n[517]\n[1,2]\n")})

	ctx := context.Background()

	first, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1891.0, first)

	// The single-channel frame has no channel 1 and is a decode failure.
	second, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, second)

	assert.Equal(t, uint64(1), r.Stats().DecodeFailures)
}

func TestJSONFormatNonNumeric(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatJSON},
		step{data: []byte("[\"x\"]\n[7]\n")})

	sample, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, sample)
	assert.Equal(t, uint64(1), r.Stats().DecodeFailures)
}

func TestHexFormatDrainsBatchesAndClamps(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatHex},
		step{data: []byte("800,801,FFFF\n")})

	ctx := context.Background()
	want := []float64{2048, 2049, 4095}
	for _, expected := range want {
		sample, err := r.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, sample)
	}

	assert.Equal(t, uint64(3), r.Stats().Samples)
}

func TestSkipSamples(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatPlain, SkipSamples: 2},
		step{data: []byte("1\n2\n3\n")})

	sample, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, sample)
	assert.Equal(t, uint64(1), r.Stats().Samples)
}

func TestPartialLineAccumulation(t *testing.T) {
	// A timed-out read surfaces as io.EOF with whatever bytes arrived.
	r, _ := newTestReader(t, device.Config{Format: device.FormatPlain},
		step{data: []byte("12")},
		step{err: io.EOF},
		step{data: []byte(".5\n")})

	sample, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, sample)
}

func TestDisconnectTerminatesSequence(t *testing.T) {
	r, port := newTestReader(t, device.Config{Format: device.FormatPlain},
		step{data: []byte("1\n")},
		step{err: errors.New().WithMessage(errors.ErrInternal, "read: input/output error")})

	ctx := context.Background()

	sample, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sample)

	_, err = r.Next(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, device.ErrDisconnected))

	require.NoError(t, r.Close())
	assert.Equal(t, 1, port.closed)
}

func TestCloseIsIdempotent(t *testing.T) {
	r, port := newTestReader(t, device.Config{Format: device.FormatPlain})

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, port.closed)
}

func TestNextHonorsCancellation(t *testing.T) {
	r, _ := newTestReader(t, device.Config{Format: device.FormatPlain})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Next(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestInvalidFormatRejected(t *testing.T) {
	port := &fakePort{}
	_, err := device.NewReader(port, device.Config{Format: "csv"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, device.ErrInvalidFormat))
	assert.Equal(t, 1, port.closed)
}

func TestNegativeChannelRejected(t *testing.T) {
	_, err := device.NewReader(&fakePort{}, device.Config{Format: device.FormatJSON, Channel: -1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, device.ErrInvalidChannel))
}
