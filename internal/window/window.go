// Package window provides the bounded FIFO buffer of recent samples that
// backs the live display. A Window is owned by a single goroutine; it does
// no locking of its own.
package window

import "github.com/ekgmon/ekgmon/internal/errors"

const ErrInvalidCapacity = errors.ErrorCode("window_invalid_capacity")

// Window is a fixed-capacity ring buffer of samples. Pushing into a full
// window evicts the single oldest sample.
type Window struct {
	buf  []float64
	head int
	size int
}

func New(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, errors.New().WithData(ErrInvalidCapacity, capacity)
	}

	return &Window{buf: make([]float64, capacity)}, nil
}

// Push appends one sample, evicting the oldest first when full.
func (w *Window) Push(sample float64) {
	w.buf[(w.head+w.size)%len(w.buf)] = sample
	if w.size < len(w.buf) {
		w.size++
		return
	}
	w.head = (w.head + 1) % len(w.buf)
}

// Snapshot returns the current contents oldest-first. The returned slice is
// freshly allocated and never aliases the ring.
func (w *Window) Snapshot() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}

	return out
}

func (w *Window) Len() int {
	return w.size
}

func (w *Window) Cap() int {
	return len(w.buf)
}

// Last returns the most recently pushed sample, if any.
func (w *Window) Last() (float64, bool) {
	if w.size == 0 {
		return 0, false
	}

	return w.buf[(w.head+w.size-1)%len(w.buf)], true
}
