package trace

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/dshills/pubsub/internal/pubsub"
)

// Recorder appends registry events to a trace. It implements pubsub.Observer
// and is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *cbor.Encoder
	closed  bool
	written int
	lastErr error
}

// NewRecorder opens path for appending, creating it with mode 0644 if it
// doesn't exist.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	rec := NewWriterRecorder(f)
	rec.closer = f
	return rec, nil
}

// NewWriterRecorder records to w. Close does not close w.
func NewWriterRecorder(w io.Writer) *Recorder {
	return &Recorder{
		encoder: NewEncoder(w),
	}
}

// Observe records e. Events after Close are dropped.
func (r *Recorder) Observe(e pubsub.Event) {
	r.Record(FromEvent(e))
}

// Record writes rec. Encoding errors are kept for Err and do not reach the
// registry.
func (r *Recorder) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if err := r.encoder.Encode(rec); err != nil {
		r.lastErr = err
		return
	}
	r.written++
}

// Written returns the number of records written.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Err returns the last write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Close closes the trace file. It is safe to call Close multiple times.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

var _ pubsub.Observer = (*Recorder)(nil)
