package trace

import (
	"errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/dshills/pubsub/internal/pubsub"
	"github.com/dshills/pubsub/internal/pubsub/pattern"
)

// Filter selects records. Zero fields match everything.
type Filter struct {
	// Kind keeps only records of this kind.
	Kind pubsub.EventKind

	// Channel is a pattern, using the default wildcard, matched against a
	// record's channel and subject.
	Channel string
}

// Reader streams records from a trace.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	kind    pubsub.EventKind
	channel *pattern.Pattern
}

// matches returns true if rec satisfies every filter criterion.
func (r *Reader) matches(rec Record) bool {
	if r.kind != 0 && rec.Kind != r.kind {
		return false
	}
	if r.channel != nil {
		if !r.channel.Match(rec.Channel) && (rec.Subject == "" || !r.channel.Match(rec.Subject)) {
			return false
		}
	}
	return true
}

// NewReader opens a trace file and reads every record.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a trace file and reads the records matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewStreamReader(f, filter)
	r.closer = f
	return r, nil
}

// NewStreamReader reads records matching filter from r.
func NewStreamReader(r io.Reader, filter Filter) *Reader {
	reader := &Reader{
		decoder: NewDecoder(r),
		kind:    filter.Kind,
	}
	if filter.Channel != "" {
		reader.channel = pattern.Compile(filter.Channel, pattern.DefaultWildcard)
	}
	return reader
}

// Next returns the next matching record, or io.EOF at the end of the trace.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, err
		}
		if r.matches(rec) {
			return rec, nil
		}
	}
}

// All reads every remaining matching record.
func (r *Reader) All() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
