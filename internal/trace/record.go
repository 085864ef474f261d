package trace

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/dshills/pubsub/internal/pubsub"
)

// Record is one traced registry event.
type Record struct {
	Time     time.Time        `cbor:"1,keyasint"`
	Kind     pubsub.EventKind `cbor:"2,keyasint"`
	Channel  string           `cbor:"3,keyasint,omitempty"`
	Subject  string           `cbor:"4,keyasint,omitempty"`
	HandleID string           `cbor:"5,keyasint,omitempty"`
	Args     int              `cbor:"6,keyasint,omitempty"`
	Matched  int              `cbor:"7,keyasint,omitempty"`
	Removed  int              `cbor:"8,keyasint,omitempty"`
	Duration time.Duration    `cbor:"9,keyasint,omitempty"`
	Err      string           `cbor:"10,keyasint,omitempty"`
}

// FromEvent converts a registry event to a record.
func FromEvent(e pubsub.Event) Record {
	return Record{
		Time:     e.Time,
		Kind:     e.Kind,
		Channel:  e.Channel,
		Subject:  e.Subject,
		HandleID: e.HandleID,
		Args:     e.Args,
		Matched:  e.Matched,
		Removed:  e.Removed,
		Duration: e.Duration,
		Err:      e.Err,
	}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// Encode encodes a record to CBOR.
func Encode(rec Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

// Decode decodes a CBOR record.
func Decode(data []byte) (Record, error) {
	var rec Record
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// NewEncoder returns a record encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a record decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// Format renders a record on one line.
func Format(rec Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-11s %s",
		rec.Time.UTC().Format("2006-01-02T15:04:05.000000Z"), rec.Kind, rec.Channel)

	switch rec.Kind {
	case pubsub.EventSubscribe:
		fmt.Fprintf(&b, " id=%s", rec.HandleID)
	case pubsub.EventUnsubscribe:
		fmt.Fprintf(&b, " removed=%d", rec.Removed)
	case pubsub.EventPublish:
		fmt.Fprintf(&b, " args=%d matched=%d", rec.Args, rec.Matched)
	case pubsub.EventDeliver:
		fmt.Fprintf(&b, " -> %s id=%s took=%s", rec.Subject, rec.HandleID, rec.Duration)
	case pubsub.EventFailure:
		fmt.Fprintf(&b, " -> %s id=%s err=%q", rec.Subject, rec.HandleID, rec.Err)
	}
	return b.String()
}
