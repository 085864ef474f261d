// Package trace records registry events to a file and reads them back.
//
// A trace file is a sequence of CBOR-encoded Records with integer keys. The
// Recorder appends to it as a pubsub.Observer; the Reader streams records back
// in write order, optionally filtered by kind and channel:
//
//	rec, err := trace.NewRecorder("pubsub.trace")
//	if err != nil {
//		return err
//	}
//	defer rec.Close()
//	r := pubsub.New(pubsub.WithObserver(rec))
package trace
