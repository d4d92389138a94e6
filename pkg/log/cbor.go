package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// EncOptions returns the CBOR encoding options of the event stream.
// Deterministic map order, definite lengths and RFC 3339 timestamps keep
// logs byte-stable across runs. Other SNAMP payloads, such as stored
// attribute values, derive their modes from these options.
func EncOptions() cbor.EncOptions {
	return cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
}

// DecOptions returns the CBOR decoding options matching EncOptions. They
// accept streams written by older encoders (indefinite lengths, repeated
// keys).
func DecOptions() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
}

// MustModes builds an encoder and decoder mode pair. It panics on invalid
// options and is meant for package-level variables.
func MustModes(enc cbor.EncOptions, dec cbor.DecOptions) (cbor.EncMode, cbor.DecMode) {
	em, err := enc.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoder mode: %v", err))
	}
	dm, err := dec.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor decoder mode: %v", err))
	}
	return em, dm
}

var eventEncMode, eventDecMode = MustModes(EncOptions(), DecOptions())

// EncodeEvent encodes an Event to CBOR.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// NewEncoder returns an event encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventEncMode.NewEncoder(w)
}

// NewDecoder returns an event decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}
