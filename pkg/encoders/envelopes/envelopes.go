// Package envelopes identifies the JSON array framing shared by every
// client↔relay protocol message and defines the decode failure type that
// carries the raw frame for operator diagnostics.
package envelopes

import (
	"encoding/json"
	"fmt"
)

// DecodeError is returned when a frame does not match the protocol shape.
// Raw carries the offending frame verbatim so it can be logged next to the
// failure.
type DecodeError struct {
	Raw []byte
	Err error
}

// Error implements the error interface.
func (d *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v\nraw: %s", d.Err, d.Raw)
}

// Unwrap exposes the underlying cause.
func (d *DecodeError) Unwrap() error { return d.Err }

// Errorf creates a DecodeError for the given frame.
func Errorf(raw []byte, format string, a ...any) (err error) {
	return &DecodeError{Raw: raw, Err: fmt.Errorf(format, a...)}
}

// Identify parses a frame far enough to learn its discriminant. It returns
// the label and the remaining elements for the per-envelope Parse functions.
func Identify(b []byte) (t string, elems []json.RawMessage, err error) {
	var arr []json.RawMessage
	if err = json.Unmarshal(b, &arr); err != nil {
		err = &DecodeError{Raw: b, Err: err}
		return
	}
	if len(arr) == 0 {
		err = Errorf(b, "empty array")
		return
	}
	if err = json.Unmarshal(arr[0], &t); err != nil {
		err = &DecodeError{Raw: b, Err: err}
		return
	}
	elems = arr[1:]
	return
}

// String decodes one element as a JSON string.
func String(elem json.RawMessage) (s string, err error) {
	if err = json.Unmarshal(elem, &s); err != nil {
		err = &DecodeError{Raw: elem, Err: err}
	}
	return
}

// Bool decodes one element as a JSON bool.
func Bool(elem json.RawMessage) (v bool, err error) {
	if err = json.Unmarshal(elem, &v); err != nil {
		err = &DecodeError{Raw: elem, Err: err}
	}
	return
}

// Join renders the elements back into one JSON array body, for error
// reporting on shape mismatches.
func Join(elems []json.RawMessage) (b []byte) {
	b = append(b, '[')
	for i, e := range elems {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, e...)
	}
	b = append(b, ']')
	return
}
