// Package timestamp is a codec for the unix-seconds timestamps used in
// events and filters.
package timestamp

import (
	"time"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
)

// T wraps a unix-seconds timestamp.
type T struct {
	V int64
}

// New creates a timestamp from a unix-seconds count.
func New[V int | int64 | uint32](v V) (t *T) { return &T{V: int64(v)} }

// Now returns the current time as a timestamp.
func Now() (t *T) { return &T{V: time.Now().Unix()} }

// FromTime converts a time.Time.
func FromTime(tm time.Time) (t *T) { return &T{V: tm.Unix()} }

// I64 returns the unix-seconds count.
func (t *T) I64() (i int64) {
	if t == nil {
		return
	}
	return t.V
}

// Time converts to a time.Time.
func (t *T) Time() (tm time.Time) { return time.Unix(t.I64(), 0) }

// Marshal appends the decimal timestamp to dst.
func (t *T) Marshal(dst []byte) (b []byte) {
	return text.AppendInt(dst, t.I64())
}
