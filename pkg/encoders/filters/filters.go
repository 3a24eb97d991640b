// Package filters is a list of filter.F as carried by REQ and COUNT, which
// match an event when any element matches.
package filters

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
)

// T is an ordered list of filters.
type T struct {
	F []*filter.F
}

// New creates a filters.T from the given filters.
func New(ff ...*filter.F) (t *T) { return &T{F: ff} }

// Len returns the number of filters.
func (t *T) Len() (n int) {
	if t == nil {
		return
	}
	return len(t.F)
}

// Match reports whether any filter in the list matches the event.
func (t *T) Match(ev *event.E) (match bool) {
	for _, f := range t.F {
		if f.Match(ev) {
			return true
		}
	}
	return
}

// Marshal appends each filter as a separate JSON object to dst, comma
// separated, as they appear inside a REQ envelope.
func (t *T) Marshal(dst []byte) (b []byte) {
	for i, f := range t.F {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = f.Marshal(dst)
	}
	return dst
}
