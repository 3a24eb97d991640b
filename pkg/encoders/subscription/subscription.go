// Package subscription holds the wire form of a subscription identifier.
package subscription

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
)

// Id is a subscription identifier, a non-empty string of at most 64
// characters on the wire.
type Id struct {
	T []byte
}

// NewId creates a subscription id from a string or byte slice.
func NewId[V string | []byte](s V) (id *Id) { return &Id{T: []byte(s)} }

// String returns the id as a string.
func (id *Id) String() (s string) { return string(id.T) }

// IsValid reports whether the id is non-empty.
func (id *Id) IsValid() (ok bool) { return id != nil && len(id.T) > 0 }

// Marshal appends the id as a JSON string to dst.
func (id *Id) Marshal(dst []byte) (b []byte) {
	return text.AppendQuote(dst, id.T, text.NostrEscape)
}
