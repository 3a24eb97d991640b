// Package eventid wraps the 32 byte SHA-256 event identifier.
package eventid

import (
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
)

// T is an event id in binary form.
type T struct {
	b []byte
}

// NewWith wraps existing id bytes.
func NewWith(b []byte) (t *T) { return &T{b: b} }

// FromString decodes a 64 character hex event id.
func FromString(s string) (t *T, err error) {
	var b []byte
	if b, err = hex.DecExact(s, sha256.Size); err != nil {
		return
	}
	t = &T{b: b}
	return
}

// Bytes returns the raw 32 bytes.
func (t *T) Bytes() (b []byte) { return t.b }

// String returns the lowercase hex form.
func (t *T) String() (s string) { return hex.Enc(t.b) }
