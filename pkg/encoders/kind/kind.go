// Package kind is a codec for the nostr event kind number, with the
// well-known kinds this module works with.
package kind

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
)

// T wraps an event kind.
type T struct {
	K uint16
}

// New creates a kind.T from any integer type.
func New[V int | uint16 | int32 | int64](k V) (t *T) { return &T{K: uint16(k)} }

// Well-known kinds.
var (
	ProfileMetadata      = New(0)
	TextNote             = New(1)
	FollowList           = New(3)
	FileChunk            = New(1064)
	FileMetadata         = New(1065)
	ClientAuthentication = New(22242)
)

// Int returns the kind as an int.
func (k *T) Int() (i int) { return int(k.K) }

// I64 returns the kind as an int64.
func (k *T) I64() (i int64) { return int64(k.K) }

// Equal reports whether two kinds are the same number.
func (k *T) Equal(other *T) (same bool) {
	return k != nil && other != nil && k.K == other.K
}

// Marshal appends the decimal kind to dst.
func (k *T) Marshal(dst []byte) (b []byte) {
	return text.AppendInt(dst, k.I64())
}
