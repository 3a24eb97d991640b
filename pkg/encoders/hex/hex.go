// Package hex provides hexadecimal encoding with append-style variants
// matching the codec convention used throughout the encoders.
package hex

import (
	"encoding/hex"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
)

// Enc encodes b as a lowercase hex string.
func Enc(b []byte) (s string) { return hex.EncodeToString(b) }

// EncAppend appends the lowercase hex encoding of src to dst.
func EncAppend(dst, src []byte) (b []byte) {
	return hex.AppendEncode(dst, src)
}

// Dec decodes a hex string into a new byte slice.
func Dec(s string) (b []byte, err error) {
	if b, err = hex.DecodeString(s); err != nil {
		err = errorf.D("hex: invalid encoding '%s': %w", s, err)
	}
	return
}

// DecExact decodes a hex string and requires the decoded form to be exactly
// size bytes long.
func DecExact(s string, size int) (b []byte, err error) {
	if b, err = Dec(s); err != nil {
		return
	}
	if len(b) != size {
		err = errorf.D("hex: need %d bytes, got %d from '%s'", size, len(b), s)
		b = nil
	}
	return
}
