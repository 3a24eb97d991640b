// Package noticeenvelope is the codec for ["NOTICE", <message>], the relay's
// human readable free-form message.
package noticeenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "NOTICE"

// T is a NOTICE message.
type T struct {
	Message []byte
}

var _ codec.Envelope = &T{}

// NewFrom creates a NOTICE.
func NewFrom[V string | []byte](msg V) (env *T) { return &T{Message: []byte(msg)} }

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// Marshal appends the NOTICE to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = text.AppendQuote(dst, env.Message, text.NostrEscape)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of a NOTICE.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) != 1 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "NOTICE needs 1 element, got %d", len(elems),
		)
		return
	}
	var msg string
	if msg, err = envelopes.String(elems[0]); err != nil {
		return
	}
	env = &T{Message: []byte(msg)}
	return
}
