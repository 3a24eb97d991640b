// Package okenvelope is the codec for ["OK", <event id>, <accepted>,
// <message>], the relay's acknowledgment of a published event.
package okenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/eventid"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "OK"

// T is an OK message.
type T struct {
	EventID *eventid.T
	OK      bool
	Reason  []byte
}

var _ codec.Envelope = &T{}

// NewFrom creates an OK message.
func NewFrom(eid *eventid.T, ok bool, reason []byte) (env *T) {
	return &T{EventID: eid, OK: ok, Reason: reason}
}

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// ReasonString returns the message string.
func (env *T) ReasonString() (s string) { return string(env.Reason) }

// Marshal appends the OK to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = text.AppendQuote(dst, env.EventID.Bytes(), hex.EncAppend)
	dst = append(dst, ',')
	dst = text.AppendBool(dst, env.OK)
	dst = append(dst, ',')
	dst = text.AppendQuote(dst, env.Reason, text.NostrEscape)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of an OK.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) != 3 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "OK needs 3 elements, got %d", len(elems),
		)
		return
	}
	var idHex, msg string
	if idHex, err = envelopes.String(elems[0]); err != nil {
		return
	}
	var idb []byte
	if idb, err = hex.DecExact(idHex, sha256.Size); err != nil {
		err = envelopes.Errorf(elems[0], "OK carries malformed event id: %v", err)
		return
	}
	var ok bool
	if ok, err = envelopes.Bool(elems[1]); err != nil {
		return
	}
	if msg, err = envelopes.String(elems[2]); err != nil {
		return
	}
	env = &T{EventID: eventid.NewWith(idb), OK: ok, Reason: []byte(msg)}
	return
}
