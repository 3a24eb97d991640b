// Package closedenvelope is the codec for ["CLOSED", <subid>, <message>],
// the relay's notice that it ended a subscription.
package closedenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "CLOSED"

// T is a CLOSED message.
type T struct {
	Subscription *subscription.Id
	Reason       []byte
}

var _ codec.Envelope = &T{}

// NewFrom creates a CLOSED for the given subscription id.
func NewFrom(id *subscription.Id, reason []byte) (env *T) {
	return &T{Subscription: id, Reason: reason}
}

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// ReasonString returns the message string.
func (env *T) ReasonString() (s string) { return string(env.Reason) }

// Marshal appends the CLOSED to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, ',')
	dst = text.AppendQuote(dst, env.Reason, text.NostrEscape)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of a CLOSED.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) != 2 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "CLOSED needs 2 elements, got %d", len(elems),
		)
		return
	}
	var subId, msg string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	if msg, err = envelopes.String(elems[1]); err != nil {
		return
	}
	env = &T{Subscription: subscription.NewId(subId), Reason: []byte(msg)}
	return
}
