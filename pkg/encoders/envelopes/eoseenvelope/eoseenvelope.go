// Package eoseenvelope is the codec for ["EOSE", <subid>], the relay's
// end-of-stored-events marker.
package eoseenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "EOSE"

// T is an EOSE message.
type T struct {
	Subscription *subscription.Id
}

var _ codec.Envelope = &T{}

// NewFrom creates an EOSE for the given subscription id.
func NewFrom(id *subscription.Id) (env *T) { return &T{Subscription: id} }

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// Marshal appends the EOSE to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of an EOSE.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) != 1 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "EOSE needs 1 element, got %d", len(elems),
		)
		return
	}
	var subId string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	env = &T{Subscription: subscription.NewId(subId)}
	return
}
