// Package closeenvelope is the codec for ["CLOSE", <subid>], the client's
// request to end a subscription.
package closeenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "CLOSE"

// T is a CLOSE message.
type T struct {
	ID *subscription.Id
}

var _ codec.Envelope = &T{}

// NewFrom creates a CLOSE for the given subscription id.
func NewFrom(id *subscription.Id) (env *T) { return &T{ID: id} }

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// Marshal appends the CLOSE to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.ID.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of a CLOSE.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) != 1 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "CLOSE needs 1 element, got %d", len(elems),
		)
		return
	}
	var subId string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	env = &T{ID: subscription.NewId(subId)}
	return
}
