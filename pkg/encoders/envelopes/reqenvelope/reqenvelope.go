// Package reqenvelope is the codec for ["REQ", <subid>, <filter>...].
package reqenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "REQ"

// T is a REQ message.
type T struct {
	Subscription *subscription.Id
	Filters      *filters.T
}

var _ codec.Envelope = &T{}

// NewFrom creates a REQ from a subscription id and filters.
func NewFrom(id *subscription.Id, ff *filters.T) (env *T) {
	return &T{Subscription: id, Filters: ff}
}

// Label returns the wire discriminant.
func (env *T) Label() (l string) { return L }

// Marshal appends the REQ to dst.
func (env *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, ',')
	dst = env.Filters.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// Parse decodes the elements after the label of a REQ.
func Parse(elems []json.RawMessage) (env *T, err error) {
	if len(elems) < 2 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "REQ needs a subscription id and at least one filter",
		)
		return
	}
	var subId string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	ff := filters.New()
	for _, e := range elems[1:] {
		f := filter.New()
		if err = f.Unmarshal(e); err != nil {
			err = &envelopes.DecodeError{Raw: e, Err: err}
			return
		}
		ff.F = append(ff.F, f)
	}
	env = &T{Subscription: subscription.NewId(subId), Filters: ff}
	return
}
