// Package countenvelope is the codec for the NIP-45 COUNT pair: the client
// request ["COUNT", <subid>, <filter>...] and the relay response
// ["COUNT", <subid>, {"count": <n>}].
package countenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "COUNT"

// Request is the client→relay form.
type Request struct {
	Subscription *subscription.Id
	Filters      *filters.T
}

var _ codec.Envelope = &Request{}

// NewRequest creates a COUNT request.
func NewRequest(id *subscription.Id, ff *filters.T) (env *Request) {
	return &Request{Subscription: id, Filters: ff}
}

// Label returns the wire discriminant.
func (env *Request) Label() (l string) { return L }

// Marshal appends the COUNT request to dst.
func (env *Request) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, ',')
	dst = env.Filters.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// ParseRequest decodes the elements after the label of a COUNT request.
func ParseRequest(elems []json.RawMessage) (env *Request, err error) {
	if len(elems) < 2 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "COUNT request needs a subscription id and at least one filter",
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
	env = &Request{Subscription: subscription.NewId(subId), Filters: ff}
	return
}

// Response is the relay→client form.
type Response struct {
	Subscription *subscription.Id
	Count        int64
}

var _ codec.Envelope = &Response{}

// NewResponse creates a COUNT response.
func NewResponse(id *subscription.Id, count int64) (env *Response) {
	return &Response{Subscription: id, Count: count}
}

// Label returns the wire discriminant.
func (env *Response) Label() (l string) { return L }

// Marshal appends the COUNT response to dst.
func (env *Response) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, `,{"count":`...)
	dst = text.AppendInt(dst, env.Count)
	dst = append(dst, '}', ']')
	return dst
}

// ParseResponse decodes the elements after the label of a COUNT response.
// The second element must be an object with a numeric count field.
func ParseResponse(elems []json.RawMessage) (env *Response, err error) {
	if len(elems) != 2 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "COUNT response needs 2 elements, got %d",
			len(elems),
		)
		return
	}
	var subId string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	var body struct {
		Count *int64 `json:"count"`
	}
	if err = json.Unmarshal(elems[1], &body); err != nil {
		err = &envelopes.DecodeError{Raw: elems[1], Err: err}
		return
	}
	if body.Count == nil {
		err = envelopes.Errorf(elems[1], "COUNT response carries no count field")
		return
	}
	env = &Response{Subscription: subscription.NewId(subId), Count: *body.Count}
	return
}
