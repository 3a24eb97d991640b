// Package eventenvelope is the codec for the two EVENT message forms: the
// client submission ["EVENT", <event>] and the relay result
// ["EVENT", <subscription id>, <event>].
package eventenvelope

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/codec"
)

// L is the label of the envelope.
const L = "EVENT"

// Submission is the client→relay form carrying an event to publish.
type Submission struct {
	Event *event.E
}

var _ codec.Envelope = &Submission{}

// NewSubmissionWith wraps an event for publishing.
func NewSubmissionWith(ev *event.E) (env *Submission) {
	return &Submission{Event: ev}
}

// Label returns the wire discriminant.
func (env *Submission) Label() (l string) { return L }

// Marshal appends ["EVENT", <event>] to dst.
func (env *Submission) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Event.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// Result is the relay→client form carrying a subscription's event.
type Result struct {
	Subscription *subscription.Id
	Event        *event.E
}

var _ codec.Envelope = &Result{}

// NewResultWith wraps an event for delivery on a subscription.
func NewResultWith[V string | []byte](id V, ev *event.E) (env *Result) {
	return &Result{Subscription: subscription.NewId(id), Event: ev}
}

// Label returns the wire discriminant.
func (env *Result) Label() (l string) { return L }

// Marshal appends ["EVENT", <subid>, <event>] to dst.
func (env *Result) Marshal(dst []byte) (b []byte) {
	dst = append(dst, `["`+L+`",`...)
	dst = env.Subscription.Marshal(dst)
	dst = append(dst, ',')
	dst = env.Event.Marshal(dst)
	dst = append(dst, ']')
	return dst
}

// ParseResult decodes the elements after the label of a relay EVENT message.
func ParseResult(elems []json.RawMessage) (env *Result, err error) {
	if len(elems) != 2 {
		err = envelopes.Errorf(
			envelopes.Join(elems), "EVENT from relay needs 2 elements, got %d",
			len(elems),
		)
		return
	}
	var subId string
	if subId, err = envelopes.String(elems[0]); err != nil {
		return
	}
	ev := event.New()
	if err = ev.Unmarshal(elems[1]); err != nil {
		err = &envelopes.DecodeError{Raw: elems[1], Err: err}
		return
	}
	env = &Result{Subscription: subscription.NewId(subId), Event: ev}
	return
}
