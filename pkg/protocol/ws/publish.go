package ws

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eventenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/reason"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/oneshot"
)

// PublishResult reports a successful publish.
type PublishResult struct {
	// IsDuplicate is set when the relay reported it already had the event.
	IsDuplicate bool
}

// TryPublishResult reports a publish attempt that cannot fail.
type TryPublishResult struct {
	Published   bool
	IsDuplicate bool
	HadError    bool
}

type okReply struct {
	accepted bool
	reason   string
}

// Publish sends an EVENT to the relay and waits for the OK naming the
// event's id. A rejected event fails with a PublishRejectedError carrying
// the relay's message verbatim — except the known quirk where a relay
// answers false with a "duplicate:" message, which counts as success with
// IsDuplicate set. If the connection closes before the OK arrives, the
// error is ErrConnectionClosed.
//
// No timeout is imposed here; bound c to bound the wait.
func (r *Client) Publish(c context.T, ev *event.E) (
	res PublishResult, err error,
) {
	id := ev.IdString()
	done := oneshot.New[okReply]()
	r.okCallbacks.Store(
		id, func(accepted bool, msg string) {
			done.Resolve(okReply{accepted: accepted, reason: msg})
		},
	)
	// the listener must go away on every exit path
	defer r.okCallbacks.Delete(id)

	envb := eventenvelope.NewSubmissionWith(ev).Marshal(nil)
	if err = <-r.Write(envb); err != nil {
		return
	}
	select {
	case <-done.Done():
		reply, _ := done.Result()
		dup := reason.Duplicate.Is(reply.reason)
		if reply.accepted || dup {
			// some relays answer false for duplicates contrary to NIP-01
			res.IsDuplicate = dup
			return
		}
		err = &PublishRejectedError{Reason: reply.reason}
		return
	case <-c.Done():
		if !done.IsResolved() {
			log.D.F("{%s} gave up waiting for OK on %s", r.URL, id)
		}
		err = c.Err()
		return
	case <-r.connectionContext.Done():
		err = ErrConnectionClosed
		return
	}
}

// TryPublish wraps Publish so it never fails: any error is folded into the
// HadError flag.
func (r *Client) TryPublish(c context.T, ev *event.E) (res TryPublishResult) {
	pr, err := r.Publish(c, ev)
	if err != nil {
		log.D.F("{%s} publish %s failed: %v", r.URL, ev.IdString(), err)
		res.HadError = true
		return
	}
	res.Published = true
	res.IsDuplicate = pr.IsDuplicate
	return
}
