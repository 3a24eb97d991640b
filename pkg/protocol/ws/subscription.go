package ws

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/closeenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/countenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/reqenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/fifo"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// Subscription states.
const (
	StateOpen int32 = iota
	StateEoseSeen
	StateClosed
)

// Item is one element of a subscription's stream: an event, or the marker
// that the stored portion of the query is complete and only live events
// follow.
type Item struct {
	Event *event.E
	EOSE  bool
}

// Subscription is a live REQ (or COUNT) on one relay connection.
type Subscription struct {
	id *subscription.Id

	Client  *Client
	Filters *filters.T

	// Stream carries the subscription's events in relay order, with the
	// EOSE marker passed through in place. It is unbounded: a slow consumer
	// costs memory, not data loss. The stream closes when the subscription
	// ends for any reason.
	Stream *fifo.T[Item]

	// EndOfStoredEvents is closed when EOSE arrives.
	EndOfStoredEvents chan struct{}

	// ClosedReason receives the reason of a relay CLOSED message.
	ClosedReason chan string

	countResult chan int64

	// Context is done when the subscription ends.
	Context context.T
	cancel  context.C

	live  atomic.Bool
	eosed atomic.Bool
	state atomic.Int32
}

// GetID returns the subscription id.
func (sub *Subscription) GetID() string { return sub.id.String() }

// State returns the current lifecycle state.
func (sub *Subscription) State() int32 { return sub.state.Load() }

// Receive returns the next stream item, blocking until one arrives, the
// subscription ends (ok false) or c is done (ok false).
func (sub *Subscription) Receive(c context.T) (item Item, ok bool) {
	return sub.Stream.Receive(c)
}

func (sub *Subscription) dispatchEvent(ev *event.E) {
	if !sub.live.Load() {
		return
	}
	if err := sub.Stream.Send(Item{Event: ev}); err != nil {
		log.T.F("event for ended subscription %s dropped", sub.GetID())
	}
}

func (sub *Subscription) dispatchEose() {
	if sub.eosed.CompareAndSwap(false, true) {
		sub.state.CompareAndSwap(StateOpen, StateEoseSeen)
		_ = sub.Stream.Send(Item{EOSE: true})
		close(sub.EndOfStoredEvents)
	}
}

func (sub *Subscription) dispatchCount(count int64) {
	select {
	case sub.countResult <- count:
	default:
	}
}

// handleClosed processes a relay CLOSED message. live is cleared before
// unsub, so no CLOSE frame goes back to the relay.
func (sub *Subscription) handleClosed(reason string) {
	select {
	case sub.ClosedReason <- reason:
	default:
	}
	sub.live.Store(false)
	sub.unsub(errorf.D("CLOSED received: %s", reason))
}

// Unsub closes the subscription, sending CLOSE to the relay as in NIP-01.
// Idempotent.
func (sub *Subscription) Unsub() {
	sub.unsub(errors.New("Unsub() called"))
}

// unsub ends the subscription: cancels its context, sends CLOSE if the
// relay still considers it live, closes the stream and removes it from the
// registry.
func (sub *Subscription) unsub(err error) {
	sub.cancel(err)
	sub.state.Store(StateClosed)
	if sub.live.CompareAndSwap(true, false) {
		sub.sendClose()
	}
	sub.Stream.Close()
	sub.Client.Subscriptions.Delete(sub.id.String())
}

// sendClose just sends a CLOSE message. You probably want Unsub instead.
func (sub *Subscription) sendClose() {
	if sub.Client.IsConnected() {
		closeb := closeenvelope.NewFrom(sub.id).Marshal(nil)
		<-sub.Client.Write(closeb)
	}
}

// Fire sends the REQ to the relay.
func (sub *Subscription) Fire() (err error) {
	reqb := reqenvelope.NewFrom(sub.id, sub.Filters).Marshal(nil)
	sub.live.Store(true)
	if err = <-sub.Client.Write(reqb); err != nil {
		err = errorf.D("failed to write REQ: %w", err)
		sub.cancel(err)
		return
	}
	return
}

// FireCount sends the COUNT request to the relay.
func (sub *Subscription) FireCount() (err error) {
	countb := countenvelope.NewRequest(sub.id, sub.Filters).Marshal(nil)
	sub.live.Store(true)
	if err = <-sub.Client.Write(countb); err != nil {
		err = errorf.D("failed to write COUNT: %w", err)
		sub.cancel(err)
		return
	}
	return
}

// PrepareSubscription creates a subscription with the next id on this
// connection, but doesn't fire it. Remember to Unsub, or cancel c.
func (r *Client) PrepareSubscription(
	c context.T, ff *filters.T,
) (sub *Subscription) {
	current := r.subCounter.Add(1)
	ctx, cancel := context.Cause(c)
	sub = &Subscription{
		id:                subscription.NewId(strconv.FormatInt(current, 10)),
		Client:            r,
		Filters:           ff,
		Stream:            fifo.New[Item](),
		EndOfStoredEvents: make(chan struct{}),
		ClosedReason:      make(chan string, 1),
		countResult:       make(chan int64, 1),
		Context:           ctx,
		cancel:            cancel,
	}
	r.Subscriptions.Store(sub.id.String(), sub)
	// end the subscription when its context is canceled for any reason
	go func() {
		<-ctx.Done()
		sub.unsub(context.GetCause(ctx))
	}()
	return
}

// Subscribe sends a REQ to the relay. Events and the EOSE marker arrive on
// sub.Stream. The subscription closes when c is canceled, the relay sends
// CLOSED, the connection drops, or Unsub is called.
func (r *Client) Subscribe(c context.T, ff *filters.T) (
	sub *Subscription, err error,
) {
	sub = r.PrepareSubscription(c, ff)
	if r.Connection == nil {
		sub.unsub(ErrConnectionNotOpen)
		return nil, errorf.D("not connected to %s", r.URL)
	}
	if err = sub.Fire(); err != nil {
		sub.unsub(err)
		return nil, errorf.D(
			"couldn't subscribe to %v at %s: %w", ff, r.URL, err,
		)
	}
	return
}
