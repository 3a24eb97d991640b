package ws

import (
	"math"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// QueryEvents subscribes to events matching the given filter. Consume
// sub.Stream; the EOSE marker is passed through as the signal that only live
// events follow. Cancel c or call Unsub to end the query, which sends CLOSE
// to the relay.
func (r *Client) QueryEvents(c context.T, f *filter.F) (
	sub *Subscription, err error,
) {
	return r.Subscribe(c, filters.New(f))
}

// QuerySaved returns a channel yielding every stored event matching f, even
// when the relay caps single responses below the requested limit: each time
// a batch ends with EOSE, the query is reissued with until set just below
// the minimum created_at seen, until a batch collapses to at most one event
// or the filter's limit is reached.
//
// Events are not deduplicated across pages; events sharing the boundary
// timestamp can repeat. The channel closes when the query is exhausted,
// canceled, or the connection drops.
func (r *Client) QuerySaved(c context.T, f *filter.F) (evc event.C) {
	evc = make(event.C)
	go r.pageSaved(c, f, evc)
	return
}

func (r *Client) pageSaved(c context.T, f *filter.F, evc event.C) {
	defer close(evc)
	requested := int64(math.MaxInt64)
	if f.Limit != nil {
		requested = int64(*f.Limit)
	}
	pf := f.Clone()
	var yielded int64
	for {
		sub, err := r.Subscribe(c, filters.New(pf))
		if chk.D(err) {
			return
		}
		var batch int64
		minCreated := int64(math.MaxInt64)
		sawEose := false
		for {
			item, ok := sub.Receive(c)
			if !ok {
				break // CLOSED, connection drop, or consumer canceled
			}
			if item.EOSE {
				sawEose = true
				break
			}
			select {
			case evc <- item.Event:
			case <-c.Done():
				sub.Unsub()
				return
			}
			yielded++
			batch++
			if ca := item.Event.CreatedAt.I64(); ca < minCreated {
				minCreated = ca
			}
			if yielded >= requested {
				queued := sub.Stream.Len()
				if sub.eosed.Load() {
					queued-- // the EOSE marker is still in the stream
				}
				if queued > 0 {
					log.W.F(
						"{%s} relay delivered more than the %d events requested, stopping",
						r.URL, requested,
					)
				}
				sub.Unsub()
				return
			}
		}
		sub.Unsub()
		if !sawEose || batch <= 1 || yielded >= requested {
			return
		}
		pf = pf.Clone()
		pf.Until = timestamp.New(minCreated - 1)
	}
}

// QuerySimple collects QuerySaved into a list.
func (r *Client) QuerySimple(c context.T, f *filter.F) (evs []*event.E) {
	for ev := range r.QuerySaved(c, f) {
		evs = append(evs, ev)
	}
	return
}

// QueryOne returns the first stored event matching f, or nil.
func (r *Client) QueryOne(c context.T, f *filter.F) (ev *event.E) {
	for e := range r.QuerySaved(c, f.WithLimit(1)) {
		ev = e
	}
	return
}

// QueryCount issues a NIP-45 COUNT for the given filters and returns the
// first COUNT response's count. It fails with a ProtocolError if the
// subscription ends without one. Callers should gate this on the relay
// advertising NIP-45; see QueryCountMaybe.
func (r *Client) QueryCount(c context.T, ff ...*filter.F) (
	count int64, err error,
) {
	sub := r.PrepareSubscription(c, filters.New(ff...))
	defer sub.Unsub()
	if r.Connection == nil {
		return 0, ErrConnectionNotOpen
	}
	if err = sub.FireCount(); chk.D(err) {
		return
	}
	select {
	case count = <-sub.countResult:
	case <-sub.Context.Done():
		err = &ProtocolError{Message: "subscription ended without a COUNT response"}
	case <-c.Done():
		err = c.Err()
	}
	return
}

// QueryCountMaybe checks the relay's NIP-11 document and only issues COUNT
// when NIP-45 is advertised; supported is false otherwise and no COUNT is
// sent.
func (r *Client) QueryCountMaybe(c context.T, ff ...*filter.F) (
	count int64, supported bool, err error,
) {
	info, ierr := r.Info(c)
	if ierr != nil || info == nil || !info.HasNIP(45) {
		return
	}
	supported = true
	count, err = r.QueryCount(c, ff...)
	return
}
