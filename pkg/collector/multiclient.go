// Package collector replicates a user's social graph — their own events,
// events from accounts they follow, and referenced events and profiles —
// from a set of source relays to a single destination relay.
package collector

import (
	"lukechampine.com/frand"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// MultiClient queries a set of relays as one logical source, trying them in
// shuffled order so no single relay carries all the load. Errors from any
// single relay are logged and the next candidate is tried; they are never
// fatal.
type MultiClient struct {
	Clients []*ws.Client
}

// NewMultiClient wraps the given relay clients.
func NewMultiClient(clients []*ws.Client) (m *MultiClient) {
	return &MultiClient{Clients: clients}
}

// shuffled returns the clients in a fresh random order.
func (m *MultiClient) shuffled() (cs []*ws.Client) {
	cs = make([]*ws.Client, len(m.Clients))
	copy(cs, m.Clients)
	frand.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
	return
}

// GetEvents fetches the given event ids from wherever they can be found.
// Each relay is asked only for the ids still missing; the search stops when
// nothing remains or the relays are exhausted. Returns what was found,
// keyed by id.
func (m *MultiClient) GetEvents(c context.T, ids []string) (
	found map[string]*event.E,
) {
	found = make(map[string]*event.E, len(ids))
	remaining := make([]string, len(ids))
	copy(remaining, ids)
	for _, cl := range m.shuffled() {
		if len(remaining) == 0 {
			break
		}
		lim := uint(len(remaining))
		f := &filter.F{Ids: tag.New(remaining...), Limit: &lim}
		for _, ev := range cl.QuerySimple(c, f) {
			found[ev.IdString()] = ev
		}
		var still []string
		for _, id := range remaining {
			if _, have := found[id]; !have {
				still = append(still, id)
			}
		}
		remaining = still
	}
	if len(remaining) > 0 {
		log.D.F(
			"%d of %d referenced events were not found on any source",
			len(remaining), len(ids),
		)
	}
	return
}

// GetProfile returns the first kind 0 event found for pubkey, or nil.
func (m *MultiClient) GetProfile(c context.T, pubkey string) (ev *event.E) {
	return m.GetLatest(c, pubkey, kind.ProfileMetadata)
}

// GetLatest returns the newest event of the given kind authored by pubkey
// from the first relay that has one, or nil.
func (m *MultiClient) GetLatest(
	c context.T, pubkey string, k *kind.T,
) (ev *event.E) {
	f := &filter.F{
		Authors: tag.New(pubkey),
		Kinds:   kinds.New(k),
	}
	for _, cl := range m.shuffled() {
		if ev = cl.QueryOne(c, f); ev != nil {
			return
		}
		log.D.F("{%s} has no kind %d for %s", cl.URL, k.Int(), pubkey)
	}
	return
}
