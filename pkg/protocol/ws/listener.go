package ws

import (
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// Hooks is a capability record observing one client's protocol flow. Any
// hook may be nil. Hooks run on the connection's own goroutines; panics are
// recovered and logged so one buggy listener cannot break protocol flow.
type Hooks struct {
	// SentMessage fires after a frame is written to the relay.
	SentMessage func(msg []byte)
	// GotMessage fires for every inbound frame after dispatch.
	GotMessage func(msg []byte)
	// ConnectionClosed fires once when the connection ends.
	ConnectionClosed func()
}

// AddListener registers h for this client's traffic.
func (r *Client) AddListener(h *Hooks) {
	r.listenMutex.Lock()
	defer r.listenMutex.Unlock()
	r.listeners = append(r.listeners, h)
}

// RemoveListener unregisters h.
func (r *Client) RemoveListener(h *Hooks) {
	r.listenMutex.Lock()
	defer r.listenMutex.Unlock()
	for i, l := range r.listeners {
		if l == h {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// copyListeners snapshots the list so hooks may add or remove listeners
// while a notification is in flight.
func (r *Client) copyListeners() (ls []*Hooks) {
	r.listenMutex.Lock()
	defer r.listenMutex.Unlock()
	ls = make([]*Hooks, len(r.listeners))
	copy(ls, r.listeners)
	return
}

func guard(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.E.F("listener panicked: %v", rec)
		}
	}()
	fn()
}

func (r *Client) notifySent(msg []byte) {
	for _, l := range r.copyListeners() {
		if l.SentMessage != nil {
			guard(func() { l.SentMessage(msg) })
		}
	}
}

func (r *Client) notifyGot(msg []byte) {
	for _, l := range r.copyListeners() {
		if l.GotMessage != nil {
			guard(func() { l.GotMessage(msg) })
		}
	}
}

func (r *Client) notifyClosed() {
	for _, l := range r.copyListeners() {
		if l.ConnectionClosed != nil {
			guard(func() { l.ConnectionClosed() })
		}
	}
}
