// Package relaytest is a scripted in-memory relay for tests. It stores
// events, answers REQ with a configurable per-request cap (to exercise
// paging), acknowledges EVENT submissions with scriptable OK replies,
// answers COUNT, serves a NIP-11 document, and records every frame it
// receives so tests can assert on the wire traffic.
package relaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/closeenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/countenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eoseenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eventenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/okenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/reqenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize: 1024, WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is one scripted relay.
type Server struct {
	httpSrv *httptest.Server

	mu     sync.Mutex
	events []*event.E
	frames [][]byte
	closes []string

	// MaxPerReq caps events returned per REQ regardless of the filter
	// limit; zero means uncapped. Set before connecting clients.
	MaxPerReq int

	// OKFunc scripts the OK reply for submitted events; nil accepts
	// everything. Set before connecting clients.
	OKFunc func(ev *event.E) (accepted bool, reason string)

	// SupportNIP45 makes COUNT work and advertises NIP-45 in the NIP-11
	// document. Set before connecting clients.
	SupportNIP45 bool
}

// New starts a scripted relay on a local listener.
func New() (s *Server) {
	s = &Server{}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(s.handle))
	return
}

// URL returns the relay's websocket URL.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpSrv.URL, "http")
}

// Shutdown stops the relay.
func (s *Server) Shutdown() { s.httpSrv.Close() }

// AddEvents stores events for serving.
func (s *Server) AddEvents(evs ...*event.E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evs...)
}

// StoredEvents returns the relay's stored events.
func (s *Server) StoredEvents() (evs []*event.E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(evs, s.events...)
}

// Frames returns every frame received so far.
func (s *Server) Frames() (fs [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(fs, s.frames...)
}

// CloseFrames returns the subscription ids of the CLOSE frames received.
func (s *Server) CloseFrames() (ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(ids, s.closes...)
}

// WaitForClose polls until a CLOSE for subId arrives or the timeout runs
// out.
func (s *Server) WaitForClose(subId string, timeout time.Duration) (ok bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, id := range s.CloseFrames() {
			if id == subId {
				return true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") == "application/nostr+json" {
		s.handleInfo(w)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.E.F("relaytest: upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	var writeMu sync.Mutex
	send := func(b []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	for {
		_, msg, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		s.mu.Lock()
		s.frames = append(s.frames, msg)
		s.mu.Unlock()
		t, elems, ierr := envelopes.Identify(msg)
		if ierr != nil {
			log.E.F("relaytest: unparseable frame: %v", ierr)
			continue
		}
		switch t {
		case reqenvelope.L:
			env, perr := reqenvelope.Parse(elems)
			if perr != nil {
				continue
			}
			for _, ev := range s.matching(env.Filters) {
				send(eventenvelope.NewResultWith(env.Subscription.T, ev).Marshal(nil))
			}
			send(eoseenvelope.NewFrom(env.Subscription).Marshal(nil))
		case closeenvelope.L:
			env, perr := closeenvelope.Parse(elems)
			if perr != nil {
				continue
			}
			s.mu.Lock()
			s.closes = append(s.closes, env.ID.String())
			s.mu.Unlock()
		case eventenvelope.L:
			ev := event.New()
			if len(elems) != 1 || ev.Unmarshal(elems[0]) != nil {
				continue
			}
			accepted, reply := true, ""
			if s.OKFunc != nil {
				accepted, reply = s.OKFunc(ev)
			}
			if accepted {
				s.AddEvents(ev)
			}
			send(okenvelope.NewFrom(ev.EventId(), accepted, []byte(reply)).Marshal(nil))
		case countenvelope.L:
			env, perr := countenvelope.ParseRequest(elems)
			if perr != nil || !s.SupportNIP45 {
				continue
			}
			n := int64(len(s.matchingUncapped(env.Filters)))
			send(countenvelope.NewResponse(env.Subscription, n).Marshal(nil))
		}
	}
}

func (s *Server) handleInfo(w http.ResponseWriter) {
	nips := []int{1, 11}
	if s.SupportNIP45 {
		nips = append(nips, 45)
	}
	w.Header().Set("Content-Type", "application/nostr+json")
	_ = json.NewEncoder(w).Encode(
		map[string]any{
			"name":           "relaytest",
			"supported_nips": nips,
		},
	)
}

func (s *Server) matchingUncapped(ff *filters.T) (out []*event.E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ff.Match(ev) {
			out = append(out, ev)
		}
	}
	return
}

// matching selects stored events for a REQ, newest first, honoring the
// filter limit and the server cap.
func (s *Server) matching(ff *filters.T) (out []*event.E) {
	out = s.matchingUncapped(ff)
	sort.Sort(event.S(out))
	lim := len(out)
	for _, f := range ff.F {
		if f.Limit != nil && int(*f.Limit) < lim {
			lim = int(*f.Limit)
		}
	}
	if s.MaxPerReq > 0 && s.MaxPerReq < lim {
		lim = s.MaxPerReq
	}
	return out[:lim]
}

// SubIdOf extracts the subscription id of a captured REQ or COUNT frame,
// or empty when the frame is something else.
func SubIdOf(frame []byte) (subId string) {
	t, elems, err := envelopes.Identify(frame)
	if err != nil || len(elems) == 0 {
		return
	}
	if t != reqenvelope.L && t != countenvelope.L {
		return
	}
	var id string
	if id, err = envelopes.String(elems[0]); err != nil {
		return
	}
	return id
}
