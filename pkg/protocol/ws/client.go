package ws

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/closedenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/countenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eoseenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eventenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/noticeenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/okenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/relayinfo"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/normalize"
)

// Client is a connection to one nostr relay, multiplexing any number of
// concurrent subscriptions over a single websocket.
type Client struct {
	closeMutex sync.Mutex

	URL           string
	requestHeader http.Header // e.g. for origin header

	Connection    *Connection
	Subscriptions *xsync.MapOf[string, *Subscription]

	// subCounter allocates this connection's subscription ids; each id is
	// the decimal form of a strictly increasing counter.
	subCounter atomic.Int64

	ConnectionError         error
	connectionContext       context.T // canceled when the connection closes
	connectionContextCancel context.C

	okCallbacks *xsync.MapOf[string, func(ok bool, reason string)]
	writeQueue  chan writeRequest

	listenMutex sync.Mutex
	listeners   []*Hooks

	infoMutex sync.Mutex
	info      *relayinfo.T

	// AssumeValid skips verifying signatures on events received from this
	// relay.
	AssumeValid bool
}

type writeRequest struct {
	msg    []byte
	answer chan error
}

// NewClient returns an unconnected client. The context, when canceled,
// closes the relay connection.
func NewClient(c context.T, url string, opts ...Option) (r *Client) {
	ctx, cancel := context.Cause(c)
	r = &Client{
		URL:                     string(normalize.URL(url)),
		connectionContext:       ctx,
		connectionContextCancel: cancel,
		Subscriptions:           xsync.NewMapOf[string, *Subscription](),
		okCallbacks:             xsync.NewMapOf[string, func(bool, string)](),
		writeQueue:              make(chan writeRequest),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return
}

// Connect returns a client connected to url. The given context is only used
// during the connection phase; the ongoing connection lives on a background
// context and ends with Close.
func Connect(c context.T, url string, opts ...Option) (r *Client, err error) {
	r = NewClient(context.Bg(), url, opts...)
	if err = r.ConnectWithTLS(c, nil); err != nil {
		return nil, err
	}
	return
}

// Option configures a Client at creation.
type Option interface {
	apply(*Client)
}

// WithRequestHeader sets the HTTP request header of the websocket preflight
// request.
type WithRequestHeader http.Header

func (h WithRequestHeader) apply(r *Client) { r.requestHeader = http.Header(h) }

// WithAssumeValid skips signature verification for events from this relay.
type WithAssumeValid bool

func (v WithAssumeValid) apply(r *Client) { r.AssumeValid = bool(v) }

// String just returns the relay URL.
func (r *Client) String() string { return r.URL }

// Context retrieves the context that is associated with this relay
// connection; it is done when the connection closes.
func (r *Client) Context() context.T { return r.connectionContext }

// IsConnected returns true if the connection to this relay is active.
func (r *Client) IsConnected() bool { return r.connectionContext.Err() == nil }

// ConnectWithTLS establishes the websocket, optionally with a special TLS
// configuration, and starts the writer and reader loops.
func (r *Client) ConnectWithTLS(c context.T, tlsConfig *tls.Config) (err error) {
	if r.connectionContext == nil || r.Subscriptions == nil {
		return errorf.E("client must be initialized with NewClient()")
	}
	if r.URL == "" {
		return errorf.E("invalid relay URL '%s'", r.URL)
	}
	var conn *Connection
	if conn, err = NewConnection(c, r.URL, r.requestHeader, tlsConfig); err != nil {
		return errorf.D("error opening websocket to '%s': %w", r.URL, err)
	}
	r.Connection = conn

	// all writes are funneled through one goroutine so outbound frames go
	// out in submission order
	go func() {
		for {
			select {
			case <-r.connectionContext.Done():
				r.teardown()
				return
			case wr := <-r.writeQueue:
				log.T.F("{%s} sending %s", r.URL, wr.msg)
				if werr := conn.WriteMessage(
					r.connectionContext, wr.msg,
				); werr != nil {
					wr.answer <- werr
				} else {
					r.notifySent(wr.msg)
				}
				close(wr.answer)
			}
		}
	}()

	// general message reader loop
	go func() {
		buf := new(bytes.Buffer)
		for {
			buf.Reset()
			if err := conn.ReadMessage(r.connectionContext, buf); err != nil {
				r.ConnectionError = err
				r.close(ErrConnectionClosed)
				return
			}
			message := make([]byte, buf.Len())
			copy(message, buf.Bytes())
			log.T.F("{%s} received %s", r.URL, message)
			if !r.dispatch(message) {
				return
			}
		}
	}()
	return
}

// dispatch routes one inbound frame. It reports false when the frame was
// unrecoverable and the connection has been closed.
func (r *Client) dispatch(message []byte) (ok bool) {
	t, elems, err := envelopes.Identify(message)
	if err != nil {
		// a relay that sends garbage is unrecoverable
		log.E.F("{%s} closing: %v", r.URL, err)
		r.close(err)
		return
	}
	switch t {
	case noticeenvelope.L:
		env, perr := noticeenvelope.Parse(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		log.I.F("NOTICE from %s: '%s'", r.URL, env.Message)
	case eventenvelope.L:
		env, perr := eventenvelope.ParseResult(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		if sub, found := r.Subscriptions.Load(env.Subscription.String()); !found {
			log.D.F(
				"{%s} no subscription with id '%s'", r.URL, env.Subscription,
			)
		} else {
			if !sub.Filters.Match(env.Event) {
				log.D.F(
					"{%s} filter does not match event %s", r.URL,
					env.Event.IdString(),
				)
			} else if !r.AssumeValid && !env.Event.Verify() {
				// a relay may legitimately serve events it did not verify;
				// flag it loudly and keep the stream alive
				log.E.F(
					"{%s} INVALID SIGNATURE on event %s, skipping", r.URL,
					env.Event.IdString(),
				)
			} else {
				sub.dispatchEvent(env.Event)
			}
		}
	case eoseenvelope.L:
		env, perr := eoseenvelope.Parse(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		if sub, found := r.Subscriptions.Load(env.Subscription.String()); found {
			sub.dispatchEose()
		}
	case closedenvelope.L:
		env, perr := closedenvelope.Parse(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		if sub, found := r.Subscriptions.Load(env.Subscription.String()); found {
			// remove before delivery so a local close becomes a no-op
			r.Subscriptions.Delete(env.Subscription.String())
			sub.handleClosed(env.ReasonString())
		}
	case okenvelope.L:
		env, perr := okenvelope.Parse(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		if cb, exist := r.okCallbacks.Load(env.EventID.String()); exist {
			cb(env.OK, env.ReasonString())
		} else {
			log.I.F(
				"{%s} got an unexpected OK message for event %s", r.URL,
				env.EventID,
			)
		}
	case countenvelope.L:
		env, perr := countenvelope.ParseResponse(elems)
		if perr != nil {
			log.E.F("{%s} closing: %v", r.URL, perr)
			r.close(perr)
			return
		}
		if sub, found := r.Subscriptions.Load(env.Subscription.String()); found {
			sub.dispatchCount(env.Count)
		}
	default:
		perr := &ProtocolError{Message: "unexpected discriminant '" + t + "'"}
		log.E.F("{%s} closing: %v\n%s", r.URL, perr, message)
		r.close(perr)
		return
	}
	r.notifyGot(message)
	return true
}

// teardown ends every subscription and drops the socket after the
// connection context is canceled.
func (r *Client) teardown() {
	for _, sub := range r.Subscriptions.Range {
		sub.unsub(
			errorf.D(
				"relay connection closed: %v / %v",
				context.GetCause(r.connectionContext), r.ConnectionError,
			),
		)
	}
	if r.Connection != nil {
		_ = r.Connection.Close()
		r.Connection = nil
	}
	r.notifyClosed()
}

// Write queues an arbitrary message to be sent to the relay. The returned
// channel yields the write error, or closes on success. Writing on a client
// that never connected fails with ErrConnectionNotOpen.
func (r *Client) Write(msg []byte) <-chan error {
	ch := make(chan error, 1)
	if !r.IsConnected() {
		ch <- ErrConnectionClosed
		close(ch)
		return ch
	}
	if r.Connection == nil {
		ch <- ErrConnectionNotOpen
		close(ch)
		return ch
	}
	select {
	case r.writeQueue <- writeRequest{msg: msg, answer: ch}:
	case <-r.connectionContext.Done():
		ch <- ErrConnectionClosed
		close(ch)
	}
	return ch
}

// Info fetches and caches the relay's NIP-11 information document.
func (r *Client) Info(c context.T) (info *relayinfo.T, err error) {
	r.infoMutex.Lock()
	defer r.infoMutex.Unlock()
	if r.info != nil {
		return r.info, nil
	}
	if info, err = relayinfo.Fetch(c, r.URL); chk.D(err) {
		return
	}
	r.info = info
	return
}

// Close closes the relay connection. Idempotent.
func (r *Client) Close() error { return r.close(errorf.D("Close() called")) }

func (r *Client) close(reason error) error {
	r.closeMutex.Lock()
	defer r.closeMutex.Unlock()
	if r.connectionContextCancel == nil {
		return nil // already closed
	}
	r.connectionContextCancel(reason)
	r.connectionContextCancel = nil
	return nil
}
