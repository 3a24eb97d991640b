package ws

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/normalize"
)

func makeKeyPair(t *testing.T) (sign *p256k.Signer) {
	t.Helper()
	sign = &p256k.Signer{}
	require.NoError(t, sign.Generate())
	return
}

func signedNote(t *testing.T, content string) (ev *event.E) {
	t.Helper()
	sign := makeKeyPair(t)
	ev = &event.E{
		Kind:      kind.TextNote,
		Content:   []byte(content),
		CreatedAt: timestamp.New(1672068534),
		Tags:      tags.New(tag.New("foo", "bar")),
	}
	require.NoError(t, ev.Sign(sign))
	return
}

func mustConnect(t *testing.T, url string) (r *Client) {
	t.Helper()
	r, err := Connect(context.Bg(), url)
	require.NoError(t, err)
	return
}

func newWebsocketServer(handler func(*websocket.Conn)) *httptest.Server {
	return httptest.NewServer(
		&websocket.Server{
			Handshake: anyOriginHandshake,
			Handler:   handler,
		},
	)
}

// anyOriginHandshake skips the origin check of golang.org/x/net/websocket;
// a nostr client sends no origin header.
var anyOriginHandshake = func(conf *websocket.Config, r *http.Request) error {
	return nil
}

func discardingHandler(conn *websocket.Conn) {
	_, _ = io.ReadAll(conn) // discard all input
}

func parseEventMessage(t *testing.T, raw []json.RawMessage) *event.E {
	t.Helper()
	require.GreaterOrEqual(t, len(raw), 2)
	var typ string
	require.NoError(t, json.Unmarshal(raw[0], &typ))
	require.Equal(t, "EVENT", typ)
	ev := event.New()
	require.NoError(t, ev.Unmarshal(raw[1]))
	return ev
}

func TestPublish(t *testing.T) {
	textNote := signedNote(t, "hello")

	// fake relay server that verifies the submission and acks it
	published := make(chan *event.E, 1)
	srv := newWebsocketServer(
		func(conn *websocket.Conn) {
			var raw []json.RawMessage
			require.NoError(t, websocket.JSON.Receive(conn, &raw))
			got := parseEventMessage(t, raw)
			published <- got
			res := []any{"OK", textNote.IdString(), true, ""}
			require.NoError(t, websocket.JSON.Send(conn, res))
			discardingHandler(conn)
		},
	)
	defer srv.Close()

	r := mustConnect(t, srv.URL)
	defer r.Close()
	res, err := r.Publish(context.Bg(), textNote)
	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
	select {
	case got := <-published:
		assert.Equal(t, textNote.Serialize(), got.Serialize())
	default:
		t.Fatal("fake relay server saw no event")
	}
}

func TestPublishRejected(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newWebsocketServer(
		func(conn *websocket.Conn) {
			var raw []json.RawMessage
			require.NoError(t, websocket.JSON.Receive(conn, &raw))
			res := []any{"OK", textNote.IdString(), false, "blocked: not today"}
			_ = websocket.JSON.Send(conn, res)
			discardingHandler(conn)
		},
	)
	defer srv.Close()

	r := mustConnect(t, srv.URL)
	defer r.Close()
	_, err := r.Publish(context.Bg(), textNote)
	require.Error(t, err)
	var rejected *PublishRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "blocked: not today", rejected.Reason)
}

func TestPublishConnectionClosed(t *testing.T) {
	textNote := signedNote(t, "hello")
	srv := newWebsocketServer(
		func(conn *websocket.Conn) {
			// hang up without answering
			conn.Close()
		},
	)
	defer srv.Close()

	r := mustConnect(t, srv.URL)
	defer r.Close()
	time.Sleep(time.Millisecond)
	_, err := r.Publish(context.Bg(), textNote)
	assert.Error(t, err)
}

func TestConnectContextCanceled(t *testing.T) {
	srv := newWebsocketServer(discardingHandler)
	defer srv.Close()

	ctx, cancel := context.Cancel(context.Bg())
	cancel() // make ctx expired
	_, err := Connect(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectWithOrigin(t *testing.T) {
	// the default handshake of golang.org/x/net/websocket requires origin
	srv := httptest.NewServer(websocket.Handler(discardingHandler))
	defer srv.Close()

	r := NewClient(
		context.Bg(), string(normalize.URL(srv.URL)),
		WithRequestHeader(http.Header{"Origin": {"https://example.com"}}),
	)
	ctx, cancel := context.Timeout(context.Bg(), 3*time.Second)
	defer cancel()
	err := r.ConnectWithTLS(ctx, nil)
	assert.NoError(t, err)
	r.Close()
}

func TestWriteBeforeConnectFails(t *testing.T) {
	r := NewClient(context.Bg(), "ws://127.0.0.1:1")
	err := <-r.Write([]byte(`["CLOSE","1"]`))
	assert.ErrorIs(t, err, ErrConnectionNotOpen)
}
