package envelopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/closedenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/closeenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/countenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eoseenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/eventenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/noticeenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/okenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/envelopes/reqenvelope"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/eventid"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filters"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/subscription"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
)

func signedEvent(t *testing.T) (ev *event.E) {
	t.Helper()
	sign := &p256k.Signer{}
	require.NoError(t, sign.Generate())
	ev = &event.E{
		Kind:      kind.TextNote,
		CreatedAt: timestamp.New(1700000000),
		Tags:      tags.New(tag.New("t", "test")),
		Content:   []byte("round \"trip\"\n"),
	}
	require.NoError(t, ev.Sign(sign))
	return
}

func TestEventResultRoundTrip(t *testing.T) {
	ev := signedEvent(t)
	env := eventenvelope.NewResultWith("17", ev)
	wire := env.Marshal(nil)
	label, elems, err := envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, eventenvelope.L, label)
	back, err := eventenvelope.ParseResult(elems)
	require.NoError(t, err)
	assert.Equal(t, "17", back.Subscription.String())
	assert.Equal(t, ev.Serialize(), back.Event.Serialize())
}

func TestEventSubmissionRoundTrip(t *testing.T) {
	ev := signedEvent(t)
	wire := eventenvelope.NewSubmissionWith(ev).Marshal(nil)
	label, elems, err := envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, eventenvelope.L, label)
	require.Len(t, elems, 1)
	back := event.New()
	require.NoError(t, back.Unmarshal(elems[0]))
	assert.Equal(t, ev.Serialize(), back.Serialize())
}

func TestReqRoundTrip(t *testing.T) {
	lim := uint(50)
	f := &filter.F{
		Authors: tag.New("82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351"),
		Kinds:   kinds.New(kind.TextNote, kind.FollowList),
		Tags: tags.New(
			tag.New("#e", "82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351"),
		),
		Since: timestamp.New(1000),
		Until: timestamp.New(2000),
		Limit: &lim,
	}
	env := reqenvelope.NewFrom(subscription.NewId("3"), filters.New(f))
	wire := env.Marshal(nil)
	label, elems, err := envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, reqenvelope.L, label)
	back, err := reqenvelope.Parse(elems)
	require.NoError(t, err)
	assert.Equal(t, "3", back.Subscription.String())
	require.Equal(t, 1, back.Filters.Len())
	assert.Equal(t, env.Marshal(nil), back.Marshal(nil))
}

func TestOkRoundTrip(t *testing.T) {
	eid, err := eventid.FromString(
		"82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351",
	)
	require.NoError(t, err)
	for _, c := range []struct {
		ok  bool
		msg string
	}{
		{true, ""},
		{false, "duplicate: already have this event"},
		{false, "blocked: you are banned"},
	} {
		wire := okenvelope.NewFrom(eid, c.ok, []byte(c.msg)).Marshal(nil)
		label, elems, err := envelopes.Identify(wire)
		require.NoError(t, err)
		assert.Equal(t, okenvelope.L, label)
		back, err := okenvelope.Parse(elems)
		require.NoError(t, err)
		assert.Equal(t, c.ok, back.OK)
		assert.Equal(t, c.msg, back.ReasonString())
		assert.Equal(t, eid.String(), back.EventID.String())
	}
}

func TestEoseCloseClosedNoticeRoundTrip(t *testing.T) {
	id := subscription.NewId("9")

	wire := eoseenvelope.NewFrom(id).Marshal(nil)
	label, elems, err := envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, eoseenvelope.L, label)
	eose, err := eoseenvelope.Parse(elems)
	require.NoError(t, err)
	assert.Equal(t, "9", eose.Subscription.String())

	wire = closeenvelope.NewFrom(id).Marshal(nil)
	label, elems, err = envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, closeenvelope.L, label)
	cl, err := closeenvelope.Parse(elems)
	require.NoError(t, err)
	assert.Equal(t, "9", cl.ID.String())

	wire = closedenvelope.NewFrom(id, []byte("rate-limited: slow down")).Marshal(nil)
	label, elems, err = envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, closedenvelope.L, label)
	cld, err := closedenvelope.Parse(elems)
	require.NoError(t, err)
	assert.Equal(t, "rate-limited: slow down", cld.ReasonString())

	wire = noticeenvelope.NewFrom("mind the gap").Marshal(nil)
	label, elems, err = envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, noticeenvelope.L, label)
	n, err := noticeenvelope.Parse(elems)
	require.NoError(t, err)
	assert.Equal(t, "mind the gap", string(n.Message))
}

func TestCountRoundTrip(t *testing.T) {
	id := subscription.NewId("5")
	f := &filter.F{Kinds: kinds.New(kind.TextNote)}
	wire := countenvelope.NewRequest(id, filters.New(f)).Marshal(nil)
	label, elems, err := envelopes.Identify(wire)
	require.NoError(t, err)
	assert.Equal(t, countenvelope.L, label)
	req, err := countenvelope.ParseRequest(elems)
	require.NoError(t, err)
	assert.Equal(t, "5", req.Subscription.String())

	wire = countenvelope.NewResponse(id, 42).Marshal(nil)
	_, elems, err = envelopes.Identify(wire)
	require.NoError(t, err)
	resp, err := countenvelope.ParseResponse(elems)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Count)
}

func TestDecodeErrorCarriesRaw(t *testing.T) {
	raw := []byte(`{"not":"an array"}`)
	_, _, err := envelopes.Identify(raw)
	require.Error(t, err)
	var de *envelopes.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, raw, de.Raw)
	assert.Contains(t, err.Error(), "not")

	// wrong element types inside a well-formed array
	_, elems, err := envelopes.Identify([]byte(`["OK",1,2,3]`))
	require.NoError(t, err)
	_, err = okenvelope.Parse(elems)
	require.ErrorAs(t, err, &de)
}

func TestIdentifyRejectsGarbage(t *testing.T) {
	for _, bad := range []string{``, `[]`, `[1,2]`, `not json`} {
		_, _, err := envelopes.Identify([]byte(bad))
		assert.Error(t, err, "input: %q", bad)
	}
}
