package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws/relaytest"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
)

type testKey struct {
	sign *p256k.Signer
	pub  string
}

func newKey(t *testing.T) (k *testKey) {
	t.Helper()
	sign := &p256k.Signer{}
	require.NoError(t, sign.Generate())
	return &testKey{sign: sign, pub: hex.Enc(sign.Pub())}
}

func (k *testKey) event(
	t *testing.T, kd *kind.T, ts int64, content string, tl *tags.T,
) (ev *event.E) {
	t.Helper()
	ev = &event.E{
		Kind:      kd,
		CreatedAt: timestamp.New(ts),
		Tags:      tl,
		Content:   []byte(content),
	}
	require.NoError(t, ev.Sign(k.sign))
	return
}

func idsOf(evs []*event.E) (ids map[string]int) {
	ids = make(map[string]int)
	for _, ev := range evs {
		ids[ev.IdString()]++
	}
	return
}

func TestRunCopiesTheSocialGraph(t *testing.T) {
	dest := relaytest.New()
	defer dest.Shutdown()
	src1 := relaytest.New()
	defer src1.Shutdown()
	src2 := relaytest.New()
	defer src2.Shutdown()

	owner := newKey(t)
	followed := newKey(t)
	stranger := newKey(t)

	// a referenced event by a third party, only available on source 2
	refEv := stranger.event(t, kind.TextNote, 1700000001, "referenced", tags.New())

	ownerProfile := owner.event(t, kind.ProfileMetadata, 1700000002, `{"name":"owner"}`, tags.New())
	ownerFollows := owner.event(
		t, kind.FollowList, 1700000003, "",
		tags.New(tag.New("p", followed.pub)),
	)
	ownerNote := owner.event(
		t, kind.TextNote, 1700000004, "gm",
		tags.New(tag.New("e", refEv.IdString())),
	)
	followedProfile := followed.event(t, kind.ProfileMetadata, 1700000005, `{"name":"friend"}`, tags.New())
	followedNote := followed.event(
		t, kind.TextNote, 1700000006, "gm back",
		tags.New(tag.New("e", refEv.IdString())),
	)
	strangerProfile := stranger.event(t, kind.ProfileMetadata, 1700000007, `{"name":"stranger"}`, tags.New())

	src1.AddEvents(ownerProfile, ownerFollows, ownerNote, followedProfile)
	// the owner's note also exists on source 2; dedup must publish it once
	src2.AddEvents(ownerNote, followedNote, refEv, strangerProfile)

	cl := New(
		&Profile{
			Name:         "test",
			Pubkey:       owner.pub,
			Destination:  dest.URL(),
			SourceRelays: []string{src1.URL(), src2.URL()},
			FetchMine:    true, FetchFollows: true,
			FetchMyRefs: true, FetchFollowsRefs: true,
		},
	)
	defer cl.Close()
	require.NoError(t, cl.Run(context.Bg()))

	got := idsOf(dest.StoredEvents())
	for name, ev := range map[string]*event.E{
		"owner profile":    ownerProfile,
		"owner follows":    ownerFollows,
		"owner note":       ownerNote,
		"followed note":    followedNote,
		"followed profile": followedProfile,
		"referenced event": refEv,
		"stranger profile": strangerProfile,
	} {
		assert.Equal(t, 1, got[ev.IdString()], "%s must be copied exactly once", name)
	}
}

func TestRunRespectsFetchSwitches(t *testing.T) {
	dest := relaytest.New()
	defer dest.Shutdown()
	src := relaytest.New()
	defer src.Shutdown()

	owner := newKey(t)
	followed := newKey(t)
	stranger := newKey(t)

	refEv := stranger.event(t, kind.TextNote, 1700000001, "referenced", tags.New())
	ownerProfile := owner.event(t, kind.ProfileMetadata, 1700000002, "{}", tags.New())
	ownerFollows := owner.event(
		t, kind.FollowList, 1700000003, "",
		tags.New(tag.New("p", followed.pub)),
	)
	ownerNote := owner.event(
		t, kind.TextNote, 1700000004, "gm",
		tags.New(tag.New("e", refEv.IdString())),
	)
	followedNote := followed.event(t, kind.TextNote, 1700000005, "hi", tags.New())
	src.AddEvents(ownerProfile, ownerFollows, ownerNote, followedNote, refEv)

	cl := New(
		&Profile{
			Name:         "narrow",
			Pubkey:       owner.pub,
			Destination:  dest.URL(),
			SourceRelays: []string{src.URL()},
			FetchMine:    true,
			// follows and refs are off
		},
	)
	defer cl.Close()
	require.NoError(t, cl.Run(context.Bg()))

	got := idsOf(dest.StoredEvents())
	assert.Equal(t, 1, got[ownerNote.IdString()])
	assert.Zero(t, got[followedNote.IdString()], "follows are off")
	assert.Zero(t, got[refEv.IdString()], "refs are off")
}

func TestMultiClientGetEvents(t *testing.T) {
	src1 := relaytest.New()
	defer src1.Shutdown()
	src2 := relaytest.New()
	defer src2.Shutdown()

	k := newKey(t)
	a := k.event(t, kind.TextNote, 1700000001, "a", tags.New())
	b := k.event(t, kind.TextNote, 1700000002, "b", tags.New())
	c := k.event(t, kind.TextNote, 1700000003, "c", tags.New())
	src1.AddEvents(a)
	src2.AddEvents(b)

	multi, err := connectMulti(t, src1.URL(), src2.URL())
	require.NoError(t, err)

	found := multi.GetEvents(
		context.Bg(),
		[]string{a.IdString(), b.IdString(), c.IdString()},
	)
	assert.Len(t, found, 2)
	assert.NotNil(t, found[a.IdString()])
	assert.NotNil(t, found[b.IdString()])
	assert.Nil(t, found[c.IdString()], "c exists nowhere")
}

func TestMultiClientGetProfile(t *testing.T) {
	src1 := relaytest.New()
	defer src1.Shutdown()
	src2 := relaytest.New()
	defer src2.Shutdown()

	k := newKey(t)
	older := k.event(t, kind.ProfileMetadata, 1700000001, `{"name":"old"}`, tags.New())
	src2.AddEvents(older)

	multi, err := connectMulti(t, src1.URL(), src2.URL())
	require.NoError(t, err)

	ev := multi.GetProfile(context.Bg(), k.pub)
	require.NotNil(t, ev)
	assert.Equal(t, older.IdString(), ev.IdString())

	missing := newKey(t)
	assert.Nil(t, multi.GetProfile(context.Bg(), missing.pub))
}

func connectMulti(t *testing.T, urls ...string) (m *MultiClient, err error) {
	t.Helper()
	cl := New(&Profile{Name: "t", SourceRelays: urls})
	t.Cleanup(cl.Close)
	clients := cl.sources(context.Bg())
	if len(clients) != len(urls) {
		t.Fatalf("connected %d of %d relays", len(clients), len(urls))
	}
	return NewMultiClient(clients), nil
}
