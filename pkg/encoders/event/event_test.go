package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
)

const (
	testSec = "f5dfe77a89298142e2d464ca4368485c8b23825c082ff69be80538f980c403dc"
	testPub = "82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351"
)

func testSigner(t *testing.T) (sign *p256k.Signer) {
	t.Helper()
	skb, err := hex.Dec(testSec)
	require.NoError(t, err)
	sign = &p256k.Signer{}
	require.NoError(t, sign.InitSec(skb))
	return
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	sign := testSigner(t)
	assert.Equal(t, testPub, hex.Enc(sign.Pub()))
	ev := &E{
		Kind:      kind.TextNote,
		CreatedAt: timestamp.New(1700000000),
		Tags:      tags.New(),
		Content:   []byte("hi"),
	}
	require.NoError(t, ev.Sign(sign))
	assert.Equal(t, testPub, ev.PubKeyString())
	assert.True(t, ev.Verify())
}

func TestIdLaw(t *testing.T) {
	sign := testSigner(t)
	ev := &E{
		Kind:      kind.TextNote,
		CreatedAt: timestamp.New(1700000000),
		Tags:      tags.New(tag.New("e", "82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351")),
		Content:   []byte("referencing"),
	}
	require.NoError(t, ev.Sign(sign))
	sum := sha256.Sum256(ev.ToCanonical(nil))
	assert.Equal(t, hex.Enc(sum[:]), ev.IdString())
	assert.True(t, ev.CheckId())
}

func TestDeterministicSigning(t *testing.T) {
	sign := testSigner(t)
	mk := func() *E {
		ev := &E{
			Kind:      kind.FileChunk,
			CreatedAt: timestamp.New(1700000000),
			Tags:      tags.New(),
			Content:   []byte("same bytes"),
		}
		require.NoError(t, ev.Sign(sign))
		return ev
	}
	a, b := mk(), mk()
	assert.Equal(t, a.IdString(), b.IdString())
	assert.Equal(t, a.SigString(), b.SigString())
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	sign := testSigner(t)
	ev := &E{
		Kind:      kind.TextNote,
		CreatedAt: timestamp.New(1700000000),
		Tags: tags.New(
			tag.New("p", testPub),
			tag.New("t", "nostr"),
		),
		Content: []byte("line one\nline \"two\"\t\\backslash\x01"),
	}
	require.NoError(t, ev.Sign(sign))
	wire := ev.Serialize()
	back := New()
	require.NoError(t, back.Unmarshal(wire))
	assert.Equal(t, wire, back.Serialize())
	assert.True(t, back.Verify())
	assert.Equal(t, ev.TagStrings(), back.TagStrings())
	assert.Equal(t, ev.ContentString(), back.ContentString())
}

func TestVerifyFailsOnTamper(t *testing.T) {
	sign := testSigner(t)
	ev := &E{
		Kind:      kind.TextNote,
		CreatedAt: timestamp.New(1700000000),
		Tags:      tags.New(),
		Content:   []byte("original"),
	}
	require.NoError(t, ev.Sign(sign))
	ev.Content = []byte("tampered")
	assert.False(t, ev.Verify(), "verification must return false, not panic")
}

func TestUnmarshalRejectsBadShapes(t *testing.T) {
	for _, bad := range []string{
		`{}`,
		`{"id":"zz"}`,
		`[1,2,3]`,
		`{"id":"` + testPub + `","pubkey":"` + testPub + `","created_at":1,"kind":-1,"tags":[],"content":"","sig":"` + testPub + testPub + `"}`,
		`{"id":"` + testPub + `","pubkey":"` + testPub + `","created_at":1,"kind":1,"tags":[[]],"content":"","sig":"` + testPub + testPub + `"}`,
	} {
		ev := New()
		assert.Error(t, ev.Unmarshal([]byte(bad)), "input: %s", bad)
	}
}
