package nip95

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"lukechampine.com/frand"
)

func testSigner(t *testing.T) (sign *p256k.Signer) {
	t.Helper()
	sign = &p256k.Signer{}
	require.NoError(t, sign.Generate())
	return
}

// TestEventOverheadConstant pins the envelope size: a signed event with
// empty content and tags, a 10 digit created_at and a 4 digit kind is
// exactly EventOverhead bytes of JSON.
func TestEventOverheadConstant(t *testing.T) {
	fixed := "82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351"
	id, err := hex.Dec(fixed)
	require.NoError(t, err)
	sig, err := hex.Dec(fixed + fixed)
	require.NoError(t, err)
	ev := &event.E{
		Id:        id,
		Pubkey:    id,
		CreatedAt: timestamp.New(1700000000), // 10 digits
		Kind:      kind.FileChunk,            // 4 digits
		Tags:      tags.New(),
		Content:   nil,
		Sig:       sig,
	}
	assert.Equal(t, EventOverhead, len(ev.Serialize()))
}

func TestChunkSize(t *testing.T) {
	// 16384 - 345 = 16039; 16039*3/4 = 12029; floored to 12027
	assert.Equal(t, 12027, ChunkSize(16384))
	// every chunk size is a multiple of 3 so base64 never pads
	for _, mms := range []int{1024, 4096, 65536} {
		assert.Zero(t, ChunkSize(mms)%3, "maxMessageSize %d", mms)
	}
}

// TestEncode64KiB is the reference scenario: 64 KiB of zeros with a 16 KiB
// message bound.
func TestEncode64KiB(t *testing.T) {
	blob := make([]byte, 65536)
	sign := testSigner(t)
	enc, err := NewEncoder(
		bytes.NewReader(blob), int64(len(blob)), sign, Options{
			MaxMessageSize: 16384,
			FileName:       "zeros.bin",
			MimeType:       "application/octet-stream",
		},
	)
	require.NoError(t, err)
	assert.Equal(
		t, "de2f256064a0af797747c2b97505dc0b9f3df0de4f489eac731c23ae9ca9cc31",
		enc.HashHex(),
	)
	assert.Equal(t, 6, enc.NumChunks())

	var evs []*event.E
	require.NoError(
		t, enc.Encode(
			func(ev *event.E) error {
				evs = append(evs, ev)
				return nil
			},
		),
	)
	require.Len(t, evs, 7, "one metadata event plus six chunks")

	meta := evs[0]
	assert.True(t, kind.FileMetadata.Equal(meta.Kind))
	assert.Equal(
		t, enc.HashHex(), string(meta.Tags.First("x").Value()),
	)
	assert.Equal(t, "65536", string(meta.Tags.First("size").Value()))
	require.NotNil(t, meta.Tags.First("blockSize"))
	blockSize, err := strconv.Atoi(string(meta.Tags.First("blockSize").Value()))
	require.NoError(t, err)
	assert.Equal(t, 12027, blockSize)

	// the e tag sequence equals the chunk ids in emission order
	eTags := meta.Tags.All("e")
	require.Len(t, eTags, 6)
	var total int
	for i, ev := range evs[1:] {
		assert.True(t, kind.FileChunk.Equal(ev.Kind))
		assert.Equal(t, ev.IdString(), string(eTags[i].Value()))
		assert.True(t, ev.Verify())
		raw, derr := base64.StdEncoding.DecodeString(ev.ContentString())
		require.NoError(t, derr)
		if i < 5 {
			assert.Len(t, raw, blockSize, "non-final chunks carry exactly blockSize bytes")
		}
		total += len(raw)
	}
	assert.Equal(t, 65536, total)

	// every event fits the wire bound
	for _, ev := range evs {
		assert.LessOrEqual(t, len(ev.Serialize()), 16384)
	}
}

func TestReconstruction(t *testing.T) {
	blob := frand.Bytes(10000)
	sign := testSigner(t)
	enc, err := NewEncoder(
		bytes.NewReader(blob), int64(len(blob)), sign, Options{
			MaxMessageSize: 2048,
			FileName:       "noise.bin",
			MimeType:       "application/octet-stream",
			Description:    "random noise",
			Alt:            "nothing to see",
		},
	)
	require.NoError(t, err)

	var meta *event.E
	chunks := make(map[string]*event.E)
	require.NoError(
		t, enc.Encode(
			func(ev *event.E) error {
				if meta == nil {
					meta = ev
					return nil
				}
				chunks[ev.IdString()] = ev
				return nil
			},
		),
	)
	back, err := Reassemble(meta, chunks)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(blob, back))
	sum := sha256.Sum256(blob)
	assert.Equal(t, hex.Enc(sum[:]), string(meta.Tags.First("x").Value()))
	assert.Equal(t, "random noise", meta.ContentString())
	assert.Equal(t, "nothing to see", string(meta.Tags.First("alt").Value()))
}

func TestSingleChunkOmitsBlockSize(t *testing.T) {
	blob := []byte("tiny")
	sign := testSigner(t)
	enc, err := NewEncoder(
		bytes.NewReader(blob), int64(len(blob)), sign, Options{
			MaxMessageSize: 4096,
			FileName:       "tiny.txt",
			MimeType:       "text/plain",
		},
	)
	require.NoError(t, err)
	require.Equal(t, 1, enc.NumChunks())
	meta, err := enc.Metadata()
	require.NoError(t, err)
	assert.Nil(t, meta.Tags.First("blockSize"))
	assert.Len(t, meta.Tags.All("e"), 1)
}

func TestMissingMimeType(t *testing.T) {
	_, err := NewEncoder(
		bytes.NewReader([]byte("x")), 1, testSigner(t), Options{
			MaxMessageSize: 4096,
			FileName:       "x",
		},
	)
	assert.ErrorIs(t, err, ErrMissingMimeType)
}

func TestTooSmallMessageSize(t *testing.T) {
	_, err := NewEncoder(
		bytes.NewReader([]byte("x")), 1, testSigner(t), Options{
			MaxMessageSize: EventOverhead,
			FileName:       "x",
			MimeType:       "text/plain",
		},
	)
	assert.Error(t, err)
}

// The encoder reads the blob twice and the ids must agree between passes;
// a deterministic signer makes that hold.
func TestTwoPassDeterminism(t *testing.T) {
	blob := frand.Bytes(5000)
	sign := testSigner(t)
	enc, err := NewEncoder(
		bytes.NewReader(blob), int64(len(blob)), sign, Options{
			MaxMessageSize: 2048,
			FileName:       "noise.bin",
			MimeType:       "application/octet-stream",
			CreatedAt:      timestamp.New(1700000000),
		},
	)
	require.NoError(t, err)
	firstIds := enc.ChunkIds()
	var emitted []string
	require.NoError(
		t, enc.Encode(
			func(ev *event.E) error {
				if kind.FileChunk.Equal(ev.Kind) {
					emitted = append(emitted, ev.IdString())
				}
				return nil
			},
		),
	)
	assert.Equal(t, firstIds, emitted)
}
