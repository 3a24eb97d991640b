// Package nip95 splits a binary blob into signed, size-bounded chunk events
// (kind 1064) plus a metadata event (kind 1065) carrying the content hash
// and the ordered list of chunk event ids.
//
// The blob is read twice: once to hash it and learn the chunk event ids for
// the metadata event, and once to emit the chunk events themselves. Nothing
// bigger than one chunk is held in memory, so files larger than memory
// encode fine. The second pass reproduces identical events because signing
// is deterministic for a given key and message.
package nip95

import (
	"encoding/base64"
	"errors"
	"io"
	"strconv"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/signer"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
)

// EventOverhead is the JSON length of a signed event with empty content and
// tags: id, pubkey and sig in hex, a 10 digit created_at, a 4 digit kind,
// and the fixed punctuation.
const EventOverhead = 345

// ErrMissingMimeType is returned when no MIME type is supplied; guessing
// one from the file extension is the caller's business.
var ErrMissingMimeType = errors.New("nip95: missing mime type")

// Options configures an encoding.
type Options struct {
	// MaxMessageSize bounds the JSON length of every emitted event.
	MaxMessageSize int
	// FileName is carried in the name and fileName tags.
	FileName string
	// MimeType is required.
	MimeType string
	// Description becomes the metadata event content.
	Description string
	// Alt is an optional accessibility description.
	Alt string
	// CreatedAt stamps every emitted event; nil means now.
	CreatedAt *timestamp.T
}

// ChunkSize returns the raw bytes per chunk for a message size bound: the
// base64 payload must fit beside the envelope, and the chunk length is
// floored to a multiple of 3 so encoding produces no padding.
func ChunkSize(maxMessageSize int) (n int) {
	maxContent := maxMessageSize - EventOverhead
	n = maxContent * 3 / 4
	n -= n % 3
	return
}

// Encoder prepares the event sequence for one blob.
type Encoder struct {
	blob      io.ReaderAt
	size      int64
	sign      signer.I
	opts      Options
	chunkSize int
	createdAt *timestamp.T

	// filled by the first pass
	hash     []byte
	chunkIds []string
}

// NewEncoder validates the inputs and runs the first pass: hashing the blob
// and computing the chunk event ids.
func NewEncoder(
	blob io.ReaderAt, size int64, sign signer.I, opts Options,
) (e *Encoder, err error) {
	if opts.MimeType == "" {
		return nil, ErrMissingMimeType
	}
	cs := ChunkSize(opts.MaxMessageSize)
	if cs < 3 {
		return nil, errorf.E(
			"nip95: max message size %d leaves no room for content",
			opts.MaxMessageSize,
		)
	}
	e = &Encoder{
		blob:      blob,
		size:      size,
		sign:      sign,
		opts:      opts,
		chunkSize: cs,
		createdAt: opts.CreatedAt,
	}
	if e.createdAt == nil {
		e.createdAt = timestamp.Now()
	}
	if err = e.prepare(); err != nil {
		return nil, err
	}
	return
}

// NumChunks returns the number of chunk events.
func (e *Encoder) NumChunks() (n int) { return len(e.chunkIds) }

// ChunkIds returns the chunk event ids in emission order.
func (e *Encoder) ChunkIds() (ids []string) { return e.chunkIds }

// HashHex returns the whole-file SHA-256 in hex.
func (e *Encoder) HashHex() (x string) { return hex.Enc(e.hash) }

// eachChunk reads the blob sequentially and calls fn with each raw chunk.
func (e *Encoder) eachChunk(fn func(raw []byte) error) (err error) {
	buf := make([]byte, e.chunkSize)
	var off int64
	for off < e.size {
		want := e.chunkSize
		if rest := e.size - off; rest < int64(want) {
			want = int(rest)
		}
		if _, err = io.ReadFull(
			io.NewSectionReader(e.blob, off, int64(want)), buf[:want],
		); chk.E(err) {
			return
		}
		if err = fn(buf[:want]); err != nil {
			return
		}
		off += int64(want)
	}
	return
}

// chunkEvent builds and signs one kind 1064 chunk event.
func (e *Encoder) chunkEvent(raw []byte) (ev *event.E, err error) {
	ev = &event.E{
		CreatedAt: e.createdAt,
		Kind:      kind.FileChunk,
		Tags:      tags.New(),
		Content:   []byte(base64.StdEncoding.EncodeToString(raw)),
	}
	err = ev.Sign(e.sign)
	return
}

// prepare is the first pass: hash every chunk and sign it to learn its id.
func (e *Encoder) prepare() (err error) {
	h := sha256.New()
	err = e.eachChunk(
		func(raw []byte) (ferr error) {
			_, _ = h.Write(raw)
			var ev *event.E
			if ev, ferr = e.chunkEvent(raw); chk.E(ferr) {
				return
			}
			e.chunkIds = append(e.chunkIds, ev.IdString())
			return
		},
	)
	if err != nil {
		return
	}
	e.hash = h.Sum(nil)
	return
}

// Metadata builds and signs the kind 1065 metadata event. Its tags are, in
// order: name, m, x, fileName, size, blockSize (only for multi chunk
// files), one e tag per chunk in order, and alt when set.
func (e *Encoder) Metadata() (ev *event.E, err error) {
	tl := tags.New(
		tag.New("name", e.opts.FileName),
		tag.New("m", e.opts.MimeType),
		tag.New("x", e.HashHex()),
		tag.New("fileName", e.opts.FileName),
		tag.New("size", strconv.FormatInt(e.size, 10)),
	)
	if len(e.chunkIds) > 1 {
		tl.Append(tag.New("blockSize", strconv.Itoa(e.chunkSize)))
	}
	for _, id := range e.chunkIds {
		tl.Append(tag.New("e", id))
	}
	if e.opts.Alt != "" {
		tl.Append(tag.New("alt", e.opts.Alt))
	}
	ev = &event.E{
		CreatedAt: e.createdAt,
		Kind:      kind.FileMetadata,
		Tags:      tl,
		Content:   []byte(e.opts.Description),
	}
	if err = ev.Sign(e.sign); chk.E(err) {
		return
	}
	if l := len(ev.Serialize()); l > e.opts.MaxMessageSize {
		err = errorf.E(
			"nip95: metadata event is %d bytes, exceeding the %d byte bound",
			l, e.opts.MaxMessageSize,
		)
		ev = nil
	}
	return
}

// Encode emits the full sequence: the metadata event first, then the chunk
// events in order, re-reading the blob on the second pass. Consumers may
// stop early by returning an error from fn.
func (e *Encoder) Encode(fn func(ev *event.E) error) (err error) {
	var meta *event.E
	if meta, err = e.Metadata(); err != nil {
		return
	}
	if err = fn(meta); err != nil {
		return
	}
	i := 0
	return e.eachChunk(
		func(raw []byte) (ferr error) {
			var ev *event.E
			if ev, ferr = e.chunkEvent(raw); chk.E(ferr) {
				return
			}
			if ev.IdString() != e.chunkIds[i] {
				return errorf.E(
					"nip95: chunk %d changed between passes (non-deterministic signer or mutated blob)",
					i,
				)
			}
			i++
			return fn(ev)
		},
	)
}

// Reassemble concatenates the base64-decoded contents of the chunk events
// in the order given by the metadata e tags and verifies the x tag hash.
func Reassemble(meta *event.E, chunks map[string]*event.E) (b []byte, err error) {
	if !kind.FileMetadata.Equal(meta.Kind) {
		return nil, errorf.E("nip95: event %s is not file metadata", meta.IdString())
	}
	for _, et := range meta.Tags.All("e") {
		id := string(et.Value())
		ch, found := chunks[id]
		if !found {
			return nil, errorf.E("nip95: chunk %s is missing", id)
		}
		var raw []byte
		if raw, err = base64.StdEncoding.DecodeString(
			ch.ContentString(),
		); chk.E(err) {
			return nil, err
		}
		b = append(b, raw...)
	}
	sum := sha256.Sum256(b)
	want := meta.Tags.First("x")
	if want == nil || hex.Enc(sum[:]) != string(want.Value()) {
		return nil, errorf.E("nip95: reassembled hash does not match the x tag")
	}
	return
}
