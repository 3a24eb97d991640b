package event

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
)

var (
	jId        = []byte("id")
	jPubkey    = []byte("pubkey")
	jCreatedAt = []byte("created_at")
	jKind      = []byte("kind")
	jTags      = []byte("tags")
	jContent   = []byte("content")
	jSig       = []byte("sig")
)

// Marshal appends the minified wire JSON of an event.E to dst.
func (ev *E) Marshal(dst []byte) (b []byte) {
	return ev.MarshalWithWhitespace(dst, false)
}

// MarshalWithWhitespace adds tabs and newlines to make the JSON more readable
// for humans, if the on flag is set to true.
func (ev *E) MarshalWithWhitespace(dst []byte, on bool) (b []byte) {
	dst = append(dst, '{')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jId)
	if on {
		dst = append(dst, ' ')
	}
	dst = text.AppendQuote(dst, ev.Id, hex.EncAppend)
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jPubkey)
	if on {
		dst = append(dst, ' ')
	}
	dst = text.AppendQuote(dst, ev.Pubkey, hex.EncAppend)
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jCreatedAt)
	if on {
		dst = append(dst, ' ')
	}
	dst = ev.CreatedAt.Marshal(dst)
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jKind)
	if on {
		dst = append(dst, ' ')
	}
	dst = ev.Kind.Marshal(dst)
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jTags)
	if on {
		dst = append(dst, ' ')
		dst = ev.Tags.MarshalWithWhitespace(dst)
	} else {
		dst = ev.Tags.Marshal(dst)
	}
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jContent)
	if on {
		dst = append(dst, ' ')
	}
	dst = text.AppendQuote(dst, ev.Content, text.NostrEscape)
	dst = append(dst, ',')
	if on {
		dst = append(dst, '\n', '\t')
	}
	dst = text.JSONKey(dst, jSig)
	if on {
		dst = append(dst, ' ')
	}
	dst = text.AppendQuote(dst, ev.Sig, hex.EncAppend)
	if on {
		dst = append(dst, '\n')
	}
	dst = append(dst, '}')
	b = dst
	return
}

// J is an event.E in the basic types understood by encoding/json. The wire
// decode path goes through this form before validation.
type J struct {
	Id        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// ToEventJ converts an event.E into an event.J.
func (ev *E) ToEventJ() (j *J) {
	return &J{
		Id:        ev.IdString(),
		Pubkey:    ev.PubKeyString(),
		CreatedAt: ev.CreatedAt.I64(),
		Kind:      ev.Kind.Int(),
		Tags:      ev.Tags.ToStringsSlice(),
		Content:   ev.ContentString(),
		Sig:       ev.SigString(),
	}
}

// FromEventJ validates an event.J and loads it into the event.E.
func (ev *E) FromEventJ(j *J) (err error) {
	if ev.Id, err = hex.DecExact(j.Id, sha256.Size); err != nil {
		return errorf.D("event: bad id: %w", err)
	}
	if ev.Pubkey, err = hex.DecExact(j.Pubkey, p256k.PubKeyLen); err != nil {
		return errorf.D("event: bad pubkey: %w", err)
	}
	if ev.Sig, err = hex.DecExact(j.Sig, p256k.SigLen); err != nil {
		return errorf.D("event: bad sig: %w", err)
	}
	if j.Kind < 0 || j.Kind > 65535 {
		return errorf.D("event: kind %d out of range", j.Kind)
	}
	for _, t := range j.Tags {
		if len(t) == 0 {
			return errorf.D("event: empty tag")
		}
	}
	ev.CreatedAt = timestamp.New(j.CreatedAt)
	ev.Kind = kind.New(j.Kind)
	ev.Tags = tags.FromStringsSlice(j.Tags)
	ev.Content = []byte(j.Content)
	return
}

// Unmarshal decodes the wire JSON of one event into the event.E.
func (ev *E) Unmarshal(b []byte) (err error) {
	j := &J{}
	if err = json.Unmarshal(b, j); err != nil {
		return errorf.D("event: malformed JSON: %w\n%s", err, b)
	}
	return ev.FromEventJ(j)
}
