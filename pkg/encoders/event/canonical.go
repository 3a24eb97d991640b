package event

import (
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/sha256"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/signer"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// ToCanonical appends the canonical form of the event to dst:
// [0,"<pubkey>",<created_at>,<kind>,<tags>,"<content>"] with no whitespace.
// The SHA256 of this encoding is the event id.
func (ev *E) ToCanonical(dst []byte) (b []byte) {
	dst = append(dst, '[', '0', ',')
	dst = text.AppendQuote(dst, ev.Pubkey, hex.EncAppend)
	dst = append(dst, ',')
	dst = ev.CreatedAt.Marshal(dst)
	dst = append(dst, ',')
	dst = ev.Kind.Marshal(dst)
	dst = append(dst, ',')
	dst = ev.Tags.Marshal(dst)
	dst = append(dst, ',')
	dst = text.AppendQuote(dst, ev.Content, text.NostrEscape)
	dst = append(dst, ']')
	return dst
}

// GetIDBytes computes the event id from the canonical encoding.
func (ev *E) GetIDBytes() (id []byte) {
	sum := sha256.Sum256(ev.ToCanonical(nil))
	return sum[:]
}

// CheckId recomputes the id and reports whether the Id field matches it.
func (ev *E) CheckId() (valid bool) {
	if len(ev.Id) != sha256.Size {
		return
	}
	id := ev.GetIDBytes()
	for i, c := range id {
		if ev.Id[i] != c {
			return
		}
	}
	return true
}

// Sign fills in Pubkey, computes the Id and signs it with the given signer.
// A nil CreatedAt is set to the current time first. The event must not
// already carry a signature.
func (ev *E) Sign(sign signer.I) (err error) {
	if len(sign.Pub()) != p256k.PubKeyLen {
		return errorf.E("event: signer is not initialized")
	}
	if ev.CreatedAt == nil {
		ev.CreatedAt = timestamp.Now()
	}
	ev.Pubkey = sign.Pub()
	ev.Id = ev.GetIDBytes()
	if ev.Sig, err = sign.Sign(ev.Id); chk.E(err) {
		return
	}
	return
}

// Verify recomputes the event id and checks the signature against the
// event's pubkey. Any failure returns false so stream processing can
// continue past bad events.
func (ev *E) Verify() (valid bool) {
	if !ev.CheckId() {
		log.D.F("event %s has mismatched id", ev.IdString())
		return
	}
	var err error
	sign := &p256k.Signer{}
	if err = sign.InitPub(ev.Pubkey); chk.D(err) {
		return
	}
	if valid, err = sign.Verify(ev.Id, ev.Sig); chk.D(err) {
		return false
	}
	return
}
