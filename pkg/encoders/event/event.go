// Package event provides the codec for nostr events: the JSON wire form
// (with id and signature), the canonical form that is hashed to generate the
// id, and the signing and verification built on both.
package event

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/eventid"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
)

// E is the primary datatype of nostr. Identifiers, keys and signatures are
// kept in binary form and hex encoded only at the wire boundary.
type E struct {

	// Id is the SHA256 hash of the canonical encoding of the event.
	Id []byte

	// Pubkey is the x-only public key of the event creator.
	Pubkey []byte

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt *timestamp.T

	// Kind is the nostr protocol code for the type of event.
	Kind *kind.T

	// Tags are a list of tags; the first element of each names the tag.
	Tags *tags.T

	// Content is an arbitrary string, usually conforming to a specification
	// relating to the Kind.
	Content []byte

	// Sig is the signature on the Id hash validating as coming from Pubkey.
	Sig []byte
}

// New makes a new event.E.
func New() (ev *E) { return &E{} }

// S is an array of event.E that sorts in reverse chronological order.
type S []*E

// Len returns the length of the event list.
func (ev S) Len() int { return len(ev) }

// Less returns whether the first is newer than the second.
func (ev S) Less(i, j int) bool { return ev[i].CreatedAt.I64() > ev[j].CreatedAt.I64() }

// Swap two indexes of the event list with each other.
func (ev S) Swap(i, j int) { ev[i], ev[j] = ev[j], ev[i] }

// C is a channel that carries event.E.
type C chan *E

// Serialize renders an event.E into minified JSON.
func (ev *E) Serialize() (b []byte) { return ev.Marshal(nil) }

// SerializeIndented renders an event.E into whitespaced JSON for humans.
func (ev *E) SerializeIndented() (b []byte) {
	return ev.MarshalWithWhitespace(nil, true)
}

// EventId returns the event's Id as an eventid.T.
func (ev *E) EventId() (eid *eventid.T) { return eventid.NewWith(ev.Id) }

// IdString returns the event Id as a hex-encoded string.
func (ev *E) IdString() (s string) { return hex.Enc(ev.Id) }

// PubKeyString returns the pubkey as a hex-encoded string.
func (ev *E) PubKeyString() (s string) { return hex.Enc(ev.Pubkey) }

// SigString returns the signature as a hex-encoded string.
func (ev *E) SigString() (s string) { return hex.Enc(ev.Sig) }

// ContentString returns the content field as a string.
func (ev *E) ContentString() (s string) { return string(ev.Content) }

// CreatedAtInt64 returns the created_at timestamp as a standard int64.
func (ev *E) CreatedAtInt64() (i int64) { return ev.CreatedAt.I64() }

// KindInt returns the kind as an int.
func (ev *E) KindInt() (i int) { return ev.Kind.Int() }

// TagStrings returns the tags as a slice of slices of strings.
func (ev *E) TagStrings() (s [][]string) { return ev.Tags.ToStringsSlice() }
