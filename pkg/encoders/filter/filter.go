// Package filter is a codec for nostr filters (queries) and the predicate
// matching them against events. A field that is nil is unconstrained.
package filter

import (
	"encoding/json"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tags"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
)

// F is the query form for requesting events from a nostr relay.
//
// Tag constraints are held as tags whose key carries the leading '#', eg.
// ["#e", "<id>", "<id>"]. Limit is a hint; servers may return fewer events.
type F struct {
	Ids     *tag.T
	Kinds   *kinds.T
	Authors *tag.T
	Tags    *tags.T
	Since   *timestamp.T
	Until   *timestamp.T
	Limit   *uint
}

// New creates an empty filter.
func New() (f *F) { return &F{} }

// WithLimit returns a copy of the filter with the limit set to n.
func (f *F) WithLimit(n uint) (clone *F) {
	clone = f.Clone()
	clone.Limit = &n
	return
}

// Clone copies the filter. The field values are shared (they are treated as
// immutable); only the top-level structure is new.
func (f *F) Clone() (clone *F) {
	c := *f
	return &c
}

var (
	jIds     = []byte("ids")
	jKinds   = []byte("kinds")
	jAuthors = []byte("authors")
	jSince   = []byte("since")
	jUntil   = []byte("until")
	jLimit   = []byte("limit")
)

// Marshal appends the minified JSON object form of the filter to dst.
func (f *F) Marshal(dst []byte) (b []byte) {
	dst = append(dst, '{')
	first := true
	comma := func() {
		if first {
			first = false
			return
		}
		dst = append(dst, ',')
	}
	if f.Ids.Len() > 0 {
		comma()
		dst = text.JSONKey(dst, jIds)
		dst = f.Ids.Marshal(dst)
	}
	if f.Kinds.Len() > 0 {
		comma()
		dst = text.JSONKey(dst, jKinds)
		dst = f.Kinds.Marshal(dst)
	}
	if f.Authors.Len() > 0 {
		comma()
		dst = text.JSONKey(dst, jAuthors)
		dst = f.Authors.Marshal(dst)
	}
	if f.Tags != nil {
		for _, t := range f.Tags.T {
			if t.Len() < 1 {
				continue
			}
			comma()
			dst = text.JSONKey(dst, t.Key())
			rest := tag.New(t.ToStringSlice()[1:]...)
			dst = rest.Marshal(dst)
		}
	}
	if f.Since != nil {
		comma()
		dst = text.JSONKey(dst, jSince)
		dst = f.Since.Marshal(dst)
	}
	if f.Until != nil {
		comma()
		dst = text.JSONKey(dst, jUntil)
		dst = f.Until.Marshal(dst)
	}
	if f.Limit != nil {
		comma()
		dst = text.JSONKey(dst, jLimit)
		dst = text.AppendInt(dst, int64(*f.Limit))
	}
	dst = append(dst, '}')
	return dst
}

// Unmarshal decodes a JSON filter object, including the single letter "#X"
// tag constraint keys.
func (f *F) Unmarshal(b []byte) (err error) {
	var raw map[string]json.RawMessage
	if err = json.Unmarshal(b, &raw); err != nil {
		return errorf.D("filter: malformed JSON: %w\n%s", err, b)
	}
	for k, v := range raw {
		switch k {
		case "ids":
			var ss []string
			if err = json.Unmarshal(v, &ss); err != nil {
				return errorf.D("filter: bad ids: %w", err)
			}
			f.Ids = tag.New(ss...)
		case "authors":
			var ss []string
			if err = json.Unmarshal(v, &ss); err != nil {
				return errorf.D("filter: bad authors: %w", err)
			}
			f.Authors = tag.New(ss...)
		case "kinds":
			var is []int
			if err = json.Unmarshal(v, &is); err != nil {
				return errorf.D("filter: bad kinds: %w", err)
			}
			f.Kinds = kinds.FromIntSlice(is)
		case "since", "until":
			var n int64
			if err = json.Unmarshal(v, &n); err != nil {
				return errorf.D("filter: bad %s: %w", k, err)
			}
			if k == "since" {
				f.Since = timestamp.New(n)
			} else {
				f.Until = timestamp.New(n)
			}
		case "limit":
			var n uint
			if err = json.Unmarshal(v, &n); err != nil {
				return errorf.D("filter: bad limit: %w", err)
			}
			f.Limit = &n
		default:
			if len(k) == 2 && k[0] == '#' {
				var ss []string
				if err = json.Unmarshal(v, &ss); err != nil {
					return errorf.D("filter: bad tag constraint %s: %w", k, err)
				}
				t := tag.New(k)
				t.Append(ss...)
				if f.Tags == nil {
					f.Tags = tags.New()
				}
				f.Tags.Append(t)
			}
			// unknown fields are ignored
		}
	}
	return
}

// Match reports whether the event satisfies every constraint of the filter.
func (f *F) Match(ev *event.E) (match bool) {
	if ev == nil {
		return
	}
	if f.Ids.Len() > 0 && !f.Ids.Contains(ev.IdString()) {
		return
	}
	if f.Authors.Len() > 0 && !f.Authors.Contains(ev.PubKeyString()) {
		return
	}
	if f.Kinds.Len() > 0 && !f.Kinds.Contains(ev.Kind) {
		return
	}
	if f.Since != nil && ev.CreatedAt.I64() < f.Since.I64() {
		return
	}
	if f.Until != nil && ev.CreatedAt.I64() > f.Until.I64() {
		return
	}
	if f.Tags != nil {
		for _, want := range f.Tags.T {
			if want.Len() < 2 {
				continue
			}
			name := string(want.Key())
			if len(name) == 2 && name[0] == '#' {
				name = name[1:]
			}
			found := false
		values:
			for _, have := range ev.Tags.All(name) {
				for _, v := range want.Field[1:] {
					if string(have.Value()) == string(v) {
						found = true
						break values
					}
				}
			}
			if !found {
				return
			}
		}
	}
	return true
}
