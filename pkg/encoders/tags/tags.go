// Package tags is a codec for an event's tag list.
package tags

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
)

// T is an ordered list of tags.
type T struct {
	T []*tag.T
}

// New creates a tag list.
func New(fields ...*tag.T) (t *T) { return &T{T: fields} }

// FromStringsSlice converts a [][]string to a tag list.
func FromStringsSlice(s [][]string) (t *T) {
	t = &T{T: make([]*tag.T, 0, len(s))}
	for _, f := range s {
		t.T = append(t.T, tag.New(f...))
	}
	return
}

// Append adds tags to the end of the list.
func (t *T) Append(fields ...*tag.T) { t.T = append(t.T, fields...) }

// Len returns the number of tags.
func (t *T) Len() (n int) {
	if t == nil {
		return
	}
	return len(t.T)
}

// First returns the first tag with the given name, or nil.
func (t *T) First(key string) (f *tag.T) {
	if t == nil {
		return
	}
	for _, g := range t.T {
		if string(g.Key()) == key {
			return g
		}
	}
	return
}

// All returns every tag with the given name, in order.
func (t *T) All(key string) (fs []*tag.T) {
	if t == nil {
		return
	}
	for _, g := range t.T {
		if string(g.Key()) == key {
			fs = append(fs, g)
		}
	}
	return
}

// ToStringsSlice converts the list to [][]string.
func (t *T) ToStringsSlice() (s [][]string) {
	s = make([][]string, 0, t.Len())
	for _, g := range t.T {
		s = append(s, g.ToStringSlice())
	}
	return
}

// Marshal appends the tag list as a JSON array of arrays to dst.
func (t *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, '[')
	if t != nil {
		for i, g := range t.T {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = g.Marshal(dst)
		}
	}
	dst = append(dst, ']')
	return dst
}

// MarshalWithWhitespace appends the tag list with one tag per line, for the
// human readable event form.
func (t *T) MarshalWithWhitespace(dst []byte) (b []byte) {
	if t.Len() == 0 {
		return append(dst, '[', ']')
	}
	dst = append(dst, '[')
	for i, g := range t.T {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '\n', '\t', '\t')
		dst = g.Marshal(dst)
	}
	dst = append(dst, '\n', '\t', ']')
	return dst
}
