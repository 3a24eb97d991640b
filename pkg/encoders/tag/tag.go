// Package tag is a codec for one event tag, an ordered list of strings whose
// first element names the tag. The same type doubles as the plain string
// lists used by filter ids and authors fields.
package tag

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/text"
)

// T is one tag.
type T struct {
	Field [][]byte
}

// New creates a tag from strings or byte slices.
func New[V string | []byte](fields ...V) (t *T) {
	t = &T{Field: make([][]byte, 0, len(fields))}
	for _, f := range fields {
		t.Field = append(t.Field, []byte(f))
	}
	return
}

// NewWithCap creates an empty tag with capacity c.
func NewWithCap(c int) (t *T) { return &T{Field: make([][]byte, 0, c)} }

// Append adds fields to the end of the tag.
func (t *T) Append(fields ...string) {
	for _, f := range fields {
		t.Field = append(t.Field, []byte(f))
	}
}

// Len returns the number of fields.
func (t *T) Len() (n int) {
	if t == nil {
		return
	}
	return len(t.Field)
}

// Key returns the first field, the tag name.
func (t *T) Key() (k []byte) {
	if t.Len() < 1 {
		return
	}
	return t.Field[0]
}

// Value returns the second field.
func (t *T) Value() (v []byte) {
	if t.Len() < 2 {
		return
	}
	return t.Field[1]
}

// S returns field i as a string, or empty when out of range.
func (t *T) S(i int) (s string) {
	if t.Len() <= i {
		return
	}
	return string(t.Field[i])
}

// Contains reports whether any field equals s.
func (t *T) Contains(s string) (found bool) {
	for _, f := range t.Field {
		if string(f) == s {
			return true
		}
	}
	return
}

// ToStringSlice converts the fields to plain strings.
func (t *T) ToStringSlice() (s []string) {
	s = make([]string, 0, t.Len())
	for _, f := range t.Field {
		s = append(s, string(f))
	}
	return
}

// Marshal appends the tag as a JSON string array to dst.
func (t *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, '[')
	for i, f := range t.Field {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = text.AppendQuote(dst, f, text.NostrEscape)
	}
	dst = append(dst, ']')
	return dst
}
