// Package kinds is a list of event kinds as used in filters.
package kinds

import (
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
)

// T is an ordered list of kinds.
type T struct {
	K []*kind.T
}

// New creates a kinds.T from the given kinds.
func New(k ...*kind.T) (t *T) { return &T{K: k} }

// NewWithCap creates an empty kinds.T with capacity c.
func NewWithCap(c int) (t *T) { return &T{K: make([]*kind.T, 0, c)} }

// FromIntSlice creates a kinds.T from plain ints.
func FromIntSlice(is []int) (t *T) {
	t = NewWithCap(len(is))
	for _, i := range is {
		t.K = append(t.K, kind.New(i))
	}
	return
}

// Len returns the number of kinds in the list.
func (t *T) Len() (n int) {
	if t == nil {
		return
	}
	return len(t.K)
}

// Contains reports whether k is in the list.
func (t *T) Contains(k *kind.T) (found bool) {
	for _, c := range t.K {
		if c.Equal(k) {
			return true
		}
	}
	return
}

// ToIntSlice returns the kinds as plain ints.
func (t *T) ToIntSlice() (is []int) {
	for _, k := range t.K {
		is = append(is, k.Int())
	}
	return
}

// Marshal appends the JSON array of kind numbers to dst.
func (t *T) Marshal(dst []byte) (b []byte) {
	dst = append(dst, '[')
	for i, k := range t.K {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = k.Marshal(dst)
	}
	dst = append(dst, ']')
	return dst
}
