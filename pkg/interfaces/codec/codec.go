// Package codec defines the envelope interface shared by all protocol
// message variants.
package codec

// Envelope is one client↔relay protocol message.
type Envelope interface {
	// Label returns the wire discriminant, eg. "EVENT" or "OK".
	Label() (l string)
	// Marshal appends the complete JSON array form to dst.
	Marshal(dst []byte) (b []byte)
}
