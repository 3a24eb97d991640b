// Package reason builds and classifies the machine-readable prefixes carried
// in OK and CLOSED message strings.
package reason

import (
	"fmt"
	"strings"
)

// P is a machine-readable message class prefix.
type P string

// The prefixes defined by NIP-01.
const (
	Duplicate   P = "duplicate"
	Blocked     P = "blocked"
	Invalid     P = "invalid"
	RateLimited P = "rate-limited"
	Error       P = "error"
	Restricted  P = "restricted"
	Pow         P = "pow"
)

// F formats a prefixed message, eg. reason.Invalid.F("missing signature")
// renders "invalid: missing signature".
func (p P) F(format string, a ...any) (msg []byte) {
	return []byte(string(p) + ": " + fmt.Sprintf(format, a...))
}

// Is reports whether msg carries this prefix.
func (p P) Is(msg string) (is bool) {
	return strings.HasPrefix(msg, string(p)+":")
}
