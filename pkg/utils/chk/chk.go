// Package chk provides one-line error check guards. Each function logs a
// non-nil error at its level with the caller's location and reports whether
// the error was non-nil, so error handling reads as
//
//	if err = thing(); chk.E(err) {
//		return
//	}
package chk

import "github.com/NfNitLoop/nostr-cli/pkg/utils/log"

// E logs at error level.
func E(err error) bool { return log.E.Chk(err) }

// D logs at debug level, for errors that are expected in normal operation.
func D(err error) bool { return log.D.Chk(err) }

// T logs at trace level.
func T(err error) bool { return log.T.Chk(err) }
