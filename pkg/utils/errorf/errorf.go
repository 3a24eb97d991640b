// Package errorf creates formatted errors and logs them at the point of
// creation, so the origin of an error is visible even when callers discard it.
package errorf

import (
	"fmt"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// E creates an error and logs it at error level.
func E(format string, a ...any) (err error) {
	err = fmt.Errorf(format, a...)
	log.E.Chk(err)
	return
}

// W creates an error and logs it at warn level.
func W(format string, a ...any) (err error) {
	err = fmt.Errorf(format, a...)
	log.W.Chk(err)
	return
}

// D creates an error and logs it at debug level.
func D(format string, a ...any) (err error) {
	err = fmt.Errorf(format, a...)
	log.D.Chk(err)
	return
}
