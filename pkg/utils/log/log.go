// Package log exposes the process-wide leveled printers. The single letter
// names read as log.T (trace), log.D (debug), log.I (info), log.W (warn),
// log.E (error) and log.F (fatal, exits the process).
package log

import "github.com/NfNitLoop/nostr-cli/pkg/utils/lol"

var (
	T = &lol.Printer{Level: lol.Trace}
	D = &lol.Printer{Level: lol.Debug}
	I = &lol.Printer{Level: lol.Info}
	W = &lol.Printer{Level: lol.Warn}
	E = &lol.Printer{Level: lol.Error}
	F = &lol.Printer{Level: lol.Fatal}
)
