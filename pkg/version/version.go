// Package version carries the application name and the version string
// reported by the CLI.
package version

// V is the current version of nostr-cli.
var V = "v1.2.0"

// Name is the application name used in logs and config paths.
var Name = "nostr-cli"
