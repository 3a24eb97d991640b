// Package app is the CLI: argument surface, command dispatch and the glue
// between the config file and the client library.
package app

import (
	"github.com/NfNitLoop/nostr-cli/pkg/version"
)

// Args is the full command line surface.
type Args struct {
	Config string `arg:"--config" help:"path to the TOML config file"`
	Debug  bool   `arg:"--debug" help:"enable debug logging"`
	Pprof  bool   `arg:"--pprof" help:"write a cpu profile"`

	Decode   *DecodeCmd   `arg:"subcommand:decode" help:"parse and verify an event JSON"`
	Lookup   *LookupCmd   `arg:"subcommand:lookup" help:"look up a profile by pubkey"`
	Generate *GenerateCmd `arg:"subcommand:generate" help:"generate a new key pair"`
	Copy     *CopyCmd     `arg:"subcommand:copy" help:"replicate one profile to its destination relay"`
	Collect  *CollectCmd  `arg:"subcommand:collect" help:"replicate every configured profile"`
	Query    *QueryCmd    `arg:"subcommand:query" help:"query relays and print matching events"`
	Info     *InfoCmd     `arg:"subcommand:info" help:"fetch a relay's NIP-11 information document"`
	Send     *SendCmd     `arg:"subcommand:send" help:"sign and publish a text note"`
	File     *FileCmd     `arg:"subcommand:file" help:"NIP-95 file operations"`
}

// Version is printed by go-arg's --version.
func (Args) Version() string { return version.Name + " " + version.V }

// DecodeCmd parses an event JSON, verifies it and prints it indented.
type DecodeCmd struct {
	File string `arg:"positional" help:"file holding the event JSON; empty or - reads stdin"`
}

// LookupCmd fetches the kind 0 profile for a pubkey.
type LookupCmd struct {
	Pubkey string   `arg:"positional,required" help:"64 hex character pubkey"`
	Relay  []string `arg:"-r,--relay,separate" help:"relay to ask; repeatable; defaults to the profile's source relays"`
	Prof   string   `arg:"-p,--profile" help:"config profile supplying the relays"`
}

// GenerateCmd creates a new key pair and prints it.
type GenerateCmd struct{}

// CopyCmd runs the collector for one profile.
type CopyCmd struct {
	Prof  string `arg:"positional,required" help:"profile name from the config file"`
	Limit uint   `arg:"--limit" help:"events copied per author"`
}

// CollectCmd runs the collector for every configured profile.
type CollectCmd struct {
	Limit uint `arg:"--limit" help:"events copied per author"`
}

// QueryCmd runs a paged query and prints matching events as NDJSON.
type QueryCmd struct {
	Author []string `arg:"-a,--author,separate" help:"author pubkey; repeatable"`
	Kind   []int    `arg:"-k,--kind,separate" help:"event kind; repeatable"`
	Id     []string `arg:"-i,--id,separate" help:"event id; repeatable"`
	Since  int64    `arg:"--since" help:"inclusive lower created_at bound"`
	Until  int64    `arg:"--until" help:"inclusive upper created_at bound"`
	Limit  uint     `arg:"-l,--limit" help:"stop after this many events"`
	Relay  []string `arg:"-r,--relay,separate" help:"relay to query; repeatable"`
	Prof   string   `arg:"-p,--profile" help:"config profile supplying the relays"`
}

// InfoCmd fetches and prints a relay information document.
type InfoCmd struct {
	Relay string `arg:"positional,required" help:"relay websocket URL"`
}

// SendCmd signs a kind 1 note and publishes it.
type SendCmd struct {
	Message string   `arg:"positional,required" help:"note content"`
	Relay   []string `arg:"-r,--relay,separate" help:"relay to publish to; defaults to the profile destination"`
	Prof    string   `arg:"-p,--profile" help:"config profile supplying the key and destination"`
}

// FileCmd groups the NIP-95 subcommands.
type FileCmd struct {
	Upload *FileUploadCmd `arg:"subcommand:upload" help:"chunk, sign and publish a file"`
	Ls     *FileLsCmd     `arg:"subcommand:ls" help:"list published files"`
}

// FileUploadCmd uploads one file.
type FileUploadCmd struct {
	Path           string   `arg:"positional,required" help:"file to upload"`
	Mime           string   `arg:"--mime" help:"MIME type; guessed from the extension when omitted"`
	Description    string   `arg:"--description" help:"metadata event content"`
	Alt            string   `arg:"--alt" help:"accessibility description"`
	MaxMessageSize int      `arg:"--max-message-size" default:"65536" help:"maximum JSON length per event"`
	Relay          []string `arg:"-r,--relay,separate" help:"relay to publish to; defaults to the profile destination"`
	Prof           string   `arg:"-p,--profile" help:"config profile supplying the key and destination"`
}

// FileLsCmd lists kind 1065 file metadata events.
type FileLsCmd struct {
	Pubkey string   `arg:"--pubkey" help:"author to list; defaults to the profile owner"`
	Relay  []string `arg:"-r,--relay,separate" help:"relay to query; repeatable"`
	Prof   string   `arg:"-p,--profile" help:"config profile"`
}
