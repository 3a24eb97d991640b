package app

import (
	"fmt"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/timestamp"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
)

// filterFromFlags builds the query filter from the command line.
func filterFromFlags(cmd *QueryCmd) (f *filter.F) {
	f = filter.New()
	if len(cmd.Id) > 0 {
		f.Ids = tag.New(cmd.Id...)
	}
	if len(cmd.Author) > 0 {
		f.Authors = tag.New(cmd.Author...)
	}
	if len(cmd.Kind) > 0 {
		f.Kinds = kinds.FromIntSlice(cmd.Kind)
	}
	if cmd.Since != 0 {
		f.Since = timestamp.New(cmd.Since)
	}
	if cmd.Until != 0 {
		f.Until = timestamp.New(cmd.Until)
	}
	if cmd.Limit != 0 {
		lim := cmd.Limit
		f.Limit = &lim
	}
	return
}

// runQuery pages through every relay in turn and prints matching events as
// one JSON object per line. Events appearing on several relays print once
// per relay; downstream tooling dedups by id.
func runQuery(c context.T, args *Args) (err error) {
	cmd := args.Query
	var clients []*ws.Client
	if clients, err = sourceClients(c, args, cmd.Relay, cmd.Prof); err != nil {
		return
	}
	defer closeAll(clients)
	f := filterFromFlags(cmd)
	var n int
	for _, r := range clients {
		for ev := range r.QuerySaved(c, f) {
			fmt.Println(string(ev.Serialize()))
			n++
		}
		if c.Err() != nil {
			break
		}
	}
	if n == 0 {
		fmt.Println("no events matched")
	}
	return
}
