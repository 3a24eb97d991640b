package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/NfNitLoop/nostr-cli/app/config"
	"github.com/NfNitLoop/nostr-cli/pkg/collector"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/relayinfo"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// runDecode parses an event JSON, reports whether it verifies, and prints
// the indented form.
func runDecode(cmd *DecodeCmd) (err error) {
	var b []byte
	if cmd.File == "" || cmd.File == "-" {
		if b, err = io.ReadAll(os.Stdin); chk.E(err) {
			return
		}
	} else {
		if b, err = os.ReadFile(cmd.File); chk.E(err) {
			return
		}
	}
	ev := event.New()
	if err = ev.Unmarshal(b); err != nil {
		return errorf.E("not a valid event: %w", err)
	}
	fmt.Println(string(ev.SerializeIndented()))
	if !ev.Verify() {
		return errorf.E("event %s does NOT verify", ev.IdString())
	}
	fmt.Printf("signature OK (%s)\n", ev.IdString())
	return
}

// runGenerate prints a fresh key pair in hex.
func runGenerate() (err error) {
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		return
	}
	fmt.Printf("seckey: %s\n", hex.Enc(sign.Sec()))
	fmt.Printf("pubkey: %s\n", hex.Enc(sign.Pub()))
	return
}

// runInfo fetches and prints a relay information document.
func runInfo(c context.T, cmd *InfoCmd) (err error) {
	tc, done := context.Timeout(c, opTimeout)
	defer done()
	var info *relayinfo.T
	if info, err = relayinfo.Fetch(tc, cmd.Relay); err != nil {
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(info, "", "\t"); chk.E(err) {
		return
	}
	fmt.Println(string(b))
	return
}

// runLookup fetches the kind 0 profile event for a pubkey and prints it.
func runLookup(c context.T, args *Args) (err error) {
	cmd := args.Lookup
	if _, err = hex.DecExact(cmd.Pubkey, p256k.PubKeyLen); err != nil {
		return config.Errorf("pubkey must be 64 hex characters")
	}
	var clients []*ws.Client
	if clients, err = sourceClients(c, args, cmd.Relay, cmd.Prof); err != nil {
		return
	}
	defer closeAll(clients)
	tc, done := context.Timeout(c, opTimeout)
	defer done()
	multi := collector.NewMultiClient(clients)
	ev := multi.GetProfile(tc, cmd.Pubkey)
	if ev == nil {
		return errorf.E("no profile found for %s", cmd.Pubkey)
	}
	fmt.Println(string(ev.SerializeIndented()))
	return
}

// runSend signs a kind 1 note with the profile's key and publishes it.
func runSend(c context.T, args *Args) (err error) {
	cmd := args.Send
	var p *collector.Profile
	if p, err = resolveProfile(args, cmd.Prof); err != nil {
		return
	}
	if p.Seckey == "" {
		return config.Errorf("profile %s has no seckey; send needs one", p.Name)
	}
	urls := cmd.Relay
	if len(urls) == 0 {
		if p.Destination == "" {
			return config.Errorf("no destination: pass --relay or configure one")
		}
		urls = []string{p.Destination}
	}
	var skb []byte
	if skb, err = hex.DecExact(p.Seckey, p256k.SecKeyLen); err != nil {
		return
	}
	sign := &p256k.Signer{}
	if err = sign.InitSec(skb); chk.E(err) {
		return
	}
	defer sign.Zero()
	ev := &event.E{
		Kind:    kind.TextNote,
		Content: []byte(cmd.Message),
	}
	if err = ev.Sign(sign); chk.E(err) {
		return
	}
	for _, u := range urls {
		var r *ws.Client
		tc, done := context.Timeout(c, opTimeout)
		if r, err = ws.Connect(tc, u); err != nil {
			done()
			return
		}
		var res ws.PublishResult
		res, err = r.Publish(tc, ev)
		done()
		_ = r.Close()
		if err != nil {
			return errorf.E("publish to %s failed: %w", u, err)
		}
		if res.IsDuplicate {
			log.I.F("%s already had %s", u, ev.IdString())
		}
	}
	fmt.Println(ev.IdString())
	return
}
