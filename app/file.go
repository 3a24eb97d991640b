package app

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/NfNitLoop/nostr-cli/app/config"
	"github.com/NfNitLoop/nostr-cli/pkg/collector"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/nip95"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// runFileUpload chunks, signs and publishes a file per NIP-95. The metadata
// event goes first; if the relay rejects it the chunks are never sent.
func runFileUpload(c context.T, args *Args) (err error) {
	cmd := args.File.Upload
	var p *collector.Profile
	if p, err = resolveProfile(args, cmd.Prof); err != nil {
		return
	}
	if p.Seckey == "" {
		return config.Errorf("profile %s has no seckey; upload needs one", p.Name)
	}
	target := p.Destination
	if len(cmd.Relay) > 0 {
		target = cmd.Relay[0]
	}
	if target == "" {
		return config.Errorf("no destination: pass --relay or configure one")
	}

	mimeType := cmd.Mime
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(cmd.Path))
	}
	var f *os.File
	if f, err = os.Open(cmd.Path); chk.E(err) {
		return
	}
	defer f.Close()
	var st os.FileInfo
	if st, err = f.Stat(); chk.E(err) {
		return
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

	var enc *nip95.Encoder
	if enc, err = nip95.NewEncoder(
		f, st.Size(), sign, nip95.Options{
			MaxMessageSize: cmd.MaxMessageSize,
			FileName:       filepath.Base(cmd.Path),
			MimeType:       mimeType,
			Description:    cmd.Description,
			Alt:            cmd.Alt,
		},
	); err != nil {
		return
	}

	var r *ws.Client
	if r, err = ws.Connect(c, target); err != nil {
		return
	}
	defer r.Close()
	sent := 0
	err = enc.Encode(
		func(ev *event.E) (perr error) {
			tc, done := context.Timeout(c, opTimeout)
			defer done()
			res, perr := r.Publish(tc, ev)
			if perr != nil {
				return errorf.E(
					"upload stopped at event %d/%d: %w", sent,
					enc.NumChunks()+1, perr,
				)
			}
			if res.IsDuplicate {
				log.D.F("%s already had %s", target, ev.IdString())
			}
			sent++
			return
		},
	)
	if err != nil {
		return
	}
	fmt.Printf(
		"uploaded %s (%d bytes, %d chunks)\nsha256 %s\n", cmd.Path,
		st.Size(), enc.NumChunks(), enc.HashHex(),
	)
	return
}

// runFileLs lists the kind 1065 file metadata events for an author.
func runFileLs(c context.T, args *Args) (err error) {
	cmd := args.File.Ls
	pubkey := cmd.Pubkey
	if pubkey == "" {
		var p *collector.Profile
		if p, err = resolveProfile(args, cmd.Prof); err != nil {
			return
		}
		pubkey = p.Pubkey
	}
	var clients []*ws.Client
	if clients, err = sourceClients(c, args, cmd.Relay, cmd.Prof); err != nil {
		return
	}
	defer closeAll(clients)
	f := &filter.F{
		Authors: tag.New(pubkey),
		Kinds:   kinds.New(kind.FileMetadata),
	}
	seen := make(map[string]struct{})
	for _, r := range clients {
		for ev := range r.QuerySaved(c, f) {
			if _, dup := seen[ev.IdString()]; dup {
				continue
			}
			seen[ev.IdString()] = struct{}{}
			name := "?"
			if t := ev.Tags.First("name"); t != nil {
				name = string(t.Value())
			}
			size := "?"
			if t := ev.Tags.First("size"); t != nil {
				size = string(t.Value())
			}
			mimeType := "?"
			if t := ev.Tags.First("m"); t != nil {
				mimeType = string(t.Value())
			}
			fmt.Printf(
				"%s\t%s\t%s\t%s\t%d chunks\n", ev.IdString(), name, size,
				mimeType, len(ev.Tags.All("e")),
			)
		}
	}
	if len(seen) == 0 {
		fmt.Println("no files found")
	}
	return
}
