package app

import (
	"errors"
	"time"

	"github.com/NfNitLoop/nostr-cli/app/config"
	"github.com/NfNitLoop/nostr-cli/pkg/collector"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// opTimeout bounds the single-shot commands (lookup, info, send); the long
// running ones (copy, collect, query, file upload) run until done or
// interrupted.
const opTimeout = 30 * time.Second

// Run dispatches the parsed arguments. A nil error means exit code 0.
func Run(c context.T, args *Args) (err error) {
	switch {
	case args.Decode != nil:
		return runDecode(args.Decode)
	case args.Generate != nil:
		return runGenerate()
	case args.Info != nil:
		return runInfo(c, args.Info)
	case args.Lookup != nil:
		return runLookup(c, args)
	case args.Query != nil:
		return runQuery(c, args)
	case args.Send != nil:
		return runSend(c, args)
	case args.Copy != nil:
		return runCopy(c, args)
	case args.Collect != nil:
		return runCollect(c, args)
	case args.File != nil:
		switch {
		case args.File.Upload != nil:
			return runFileUpload(c, args)
		case args.File.Ls != nil:
			return runFileLs(c, args)
		}
		return errors.New("file needs a subcommand: upload or ls")
	}
	return errors.New("no command given; see --help")
}

// loadConfig reads the config file named by --config or the default path.
func loadConfig(args *Args) (cfg *config.C, err error) {
	return config.Load(args.Config)
}

// resolveProfile loads the named profile, or the sole configured one when
// name is empty.
func resolveProfile(args *Args, name string) (p *collector.Profile, err error) {
	var cfg *config.C
	if cfg, err = loadConfig(args); err != nil {
		return
	}
	if name == "" {
		names := cfg.ProfileNames()
		if len(names) != 1 {
			return nil, config.Errorf(
				"pick one of the %d configured profiles with --profile",
				len(names),
			)
		}
		name = names[0]
	}
	return cfg.Resolve(name)
}

// sourceClients connects to the --relay flags when given, or the profile's
// source relays otherwise. At least one connection must succeed.
func sourceClients(
	c context.T, args *Args, flagRelays []string, profName string,
) (clients []*ws.Client, err error) {
	urls := flagRelays
	if len(urls) == 0 {
		var p *collector.Profile
		if p, err = resolveProfile(args, profName); err != nil {
			return
		}
		urls = p.SourceRelays
	}
	if len(urls) == 0 {
		return nil, config.Errorf("no relays: pass --relay or configure sourceRelays")
	}
	for _, u := range urls {
		r, cerr := ws.Connect(c, u)
		if cerr != nil {
			log.W.F("relay %s unreachable: %v", u, cerr)
			continue
		}
		clients = append(clients, r)
	}
	if len(clients) == 0 {
		err = errors.New("no relay could be reached")
	}
	return
}

func closeAll(clients []*ws.Client) {
	for _, r := range clients {
		_ = r.Close()
	}
}
