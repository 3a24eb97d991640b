package app

import (
	"github.com/NfNitLoop/nostr-cli/app/config"
	"github.com/NfNitLoop/nostr-cli/pkg/collector"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

// runCopy replicates one named profile.
func runCopy(c context.T, args *Args) (err error) {
	var p *collector.Profile
	if p, err = resolveProfile(args, args.Copy.Prof); err != nil {
		return
	}
	p.Limit = args.Copy.Limit
	return runProfile(c, p)
}

// runCollect replicates every configured profile in turn. A failing profile
// is logged and the rest still run; the first error is reported at the end.
func runCollect(c context.T, args *Args) (err error) {
	var cfg *config.C
	if cfg, err = loadConfig(args); err != nil {
		return
	}
	names := cfg.ProfileNames()
	if len(names) == 0 {
		return config.Errorf("no profiles configured")
	}
	for _, name := range names {
		var p *collector.Profile
		if p, err = cfg.Resolve(name); err != nil {
			return
		}
		p.Limit = args.Collect.Limit
		if perr := runProfile(c, p); perr != nil {
			log.E.F("profile %s failed: %v", name, perr)
			if err == nil {
				err = perr
			}
		}
		if c.Err() != nil {
			return c.Err()
		}
	}
	return
}

func runProfile(c context.T, p *collector.Profile) (err error) {
	if p.Destination == "" {
		return config.Errorf("profile %s has no destination relay", p.Name)
	}
	if len(p.SourceRelays) == 0 {
		return config.Errorf("profile %s has no source relays", p.Name)
	}
	cl := collector.New(p)
	defer cl.Close()
	return cl.Run(c)
}
