// Command nostr-cli is a client for nostr relays: it queries, publishes,
// uploads files, and replicates a user's social graph between relays.
// Configuration is a TOML file plus a few environment variables.
package main

import (
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/pkg/profile"

	"github.com/NfNitLoop/nostr-cli/app"
	"github.com/NfNitLoop/nostr-cli/app/config"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/lol"
)

func main() {
	var args app.Args
	arg.MustParse(&args)
	env, err := config.LoadEnv()
	if chk.E(err) {
		os.Exit(1)
	}
	lol.SetLogLevel(env.LogLevel)
	if args.Debug {
		lol.SetLogLevel("debug")
	}
	if args.Pprof || env.Pprof {
		defer profile.Start(profile.CPUProfile).Stop()
	}
	ctx, cancel := signal.NotifyContext(context.Bg(), os.Interrupt)
	defer cancel()
	if err = app.Run(ctx, &args); err != nil {
		log.F.Ln(err)
	}
}
