// Package config loads the TOML profile configuration and the ambient
// environment settings.
//
// The TOML file has three top level tables: [default] for values shared by
// every profile, [profiles.<name>] for each replication target, and
// [relaySets.<name>] for named lists of source relays.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	env "go-simpler.org/env"

	"github.com/NfNitLoop/nostr-cli/pkg/collector"
	"github.com/NfNitLoop/nostr-cli/pkg/crypto/p256k"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/hex"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/normalize"
	"github.com/NfNitLoop/nostr-cli/pkg/version"
)

// Error reports an invalid or incomplete configuration.
type Error struct {
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return "config: " + e.Message }

// Errorf creates a config Error.
func Errorf(format string, a ...any) (err error) {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

// Env holds the ambient process settings read from the environment.
type Env struct {
	LogLevel string `env:"NOSTR_CLI_LOG_LEVEL" default:"info" usage:"log level: fatal error warn info debug trace"`
	Pprof    bool   `env:"NOSTR_CLI_PPROF" default:"false" usage:"write a cpu profile on exit"`
}

// LoadEnv reads the ambient settings.
func LoadEnv() (e *Env, err error) {
	e = &Env{}
	if err = env.Load(e, nil); err != nil {
		return nil, err
	}
	return
}

// DefaultPath is where the config file lives unless --config says otherwise.
func DefaultPath() (path string) {
	return filepath.Join(xdg.ConfigHome, version.Name, "config.toml")
}

// Profile is one [profiles.<name>] table (or the [default] table). Pointer
// fields distinguish "unset, inherit the default" from an explicit value.
type Profile struct {
	Pubkey           string `toml:"pubkey"`
	Seckey           string `toml:"seckey"`
	Destination      string `toml:"destination"`
	FetchMine        *bool  `toml:"fetchMine"`
	FetchFollows     *bool  `toml:"fetchFollows"`
	FetchMyRefs      *bool  `toml:"fetchMyRefs"`
	FetchFollowsRefs *bool  `toml:"fetchFollowsRefs"`
	SourceRelays     string `toml:"sourceRelays"`
}

// RelaySet is one [relaySets.<name>] table.
type RelaySet struct {
	Relays []string `toml:"relays"`
}

// C is the whole configuration file.
type C struct {
	Default   Profile              `toml:"default"`
	Profiles  map[string]*Profile  `toml:"profiles"`
	RelaySets map[string]*RelaySet `toml:"relaySets"`
}

// Load reads and validates the config file. An empty path means the default
// location.
func Load(path string) (c *C, err error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err = os.Stat(path); err != nil {
		return nil, Errorf("cannot read %s: %v", path, err)
	}
	c = &C{}
	if _, err = toml.DecodeFile(path, c); err != nil {
		return nil, Errorf("cannot parse %s: %v", path, err)
	}
	for name := range c.Profiles {
		if _, err = c.Resolve(name); err != nil {
			return nil, err
		}
	}
	return
}

// ProfileNames lists the configured profile names.
func (c *C) ProfileNames() (names []string) {
	for name := range c.Profiles {
		names = append(names, name)
	}
	return
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func boolOr(v, def *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	if def != nil {
		return *def
	}
	return fallback
}

// Resolve merges a named profile over the defaults, resolves its relay set,
// and validates everything, producing the collector's view of the profile.
func (c *C) Resolve(name string) (p *collector.Profile, err error) {
	prof := c.Profiles[name]
	if prof == nil {
		return nil, Errorf("no profile named '%s'", name)
	}
	def := &c.Default
	p = &collector.Profile{
		Name:             name,
		Pubkey:           orDefault(prof.Pubkey, def.Pubkey),
		Seckey:           orDefault(prof.Seckey, def.Seckey),
		Destination:      orDefault(prof.Destination, def.Destination),
		FetchMine:        boolOr(prof.FetchMine, def.FetchMine, true),
		FetchFollows:     boolOr(prof.FetchFollows, def.FetchFollows, true),
		FetchMyRefs:      boolOr(prof.FetchMyRefs, def.FetchMyRefs, true),
		FetchFollowsRefs: boolOr(prof.FetchFollowsRefs, def.FetchFollowsRefs, true),
	}
	if _, err = hex.DecExact(p.Pubkey, p256k.PubKeyLen); err != nil {
		return nil, Errorf("profile %s: pubkey must be 64 hex characters", name)
	}
	if p.Seckey != "" {
		if _, err = hex.DecExact(p.Seckey, p256k.SecKeyLen); err != nil {
			return nil, Errorf("profile %s: seckey must be 64 hex characters", name)
		}
	}
	if p.Destination != "" {
		if u := normalize.URL(p.Destination); u == nil {
			return nil, Errorf(
				"profile %s: malformed destination URL '%s'", name,
				p.Destination,
			)
		} else {
			p.Destination = string(u)
		}
	}
	setName := orDefault(prof.SourceRelays, def.SourceRelays)
	if setName != "" {
		set := c.RelaySets[setName]
		if set == nil {
			return nil, Errorf(
				"profile %s: relay set '%s' does not exist", name, setName,
			)
		}
		for _, u := range set.Relays {
			nu := normalize.URL(u)
			if nu == nil {
				return nil, Errorf(
					"relay set %s: malformed URL '%s'", setName, u,
				)
			}
			p.SourceRelays = append(p.SourceRelays, string(nu))
		}
	}
	return
}
