package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPub = "82a4a84ca26e47fb041606f6e6baba3dc5c82a74bc9921a70c909c52067e5351"
	testSec = "f5dfe77a89298142e2d464ca4368485c8b23825c082ff69be80538f980c403dc"
)

func writeConfig(t *testing.T, body string) (path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return
}

func TestLoadAndResolve(t *testing.T) {
	path := writeConfig(
		t, `
[default]
fetchFollows = false
sourceRelays = "main"
destination = "wss://archive.example.com"

[profiles.alice]
pubkey = "`+testPub+`"
seckey = "`+testSec+`"

[profiles.bob]
pubkey = "`+testPub+`"
destination = "nos.example.com"
fetchFollows = true

[relaySets.main]
relays = ["wss://one.example.com", "relay.two.example.com/"]
`,
	)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, cfg.ProfileNames())

	alice, err := cfg.Resolve("alice")
	require.NoError(t, err)
	assert.Equal(t, testPub, alice.Pubkey)
	assert.Equal(t, testSec, alice.Seckey)
	assert.Equal(t, "wss://archive.example.com", alice.Destination)
	assert.True(t, alice.FetchMine, "unset switches default to true")
	assert.False(t, alice.FetchFollows, "the default table turned this off")
	assert.True(t, alice.FetchMyRefs)
	assert.True(t, alice.FetchFollowsRefs)
	require.Len(t, alice.SourceRelays, 2)
	assert.Equal(t, "wss://one.example.com", alice.SourceRelays[0])
	assert.Equal(t, "wss://relay.two.example.com", alice.SourceRelays[1],
		"bare host gets the wss scheme and loses the trailing slash")

	bob, err := cfg.Resolve("bob")
	require.NoError(t, err)
	assert.True(t, bob.FetchFollows, "profile overrides the default table")
	assert.Equal(t, "wss://nos.example.com", bob.Destination)
}

func TestResolveUnknownProfile(t *testing.T) {
	path := writeConfig(
		t, `
[profiles.alice]
pubkey = "`+testPub+`"
`,
	)
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.Resolve("nobody")
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
}

func TestValidationFailures(t *testing.T) {
	for name, body := range map[string]string{
		"missing relay set": `
[profiles.a]
pubkey = "` + testPub + `"
sourceRelays = "nope"
`,
		"short pubkey": `
[profiles.a]
pubkey = "abcd"
`,
		"bad seckey": `
[profiles.a]
pubkey = "` + testPub + `"
seckey = "not hex"
`,
		"bad relay url": `
[profiles.a]
pubkey = "` + testPub + `"
sourceRelays = "main"

[relaySets.main]
relays = ["://not a url"]
`,
	} {
		path := writeConfig(t, body)
		_, err := Load(path)
		var cerr *Error
		assert.ErrorAs(t, err, &cerr, "case: %s", name)
	}
}

func TestMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	var cerr *Error
	assert.ErrorAs(t, err, &cerr)
}
