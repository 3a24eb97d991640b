package relayinfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/protocol/relayinfo"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws/relaytest"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
)

func TestFetch(t *testing.T) {
	srv := relaytest.New()
	defer srv.Shutdown()
	srv.SupportNIP45 = true

	info, err := relayinfo.Fetch(context.Bg(), srv.URL())
	require.NoError(t, err)
	assert.Equal(t, "relaytest", info.Name)
	assert.True(t, info.HasNIP(1))
	assert.True(t, info.HasNIP(45))
	assert.False(t, info.HasNIP(95))
}

func TestFetchWithoutNIP45(t *testing.T) {
	srv := relaytest.New()
	defer srv.Shutdown()

	info, err := relayinfo.Fetch(context.Bg(), srv.URL())
	require.NoError(t, err)
	assert.False(t, info.HasNIP(45))
}
