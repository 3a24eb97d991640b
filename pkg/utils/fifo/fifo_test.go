package fifo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
)

func TestSendReceiveOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Send(i))
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Receive(context.Bg())
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestCloseDrainsBeforeEndOfStream(t *testing.T) {
	q := New[string]()
	require.NoError(t, q.Send("a"))
	require.NoError(t, q.Send("b"))
	q.Close()
	v, ok := q.Receive(context.Bg())
	require.True(t, ok)
	assert.Equal(t, "a", v)
	v, ok = q.Receive(context.Bg())
	require.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = q.Receive(context.Bg())
	assert.False(t, ok, "closed and drained queue must signal end of stream")
}

func TestSendAfterCloseFails(t *testing.T) {
	q := New[int]()
	q.Close()
	q.Close() // idempotent
	assert.ErrorIs(t, q.Send(1), ErrClosed)
}

func TestReceiveWakesOnSend(t *testing.T) {
	q := New[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = q.Send(42)
	}()
	v, ok := q.Receive(context.Bg())
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestReceiveWakesOnClose(t *testing.T) {
	q := New[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Close()
	}()
	_, ok := q.Receive(context.Bg())
	assert.False(t, ok)
}

func TestReceiveHonorsContext(t *testing.T) {
	q := New[int]()
	c, cancel := context.Timeout(context.Bg(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, ok := q.Receive(c)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUnboundedGrowth(t *testing.T) {
	q := New[int]()
	// a slow consumer costs memory, never blocks the producer
	for i := 0; i < 100000; i++ {
		require.NoError(t, q.Send(i))
	}
	assert.Equal(t, 100000, q.Len())
}
