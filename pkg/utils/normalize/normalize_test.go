package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	for in, want := range map[string]string{
		"relay.example.com":        "wss://relay.example.com",
		"wss://relay.example.com/": "wss://relay.example.com",
		"WSS://Relay.Example.COM":  "wss://relay.example.com",
		"https://relay.example.com": "wss://relay.example.com",
		"http://127.0.0.1:7447":     "ws://127.0.0.1:7447",
		"localhost:7447":            "ws://localhost:7447",
		"wss://relay.example.com/v1": "wss://relay.example.com/v1",
	} {
		assert.Equal(t, want, string(URL(in)), "input: %s", in)
	}
	assert.Nil(t, URL("://not a url"))
	assert.Nil(t, URL(""))
}

func TestHTTPURL(t *testing.T) {
	assert.Equal(t, "https://relay.example.com", HTTPURL("wss://relay.example.com"))
	assert.Equal(t, "http://127.0.0.1:7447", HTTPURL("ws://127.0.0.1:7447"))
}
