// Package normalize canonicalizes relay URLs so that one relay maps to one
// cache key no matter how the user spelled it.
package normalize

import (
	"net/url"
	"strings"
)

// URL normalizes a relay address: a missing scheme becomes wss:// (ws:// for
// addresses starting with localhost or 127.0.0.1), http(s) schemes are
// rewritten to their websocket equivalents, the host is lowercased and a
// single trailing slash on a bare path is dropped. Returns nil if the
// address cannot be parsed or has no host name.
func URL(u string) []byte {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "ws://") && !strings.HasPrefix(lower, "wss://") &&
		!strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.HasPrefix(lower, "localhost") ||
			strings.HasPrefix(lower, "127.0.0.1") {
			u = "ws://" + u
		} else {
			u = "wss://" + u
		}
	}
	p, err := url.Parse(u)
	if err != nil || p.Hostname() == "" {
		return nil
	}
	switch p.Scheme {
	case "http":
		p.Scheme = "ws"
	case "https":
		p.Scheme = "wss"
	}
	p.Host = strings.ToLower(p.Host)
	if p.Path == "/" {
		p.Path = ""
	}
	return []byte(p.String())
}

// HTTPURL rewrites a websocket relay URL to the http(s) URL used for the
// relay information document fetch. Returns the input unchanged when it does
// not carry a websocket scheme.
func HTTPURL(u string) string {
	switch {
	case strings.HasPrefix(u, "ws://"):
		return "http://" + u[len("ws://"):]
	case strings.HasPrefix(u, "wss://"):
		return "https://" + u[len("wss://"):]
	}
	return u
}
