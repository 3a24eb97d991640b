// Package relayinfo fetches the NIP-11 relay information document: a single
// HTTP GET against the relay's host with the websocket scheme rewritten to
// http(s) and the nostr+json accept header.
package relayinfo

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/normalize"
)

// Limitation is the server limitation block of the information document.
type Limitation struct {
	MaxMessageLength int  `json:"max_message_length,omitempty"`
	MaxSubscriptions int  `json:"max_subscriptions,omitempty"`
	MaxLimit         int  `json:"max_limit,omitempty"`
	AuthRequired     bool `json:"auth_required,omitempty"`
	PaymentRequired  bool `json:"payment_required,omitempty"`
}

// T is a partial NIP-11 information document; unknown fields are ignored.
type T struct {
	Name          string      `json:"name,omitempty"`
	Description   string      `json:"description,omitempty"`
	PubKey        string      `json:"pubkey,omitempty"`
	Contact       string      `json:"contact,omitempty"`
	SupportedNIPs []int       `json:"supported_nips,omitempty"`
	Software      string      `json:"software,omitempty"`
	Version       string      `json:"version,omitempty"`
	Limitation    *Limitation `json:"limitation,omitempty"`
}

// HasNIP reports whether the relay advertises support for NIP n.
func (t *T) HasNIP(n int) (has bool) {
	for _, s := range t.SupportedNIPs {
		if s == n {
			return true
		}
	}
	return
}

// Fetch retrieves the information document for a relay websocket URL. The
// ambient HTTP client's defaults apply; bound c for a tighter timeout.
func Fetch(c context.T, wsURL string) (info *T, err error) {
	u := normalize.HTTPURL(string(normalize.URL(wsURL)))
	var req *http.Request
	if req, err = http.NewRequestWithContext(c, http.MethodGet, u, nil); err != nil {
		return
	}
	req.Header.Set("Accept", "application/nostr+json")
	var resp *http.Response
	if resp, err = http.DefaultClient.Do(req); err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = errorf.D("relay info fetch from %s: status %s", u, resp.Status)
		return
	}
	var body []byte
	if body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err != nil {
		return
	}
	info = &T{}
	if err = json.Unmarshal(body, info); err != nil {
		info = nil
		err = errorf.D("relay info from %s is malformed: %w", u, err)
	}
	return
}
