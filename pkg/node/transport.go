package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"primemesh/pkg/gossip"
)

// HTTPTransport delivers envelopes by POSTing JSON to the peer's /receive
// endpoint. Peers are addressed by listening port on the local host, which
// is how primemesh nodes identify themselves on the wire.
type HTTPTransport struct {
	client *http.Client
	host   string
}

// NewHTTPTransport returns a transport with a bounded per-request timeout
// so one dead peer can't hold up a fan-out round for long.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		host:   "localhost",
	}
}

// Deliver implements gossip.Transport.
func (t *HTTPTransport) Deliver(peer int, env gossip.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	url := fmt.Sprintf("http://%s:%d/receive", t.host, peer)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to %d: %w", peer, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("peer %d responded %s", peer, resp.Status)
	}
	return nil
}
