package node

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"primemesh/pkg/gossip"
)

func portOf(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return port
}

func TestHTTPTransport_Deliver(t *testing.T) {
	var got gossip.Envelope
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/receive" {
			t.Errorf("delivered to %s, want /receive", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer ts.Close()

	tp := NewHTTPTransport(time.Second)
	env := gossip.Envelope{Type: gossip.TypePrime, ID: 7, Originator: 5001, Forwarder: 5001, TTL: 2}
	data := int64(127)
	env.Data = &data

	if err := tp.Deliver(portOf(t, ts), env); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.ID != 7 || got.Type != gossip.TypePrime || *got.Data != 127 {
		t.Fatalf("peer received %+v, want the envelope intact", got)
	}
}

func TestHTTPTransport_UnreachablePeer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	port := portOf(t, ts)
	ts.Close() // nothing is listening there anymore

	tp := NewHTTPTransport(200 * time.Millisecond)
	if err := tp.Deliver(port, gossip.Envelope{Type: gossip.TypePing, ID: 1, Originator: 5001, Forwarder: 5001}); err == nil {
		t.Fatal("Deliver to a dead peer succeeded")
	}
}

func TestHTTPTransport_Non200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad envelope", http.StatusBadRequest)
	}))
	defer ts.Close()

	tp := NewHTTPTransport(time.Second)
	if err := tp.Deliver(portOf(t, ts), gossip.Envelope{Type: gossip.TypePing, ID: 1, Originator: 5001, Forwarder: 5001}); err == nil {
		t.Fatal("Deliver reported success on a 400 response")
	}
}
