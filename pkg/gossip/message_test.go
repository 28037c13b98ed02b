package gossip

import (
	"encoding/json"
	"strings"
	"testing"
)

func i64(v int64) *int64 { return &v }

func TestEnvelope_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		wantErr string // empty means valid
	}{
		{"valid ping", Envelope{Type: TypePing, ID: 1, Originator: 5001, Forwarder: 5001, TTL: 0}, ""},
		{"valid pong", Envelope{Type: TypePong, ID: 2, Originator: 5001, Forwarder: 5001, TTL: 0}, ""},
		{"valid prime", Envelope{Type: TypePrime, ID: 3, Originator: 5001, Forwarder: 5002, TTL: 2, Data: i64(7)}, ""},
		{"unknown type", Envelope{Type: "GOSSIP", ID: 1, Originator: 5001, Forwarder: 5001}, "unknown msg_type"},
		{"negative ttl", Envelope{Type: TypePing, ID: 1, Originator: 5001, Forwarder: 5001, TTL: -1}, "negative ttl"},
		{"missing originator", Envelope{Type: TypePing, ID: 1, Forwarder: 5001}, "msg_originator"},
		{"missing forwarder", Envelope{Type: TypePing, ID: 1, Originator: 5001}, "msg_forwarder"},
		{"prime without data", Envelope{Type: TypePrime, ID: 1, Originator: 5001, Forwarder: 5001, TTL: 2}, "without data"},
		{"ping with data", Envelope{Type: TypePing, ID: 1, Originator: 5001, Forwarder: 5001, Data: i64(7)}, "PING envelope with data"},
		{"pong with data", Envelope{Type: TypePong, ID: 1, Originator: 5001, Forwarder: 5001, Data: i64(7)}, "PONG envelope with data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.env.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvelope_DataMarshalsNull(t *testing.T) {
	// PING and PONG carry data: null on the wire, not a missing field.
	b, err := json.Marshal(Envelope{Type: TypePing, ID: 1, Originator: 5001, Forwarder: 5001})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"data":null`) {
		t.Fatalf("marshaled ping = %s, want data:null", b)
	}
}
