package node

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"primemesh/pkg/gossip"
)

// Receive is the dispatch entry point peers POST envelopes to. A malformed
// envelope is rejected with 400 and logged; it never takes the node down.
func (s *Server) Receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env gossip.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		s.logger.Warn("malformed envelope", zap.Error(err))
		s.msglog.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := env.Validate(); err != nil {
		s.logger.Warn("invalid envelope", zap.Error(err))
		s.msglog.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.core.HandleEnvelope(env) {
		fmt.Fprint(w, "Asleep")
		return
	}
	s.msglog.RecordEnvelope(env, true)
	fmt.Fprint(w, "OK")
}

// State writes the node's current snapshot.
func (s *Server) State(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, s.core.Snapshot())
}

// MessageLog writes the last 5 logged messages.
func (s *Server) MessageLog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.msglog.Tail(5))
}

// Sleep suspends all node side effects until WakeUp.
func (s *Server) Sleep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.core.Sleep()
	fmt.Fprint(w, "OK")
}

// WakeUp resumes normal operation.
func (s *Server) WakeUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.core.Wake()
	fmt.Fprint(w, "OK")
}

// Reset clears protocol state (keeping the message counter monotonic) and
// empties the message log.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.core.Reset()
	s.msglog.Clear()
	fmt.Fprint(w, "OK")
}

// Healthz returns 200 OK to indicate the node is alive.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Info writes a JSON payload with the process ID, current time, and peer count.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	snap := s.core.Snapshot()
	type resp struct {
		PID   int       `json:"pid"`
		Now   time.Time `json:"now"`
		Name  string    `json:"name"`
		Peers int       `json:"peers"`
	}
	writeJSON(w, resp{PID: os.Getpid(), Now: time.Now(), Name: snap.Name, Peers: len(snap.Peers)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
