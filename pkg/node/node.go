// Package node exposes a gossip node over HTTP: the /receive endpoint peers
// deliver envelopes to, and the admin surface (state snapshot, message log,
// sleep/wake/reset toggles, health and metrics).
package node

import (
	"net/http"

	"go.uber.org/zap"

	"primemesh/internal/msglog"
	"primemesh/internal/telemetry"
	"primemesh/pkg/gossip"
)

// Server binds a gossip core to its HTTP surface.
type Server struct {
	core   *gossip.Node
	msglog *msglog.Log
	logger *zap.Logger
}

// NewServer wires the HTTP surface around a core and its message log.
func NewServer(core *gossip.Node, log *msglog.Log, logger *zap.Logger) *Server {
	return &Server{core: core, msglog: log, logger: logger}
}

// Routes returns the instrumented HTTP mux for this node.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/receive", telemetry.Instrument("receive", http.HandlerFunc(s.Receive)))
	mux.Handle("/", telemetry.Instrument("state", cors(http.HandlerFunc(s.State))))
	mux.Handle("/message_log", telemetry.Instrument("message_log", cors(http.HandlerFunc(s.MessageLog))))
	mux.Handle("/sleep", telemetry.Instrument("sleep", http.HandlerFunc(s.Sleep)))
	mux.Handle("/wake_up", telemetry.Instrument("wake_up", http.HandlerFunc(s.WakeUp)))
	mux.Handle("/reset", telemetry.Instrument("reset", http.HandlerFunc(s.Reset)))
	mux.HandleFunc("/healthz", s.Healthz)
	mux.HandleFunc("/info", s.Info)
	mux.Handle("/metrics", telemetry.MetricsHandler())
	return mux
}

// cors allows the localhost dashboard to read the admin endpoints.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
