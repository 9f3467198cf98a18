package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leixiaohui-1974/CHS-sub001/envelope"
)

// ControlSink receives control commands from the HTTP surface. The kernel
// satisfies this; commands are queued and honored at step boundaries.
type ControlSink interface {
	Control(cmd envelope.ControlCommand) error
}

// Server exposes /metrics, /healthz and /control for a running simulation.
type Server struct {
	httpServer *http.Server
}

// NewServer creates the observability server on the given port. ctrl may be
// nil, in which case /control answers 503.
func NewServer(port int, ctrl ControlSink) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/control", handleControl(ctrl))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleControl accepts a control_command envelope and forwards it to the
// kernel's asynchronous control queue.
func handleControl(ctrl ControlSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if ctrl == nil {
			http.Error(w, "no control sink attached", http.StatusServiceUnavailable)
			return
		}

		var env envelope.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, fmt.Sprintf("bad envelope: %v", err), http.StatusBadRequest)
			return
		}
		if env.MessageType != envelope.TypeControlCommand {
			http.Error(w, fmt.Sprintf("unexpected message_type %q", env.MessageType), http.StatusBadRequest)
			return
		}

		var cmd envelope.ControlCommand
		if err := env.Decode(&cmd); err != nil {
			http.Error(w, fmt.Sprintf("bad payload: %v", err), http.StatusBadRequest)
			return
		}
		if err := ctrl.Control(cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Info("control command accepted", "command", cmd.Command)
		w.WriteHeader(http.StatusAccepted)
	}
}
