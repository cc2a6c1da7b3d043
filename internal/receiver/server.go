package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/wire"
	"github.com/bft-labs/xferbench/pkg/log"
)

// Server exposes the receiver endpoints: POST /data/save for the request
// strategies, GET /data/stream for the persistent stream, and a health
// probe.
type Server struct {
	sink     *Sink
	logger   log.Logger
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a receiver server listening on addr.
func NewServer(addr string, sink *Sink, logger log.Logger) *Server {
	s := &Server{
		sink:   sink,
		logger: logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the receiver's route table. Exposed separately so
// tests can mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/save", s.handleSave)
	mux.HandleFunc("/data/stream", s.handleStream)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe serves until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("receiver listening", log.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleSave accepts one record per request. The response status maps
// the sink's decision: 200 accepted, 422 rejected, 500 store failure.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req wire.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	err := s.sink.Accept(r.Context(), req.Record)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, wire.SaveResponse{
			ID:     req.Record.ID,
			Status: wire.StatusAccepted,
		})
	case errors.Is(err, domain.ErrRecordRejected):
		writeJSON(w, http.StatusUnprocessableEntity, wire.SaveResponse{
			ID:     req.Record.ID,
			Status: wire.StatusRejected,
			Detail: err.Error(),
		})
	default:
		s.logger.Error("save failed", log.Int64("record_id", req.Record.ID), log.Err(err))
		writeJSON(w, http.StatusInternalServerError, wire.SaveResponse{
			ID:     req.Record.ID,
			Status: wire.StatusRejected,
			Detail: "store failure",
		})
	}
}

// handleStream upgrades to a websocket and runs one stream session:
// hello, per-record acks in arrival order, then a final summary once the
// end marker arrives.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("stream upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	if err := conn.WriteJSON(wire.Envelope{Type: wire.TypeHello, ConnectionID: connID}); err != nil {
		s.logger.Error("stream hello failed", log.String("connection_id", connID), log.Err(err))
		return
	}

	s.logger.Info("stream session opened", log.String("connection_id", connID))

	var accepted, rejected int64
	for {
		var env wire.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			s.logger.Warn("stream session dropped",
				log.String("connection_id", connID),
				log.Err(err))
			return
		}

		switch env.Type {
		case wire.TypeRecord:
			if env.Record == nil {
				continue
			}
			ack := wire.Ack{ID: env.Record.ID, Status: wire.StatusAccepted}
			if err := s.sink.Accept(r.Context(), *env.Record); err != nil {
				ack.Status = wire.StatusRejected
				ack.Detail = err.Error()
				rejected++
			} else {
				accepted++
			}
			if err := conn.WriteJSON(wire.Envelope{Type: wire.TypeAck, Ack: &ack}); err != nil {
				s.logger.Warn("stream ack write failed",
					log.String("connection_id", connID),
					log.Err(err))
				return
			}

		case wire.TypeEnd:
			sum := wire.Summary{Accepted: accepted, Rejected: rejected}
			if err := conn.WriteJSON(wire.Envelope{Type: wire.TypeSummary, Summary: &sum}); err != nil {
				s.logger.Warn("stream summary write failed",
					log.String("connection_id", connID),
					log.Err(err))
				return
			}
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			s.logger.Info("stream session complete",
				log.String("connection_id", connID),
				log.Int64("accepted", accepted),
				log.Int64("rejected", rejected))
			return

		default:
			s.logger.Debug("ignoring unexpected stream message",
				log.String("connection_id", connID),
				log.String("type", env.Type))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
