package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/wire"
	"github.com/bft-labs/xferbench/pkg/log"
)

// StreamState represents the lifecycle of the persistent channel.
type StreamState int

const (
	// StreamIdle - no connection attempted yet.
	StreamIdle StreamState = iota
	// StreamConnecting - dial in progress.
	StreamConnecting
	// StreamOpen - channel established, records flowing.
	StreamOpen
	// StreamDraining - end marker sent, awaiting the final summary.
	StreamDraining
	// StreamClosed - channel torn down. Terminal.
	StreamClosed
)

// String returns the string representation of the state.
func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamConnecting:
		return "connecting"
	case StreamOpen:
		return "open"
	case StreamDraining:
		return "draining"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	dialAttempts     = 5
	handshakeTimeout = 10 * time.Second
	helloTimeout     = 5 * time.Second
)

// Stream delivers records over one long-lived bidirectional websocket
// shared by all chunks of a run. The producer pushes records without
// waiting for acknowledgments; a concurrent reader pump matches
// acknowledgments to records by ID as they arrive, in arbitrary order.
// Those two roles run on separate goroutines so unacknowledged sends
// never stall the producer.
type Stream struct {
	url      string
	dialer   websocket.Dialer
	recorder Recorder
	logger   log.Logger

	mu          sync.Mutex
	state       StreamState
	conn        *websocket.Conn
	connID      string
	pending     map[int64]struct{}
	lastSummary *wire.Summary

	readerDone chan struct{}
	summaryCh  chan wire.Summary
}

// NewStream creates the persistent-stream strategy. The channel is not
// dialed until Open.
func NewStream(cfg Config, rec Recorder, logger log.Logger) *Stream {
	return &Stream{
		url:        streamURL(cfg.ServiceURL),
		dialer:     websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		recorder:   rec,
		logger:     logger,
		state:      StreamIdle,
		pending:    make(map[int64]struct{}),
		readerDone: make(chan struct{}),
		summaryCh:  make(chan wire.Summary, 1),
	}
}

// Name identifies the strategy.
func (s *Stream) Name() string { return "stream" }

// Open dials the receiver's stream endpoint, retrying with backoff, and
// waits for the hello message before declaring the channel open. The
// reader pump starts here and runs until the channel closes.
func (s *Stream) Open(ctx context.Context) error {
	s.setState(StreamConnecting)

	var conn *websocket.Conn
	back := newBackoff(500*time.Millisecond, 5*time.Second)
	for attempt := 1; ; attempt++ {
		var err error
		conn, _, err = s.dialer.DialContext(ctx, s.url, nil)
		if err == nil {
			break
		}
		if attempt >= dialAttempts {
			s.setState(StreamClosed)
			return fmt.Errorf("dial %s after %d attempts: %w", s.url, attempt, err)
		}
		s.logger.Warn("stream dial failed, retrying",
			log.String("url", s.url),
			log.Int("attempt", attempt),
			log.Err(err))
		if serr := back.Sleep(ctx); serr != nil {
			s.setState(StreamClosed)
			return serr
		}
	}

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	var hello wire.Envelope
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		s.setState(StreamClosed)
		return fmt.Errorf("read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})
	if hello.Type != wire.TypeHello {
		conn.Close()
		s.setState(StreamClosed)
		return fmt.Errorf("expected %s message, got %q", wire.TypeHello, hello.Type)
	}

	s.mu.Lock()
	s.conn = conn
	s.connID = hello.ConnectionID
	s.mu.Unlock()
	s.setState(StreamOpen)

	s.logger.Info("stream channel established",
		log.String("url", s.url),
		log.String("connection_id", hello.ConnectionID))

	go s.readPump(conn)
	return nil
}

// Send pushes every record of the chunk onto the channel without waiting
// for the prior record's acknowledgment, preserving enqueue order. A
// write failure closes the channel, fails all unacknowledged records,
// and ends the run.
func (s *Stream) Send(ctx context.Context, chunk domain.Chunk) error {
	s.mu.Lock()
	if s.state != StreamOpen || s.conn == nil {
		s.mu.Unlock()
		return domain.ErrChannelClosed
	}
	conn := s.conn
	s.mu.Unlock()

	for i := range chunk.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := chunk.Records[i]

		s.mu.Lock()
		s.pending[rec.ID] = struct{}{}
		s.mu.Unlock()

		if err := conn.WriteJSON(wire.Envelope{Type: wire.TypeRecord, Record: &rec}); err != nil {
			s.failPending(err)
			conn.Close()
			s.setState(StreamClosed)
			return fmt.Errorf("%w: push record %d: %v", domain.ErrChannelClosed, rec.ID, err)
		}
	}
	return nil
}

// Close drains the channel: it sends the end-of-stream marker, waits for
// the receiver's final summary, fails anything still unacknowledged, and
// closes the connection. Idempotent once the channel is closed.
func (s *Stream) Close(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	state := s.state
	s.mu.Unlock()

	if conn == nil || state == StreamClosed || state == StreamIdle {
		s.setState(StreamClosed)
		return nil
	}

	s.setState(StreamDraining)
	if err := conn.WriteJSON(wire.Envelope{Type: wire.TypeEnd}); err != nil {
		s.failPending(err)
		conn.Close()
		return fmt.Errorf("%w: send end marker: %v", domain.ErrChannelClosed, err)
	}

	var closeErr error
	select {
	case sum := <-s.summaryCh:
		s.logger.Info("stream summary received",
			log.Int64("accepted", sum.Accepted),
			log.Int64("rejected", sum.Rejected))
	case <-s.readerDone:
		// The pump may have delivered the summary just before exiting.
		select {
		case sum := <-s.summaryCh:
			s.logger.Info("stream summary received",
				log.Int64("accepted", sum.Accepted),
				log.Int64("rejected", sum.Rejected))
		default:
			closeErr = domain.ErrChannelClosed
		}
	case <-ctx.Done():
		s.failPending(ctx.Err())
		closeErr = ctx.Err()
	}

	// Acks that never arrived are terminal failures.
	s.failPending(domain.ErrChannelClosed)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()
	s.setState(StreamClosed)
	return closeErr
}

// State returns the current channel state.
func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState transitions the channel state under the lock.
func (s *Stream) setState(st StreamState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// FinalSummary returns the receiver's final tally, if one arrived before
// the channel closed.
func (s *Stream) FinalSummary() (wire.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSummary == nil {
		return wire.Summary{}, false
	}
	return *s.lastSummary, true
}

// readPump consumes acknowledgments and the final summary. It owns all
// reads on the connection and exits when the summary arrives or the
// channel drops, failing every unacknowledged record on the way out.
func (s *Stream) readPump(conn *websocket.Conn) {
	defer close(s.readerDone)

	for {
		var env wire.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			s.failPending(err)
			s.setState(StreamClosed)
			return
		}

		switch env.Type {
		case wire.TypeAck:
			if env.Ack != nil {
				s.resolve(*env.Ack)
			}
		case wire.TypeSummary:
			if env.Summary != nil {
				s.mu.Lock()
				sum := *env.Summary
				s.lastSummary = &sum
				s.mu.Unlock()
				select {
				case s.summaryCh <- *env.Summary:
				default:
				}
			}
			return
		default:
			s.logger.Debug("ignoring unexpected stream message", log.String("type", env.Type))
		}
	}
}

// resolve matches one acknowledgment to its pending record and records
// the outcome. Duplicate or unknown acks are dropped so each record
// yields exactly one outcome.
func (s *Stream) resolve(ack wire.Ack) {
	s.mu.Lock()
	if _, ok := s.pending[ack.ID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, ack.ID)
	s.mu.Unlock()

	if ack.Status == wire.StatusAccepted {
		s.recorder.Record(domain.Success(ack.ID))
	} else {
		s.recorder.Record(domain.Failure(ack.ID, ack.Detail))
	}
}

// failPending marks every record pushed but not yet acknowledged as a
// failure with reason ChannelClosedBeforeAck.
func (s *Stream) failPending(cause error) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.pending = make(map[int64]struct{})
	s.mu.Unlock()

	for _, id := range ids {
		s.recorder.Record(domain.Failure(id, fmt.Sprintf("ChannelClosedBeforeAck: %v", cause)))
	}
}
