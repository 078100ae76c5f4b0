// internal/app/realtime/conn.go
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single frame write so one hung recipient
	// cannot stall its write loop.
	writeWait = 10 * time.Second

	// pongWait is how long the read side waits for traffic or a pong
	// before the transport is considered dead.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = 30 * time.Second

	// sendBuffer is the per-connection outbound queue depth. A full
	// queue fails the send rather than blocking the emitter.
	sendBuffer = 256
)

var errConnClosed = errors.New("connection closed")
var errSendBufferFull = errors.New("send buffer full")

// Socket is the websocket-backed Conn implementation. Outbound frames
// are queued on a buffered channel drained by a single write loop, so
// Send never performs transport I/O on the caller's goroutine.
type Socket struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	log  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewSocket(ws *websocket.Conn, logger *zap.Logger) *Socket {
	return &Socket{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		log:  logger,
	}
}

func (s *Socket) ID() string { return s.id }

// Send serializes the frame and queues it for the write loop.
func (s *Socket) Send(f Outbound) error {
	raw, err := f.Encode()
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errConnClosed
	}
	select {
	case s.send <- raw:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close tears down the transport. Safe to call more than once and
// concurrently with in-flight sends.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.send)
	return s.ws.Close()
}

// Closed reports whether the socket has been torn down.
func (s *Socket) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// WriteLoop drains the send queue onto the transport and keeps the
// connection alive with periodic pings. Runs until the queue closes or
// a write fails.
func (s *Socket) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case raw, ok := <-s.send:
			if !ok {
				s.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop reads inbound frames and hands them to the dispatcher until
// the transport closes, then retires the connection. The per-connection
// read loop is the one goroutine allowed to read from the transport.
func (s *Socket) ReadLoop(ctx context.Context, d *Dispatcher, reg *Registry) {
	defer func() {
		reg.Retire(s)
		s.Close()
	}()

	s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read error",
					zap.String("conn_id", s.id),
					zap.Error(err))
			}
			return
		}
		d.Dispatch(ctx, s, raw)
	}
}
