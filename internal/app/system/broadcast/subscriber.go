package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Errors returned by Send.
var (
	ErrClosed = errors.New("subscriber closed")
	ErrSlow   = errors.New("subscriber buffer full")
)

// DefaultBuffer is the number of messages a Subscriber can queue.
const DefaultBuffer = 16

// Subscriber is a channel-backed Conn. The transport goroutine drains
// Messages and writes them out; Send never blocks.
type Subscriber struct {
	id   string
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// NewSubscriber returns a Subscriber with room for buffer queued messages.
func NewSubscriber(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Subscriber{
		id:   uuid.NewString(),
		ch:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// ID identifies the subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// Send queues data. It fails once the subscriber is closed or when the
// queue is full, which means the client stopped reading.
func (s *Subscriber) Send(data []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.ch <- data:
		return nil
	case <-s.done:
		return ErrClosed
	default:
		return ErrSlow
	}
}

// Messages is drained by the transport goroutine.
func (s *Subscriber) Messages() <-chan []byte { return s.ch }

// Done is closed by Close.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Close marks the subscriber closed. Safe to call more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() { close(s.done) })
}

// WSConn pushes notifications over a WebSocket as text frames. Send only
// queues; Pump writes the queue out, so a stalled socket never holds up a
// broadcast.
type WSConn struct {
	*Subscriber
	conn    *websocket.Conn
	ctx     context.Context
	timeout time.Duration
}

// NewWSConn wraps an accepted WebSocket. ctx ends the connection; it is
// usually the context returned by conn.CloseRead.
func NewWSConn(ctx context.Context, conn *websocket.Conn) *WSConn {
	return &WSConn{
		Subscriber: NewSubscriber(DefaultBuffer),
		conn:       conn,
		ctx:        ctx,
		timeout:    5 * time.Second,
	}
}

// Send queues one frame.
func (w *WSConn) Send(data []byte) error {
	if w.ctx.Err() != nil {
		return ErrClosed
	}
	return w.Subscriber.Send(data)
}

// Pump writes queued frames to the socket until the connection ends.
// It returns ErrClosed when the broadcaster closed the connection.
func (w *WSConn) Pump() error {
	for {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-w.Done():
			return ErrClosed
		case msg := <-w.Messages():
			ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
			err := w.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				w.Close()
				return err
			}
		}
	}
}
