// Package broadcast fans notifications out to open push connections.
//
// The registry is process-local and in memory. There is no replay: a client
// that reconnects must refetch state itself.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// Conn is one push connection. Send must not block for long; a returned
// error means the connection is gone and it will be removed.
type Conn interface {
	Send(data []byte) error
}

// Broadcaster owns the set of registered connections.
type Broadcaster struct {
	mu    sync.Mutex
	conns map[Conn]struct{}

	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New returns an empty Broadcaster. m may be nil.
func New(log *zap.Logger, m *metrics.Metrics) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		conns:   make(map[Conn]struct{}),
		log:     log,
		metrics: m,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Register adds c and sends it the "connected" notification. If that first
// send fails, c is not kept and the error is returned.
func (b *Broadcaster) Register(c Conn) error {
	data, err := b.encode(models.NotificationConnected, nil)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.conns[c] = struct{}{}
	n := len(b.conns)
	b.mu.Unlock()
	b.metrics.SetSubscribers(n)

	if err := c.Send(data); err != nil {
		b.drop(c, err)
		return err
	}
	return nil
}

// Unregister removes c. Removing an absent connection is a no-op.
func (b *Broadcaster) Unregister(c Conn) {
	b.mu.Lock()
	delete(b.conns, c)
	n := len(b.conns)
	b.mu.Unlock()
	b.metrics.SetSubscribers(n)
}

// Count returns the number of registered connections.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Publish broadcasts a notification of the given type, stamped now.
// It returns how many connections accepted it.
func (b *Broadcaster) Publish(kind string, data json.RawMessage) int {
	payload, err := b.encode(kind, data)
	if err != nil {
		b.log.Error("encode notification", zap.String("type", kind), zap.Error(err))
		return 0
	}
	b.metrics.Broadcast(kind)
	return b.send(payload)
}

// send pushes payload to a snapshot of the set. Sends happen outside the
// lock; connections that fail are removed (and closed, so their transport
// ends and the client reconnects) and the rest still receive it.
func (b *Broadcaster) send(payload []byte) int {
	b.mu.Lock()
	targets := make([]Conn, 0, len(b.conns))
	for c := range b.conns {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	delivered := 0
	for _, c := range targets {
		if err := c.Send(payload); err != nil {
			b.drop(c, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Broadcaster) drop(c Conn, err error) {
	b.mu.Lock()
	_, present := b.conns[c]
	delete(b.conns, c)
	n := len(b.conns)
	b.mu.Unlock()
	if !present {
		return
	}
	if cl, ok := c.(interface{ Close() }); ok {
		cl.Close()
	}
	b.metrics.SetSubscribers(n)
	b.metrics.SubscriberDropped()
	b.log.Debug("subscriber removed after failed send", zap.Error(err), zap.Int("remaining", n))
}

func (b *Broadcaster) encode(kind string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(models.Notification{
		Type:      kind,
		Timestamp: b.now().UTC(),
		Data:      data,
	})
}

// Start sends a heartbeat every interval until Close. A non-positive
// interval disables heartbeats.
func (b *Broadcaster) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-t.C:
				b.Publish(models.NotificationHeartbeat, nil)
			}
		}
	}()
}

// Close stops the heartbeat and releases every connection. Connections that
// implement Close() are closed.
func (b *Broadcaster) Close() {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()

	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[Conn]struct{})
	b.mu.Unlock()
	b.metrics.SetSubscribers(0)

	for c := range conns {
		if cl, ok := c.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}
