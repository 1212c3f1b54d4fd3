// internal/app/features/webhook/events.go
package webhook

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/system/broadcast"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ServeEvents handles GET /webhook/events as a Server-Sent Events stream.
// Each notification is written as "data: <json>\n\n". The subscriber is
// removed when the client goes away.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		apierrors.Write(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := broadcast.NewSubscriber(broadcast.DefaultBuffer)
	defer sub.Close()
	if err := h.Broadcaster.Register(sub); err != nil {
		h.Log.Warn("sse register failed", zap.Error(err))
		return
	}
	defer h.Broadcaster.Unregister(sub)

	log := h.Log.With(zap.String("subscriber", sub.ID()))
	log.Debug("sse subscriber connected", zap.Int("subscribers", h.Broadcaster.Count()))

	for {
		select {
		case <-r.Context().Done():
			log.Debug("sse subscriber disconnected")
			return
		case <-sub.Done():
			return
		case msg := <-sub.Messages():
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				log.Debug("sse write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

// ServeWS handles GET /webhook/ws. It pushes the same notifications as the
// SSE stream, one JSON text frame each. Inbound frames are ignored.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.Log.Info("websocket accept failed", zap.Error(err))
		return
	}
	ctx := c.CloseRead(r.Context())

	conn := broadcast.NewWSConn(ctx, c)
	if err := h.Broadcaster.Register(conn); err != nil {
		h.Log.Info("websocket register failed", zap.Error(err))
		_ = c.Close(websocket.StatusInternalError, "register failed")
		return
	}
	defer h.Broadcaster.Unregister(conn)

	log := h.Log.With(zap.String("subscriber", conn.ID()))
	log.Debug("websocket subscriber connected")
	err = conn.Pump()
	if errors.Is(err, broadcast.ErrClosed) {
		_ = c.Close(websocket.StatusGoingAway, "stream closed; reconnect to resume")
		return
	}
	log.Debug("websocket subscriber disconnected", zap.Error(err))
	_ = c.Close(websocket.StatusNormalClosure, "")
}
