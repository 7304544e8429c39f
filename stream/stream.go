// Package stream streams localization diagnostics to external viewers over websockets.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milosgajdos/go-vloc/diag"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing to a closed hub.
var ErrClosed = errors.New("hub closed")

const (
	// sendBuffer is the number of records queued per viewer
	sendBuffer = 16
	// writeWait is the time allowed to write a record to a viewer
	writeWait = 5 * time.Second
)

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts diagnostics records to connected viewers.
// Slow viewers miss records rather than block the publisher.
type Hub struct {
	mu       sync.Mutex
	viewers  map[*viewer]struct{}
	closed   bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates new Hub and returns it.
// If logger is nil no logging is done.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		viewers: make(map[*viewer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// viewers are local debugging tools
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler returns HTTP handler upgrading requests to viewer connections.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("viewer upgrade failed", zap.Error(err))
			return
		}

		v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
		if !h.add(v) {
			conn.Close()
			return
		}
		h.logger.Info("viewer connected", zap.String("addr", conn.RemoteAddr().String()))

		go h.write(v)
		h.read(v)
	})
}

func (h *Hub) add(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.viewers[v] = struct{}{}

	return true
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// read discards viewer messages until the connection fails.
func (h *Hub) read(v *viewer) {
	defer h.remove(v)

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("viewer read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) write(v *viewer) {
	defer v.conn.Close()

	for msg := range v.send {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("viewer write failed", zap.Error(err))
			return
		}
	}

	_ = v.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// Publish sends rec to all connected viewers.
// It returns the number of viewers the record was queued for.
// It returns error if the hub is closed or rec fails to encode.
func (h *Hub) Publish(rec *diag.Record) (int, error) {
	msg, err := json.Marshal(rec)
	if err != nil {
		return 0, errors.Wrap(err, "encode record")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrClosed
	}

	sent := 0
	for v := range h.viewers {
		select {
		case v.send <- msg:
			sent++
		default:
			h.logger.Debug("viewer too slow, record dropped")
		}
	}

	return sent, nil
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.viewers)
}

// Close disconnects all viewers. Publishing to a closed hub fails.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}

	return nil
}
