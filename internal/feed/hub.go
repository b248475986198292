package feed

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"driver-review-service/internal/models"
	"driver-review-service/pkg/logger"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client owns one websocket. Only writePump writes to ws.
type client struct {
	ws   *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newClient(ws *websocket.Conn) *client {
	return &client{ws: ws, send: make(chan any, sendQueue), done: make(chan struct{})}
}

// enqueue reports false when the client is gone or its queue is full.
func (c *client) enqueue(msg any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// Hub manages WebSocket subscribers per vehicle number.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*client
	log   logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{conns: make(map[string][]*client), log: log}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/vehicles/{vehicle_number}", h.HandleWS)
	return r
}

// HandleWS upgrades the connection and subscribes it to a vehicle number on every platform.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	vehicle := models.NormalizeVehicleNumber(chi.URLParam(r, "vehicle_number"))
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warning("ws upgrade failed", logger.Error(err))
		return
	}

	conn := newClient(ws)
	go conn.writePump()
	h.mu.Lock()
	h.conns[vehicle] = append(h.conns[vehicle], conn)
	h.mu.Unlock()
	h.log.Debug("ws client subscribed", logger.String("vehicle_number", vehicle))

	// Block until the client disconnects
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.removeConn(vehicle, conn)
	conn.close()
	h.log.Debug("ws client left", logger.String("vehicle_number", vehicle))
}

// Subscribers returns the number of open connections for a vehicle number.
func (h *Hub) Subscribers(vehicle string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[models.NormalizeVehicleNumber(vehicle)])
}

// Broadcast queues msg for every subscriber of the vehicle number without blocking.
// Subscribers whose queue is full are disconnected.
func (h *Hub) Broadcast(vehicle string, msg any) {
	vehicle = models.NormalizeVehicleNumber(vehicle)
	h.mu.RLock()
	conns := append([]*client(nil), h.conns[vehicle]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(msg) {
			h.log.Warning("ws subscriber dropped", logger.String("vehicle_number", vehicle))
			h.removeConn(vehicle, c)
			c.close()
		}
	}
}

func (h *Hub) removeConn(vehicle string, conn *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[vehicle]
	for i, c := range conns {
		if c == conn {
			h.conns[vehicle] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[vehicle]) == 0 {
		delete(h.conns, vehicle)
	}
}
