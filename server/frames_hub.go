package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"SpectraFM/core/sampler"
	"SpectraFM/core/visualizer"
	"SpectraFM/logger"

	"github.com/gorilla/websocket"
)

// FrameMessage is one rendered frame as sent to viewers.
type FrameMessage struct {
	Type    string                   `json:"type"` // always "frame"
	Scene   visualizer.SceneSnapshot `json:"scene"`
	Average float64                  `json:"average"`
	Bands   []float64                `json:"bands"` // FrameBands coarse band means
	Peak    int                      `json:"peak"`  // loudest bin, -1 when there are no bins
	Elapsed float64                  `json:"elapsed"`
}

// FrameBands is how many bands a frame's spectrum is reduced to for viewers.
const FrameBands = 16

// FrameClient is one frame-stream viewer.
type FrameClient struct {
	Hub  *FrameHub
	Conn *websocket.Conn
	Send chan []byte
}

// FrameHub fans frames out to every connected viewer. Slow viewers are dropped rather than
// allowed to hold up the render loop.
type FrameHub struct {
	mu      sync.RWMutex
	clients map[*FrameClient]bool

	register   chan *FrameClient
	unregister chan *FrameClient
	broadcast  chan []byte
	done       chan struct{}
}

func NewFrameHub() *FrameHub {
	return &FrameHub{
		clients:    make(map[*FrameClient]bool),
		register:   make(chan *FrameClient),
		unregister: make(chan *FrameClient),
		broadcast:  make(chan []byte, 8),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is done, closing every client.
func (h *FrameHub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info("Frame viewer registered", logger.Int("viewers", h.Count()))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ctx.Done():
			close(h.done)
			h.cleanup()
			return
		}
	}
}

func (h *FrameHub) remove(client *FrameClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *FrameHub) fanOut(msg []byte) {
	h.mu.RLock()
	var slow []*FrameClient
	for client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.remove(client)
	}
}

func (h *FrameHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*FrameClient]bool)
}

// Register adds client. It reports false once the hub has stopped.
func (h *FrameHub) Register(client *FrameClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *FrameHub) Unregister(client *FrameClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues msg without blocking; when the queue is full the frame is skipped.
func (h *FrameHub) Broadcast(msg []byte) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		return false
	}
}

func (h *FrameHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastFrame is called by the render loop after every tick.
func (s *Server) broadcastFrame(f visualizer.Frame) {
	if s.frames.Count() == 0 {
		return
	}
	peak, _ := sampler.Peak(f.Snapshot.Bins)
	data, err := json.Marshal(FrameMessage{
		Type:    "frame",
		Scene:   s.scene.Snapshot(),
		Average: f.Snapshot.Average,
		Bands:   sampler.Bands(make([]float64, FrameBands), f.Snapshot.Bins),
		Peak:    peak,
		Elapsed: f.Elapsed,
	})
	if err != nil {
		logger.Warn("Failed to encode frame", logger.ErrorField(err))
		return
	}
	s.frames.Broadcast(data)
}

// FramesSocketHandler streams scene state to a viewer.
func (s *Server) FramesSocketHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeSocket(w, r); !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket", logger.ErrorField(err))
		return
	}

	client := &FrameClient{Hub: s.frames, Conn: conn, Send: make(chan []byte, 16)}
	if !s.frames.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
}

// ReadPump only watches for close and pong frames; viewers send nothing.
func (c *FrameClient) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Frame socket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

// WritePump sends queued frames and periodic pings.
func (c *FrameClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
