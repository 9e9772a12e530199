package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"SpectraFM/logger"
	"SpectraFM/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 30 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	chatTimeout    = 2 * time.Minute
)

// socket serialises writes; gorilla allows one concurrent writer per connection.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *socket) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// pingLoop keeps the connection alive until done is closed.
func (s *socket) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// authorizeSocket validates the token passed as a query parameter; browsers cannot set
// headers on websocket upgrades.
func (s *Server) authorizeSocket(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Token required")
		return "", false
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		logger.Warn("Invalid WebSocket token", logger.ErrorField(err))
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return "", false
	}
	return claims.Subject, true
}

// DJSocketHandler streams DJ replies. Each reply is framed as start, content chunks, end.
func (s *Server) DJSocketHandler(w http.ResponseWriter, r *http.Request) {
	subject, ok := s.authorizeSocket(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket", logger.String("subject", subject), logger.ErrorField(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	sock := &socket{conn: conn}
	done := make(chan struct{})
	go sock.pingLoop(done)
	defer close(done)

	logger.Info("DJ socket connected", logger.String("subject", subject))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket unexpected close", logger.String("subject", subject), logger.ErrorField(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			sendSocketError(sock, "Invalid message format")
			continue
		}
		req.Text = strings.TrimSpace(req.Text)
		if req.Text == "" {
			sendSocketError(sock, "Message text is required")
			continue
		}
		s.streamReply(r.Context(), sock, req)
	}
}

func (s *Server) streamReply(parent context.Context, sock *socket, req model.ChatRequest) {
	ctx, cancel := context.WithTimeout(parent, chatTimeout)
	defer cancel()

	track, ok := s.trackOrCurrent(req.TrackID)
	if !ok {
		sendSocketError(sock, "Track not found")
		return
	}

	if err := sock.writeJSON(model.WebSocketMessage{Type: "start"}); err != nil {
		return
	}
	s.dj.ChatStream(ctx, req.Text, track, func(chunk string) error {
		return sock.writeJSON(model.WebSocketMessage{Type: "content", Content: chunk})
	})
	if err := sock.writeJSON(model.WebSocketMessage{Type: "end"}); err != nil {
		logger.Warn("Failed to finish DJ reply", logger.ErrorField(err))
	}
}

func sendSocketError(sock *socket, message string) {
	if err := sock.writeJSON(model.WebSocketMessage{Type: "error", Content: message}); err != nil {
		logger.Warn("Failed to send WebSocket error", logger.ErrorField(err))
	}
}
