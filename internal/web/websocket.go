// internal/web/websocket.go
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade websocket")
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	s.wsMu.Lock()
	s.wsClients[client] = true
	s.wsMu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordWebSocketConnection(1)
	}

	go client.writePump()
	go client.readPump()
}

// removeClient drops c once; the send channel is closed here and nowhere else.
func (s *Server) removeClient(c *WSClient) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	if !s.wsClients[c] {
		return
	}
	delete(s.wsClients, c)
	close(c.send)
	if s.metrics != nil {
		s.metrics.RecordWebSocketConnection(-1)
	}
}

func (s *Server) closeWebSockets() {
	s.wsMu.Lock()
	clients := make([]*WSClient, 0, len(s.wsClients))
	for c := range s.wsClients {
		clients = append(clients, c)
	}
	s.wsMu.Unlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.server.removeClient(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends an event to every connected websocket client.
func (s *Server) Broadcast(eventType string, data interface{}) {
	s.broadcast(WSMessage{Type: eventType, Data: data})
}

func (s *Server) broadcast(message WSMessage) {
	s.wsMu.Lock()
	var slow []*WSClient
	for client := range s.wsClients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	s.wsMu.Unlock()

	for _, client := range slow {
		s.removeClient(client)
	}
}

func (s *Server) websocketClients() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return len(s.wsClients)
}
