package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"signage-control-plane/internal/broadcast"
)

// WSHandler upgrades display clients to WebSocket and attaches them to the
// broadcast fabric.
type WSHandler struct {
	fabric   *broadcast.Fabric
	upgrader websocket.Upgrader
}

func NewWSHandler(fabric *broadcast.Fabric) *WSHandler {
	return &WSHandler{
		fabric: fabric,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Displays are unattended devices without a fixed origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// registerMessage is the only client-to-server frame the server understands.
type registerMessage struct {
	Action string `json:"action"`
	Domain string `json:"domain"`
}

// Serve upgrades the request and keeps the connection registered until the
// client disconnects. The domain comes from the ?domain= query parameter;
// a later {"action":"register","domain":...} frame moves the connection.
func (h *WSHandler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	domain := c.Query("domain")
	if domain == "" {
		domain = broadcast.DomainAll
	}

	conn := newWSConn(ws)
	h.fabric.Register(conn, domain)
	defer func() {
		h.fabric.Unregister(conn)
		_ = conn.Close()
	}()

	// Read loop: handles register frames and notices disconnects.
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("broadcast: connection closed: %v", err)
			}
			return
		}
		var msg registerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Action == "register" && msg.Domain != "" {
			h.fabric.Register(conn, msg.Domain)
		}
	}
}

// wsConn adapts a gorilla connection to broadcast.Conn. Gorilla allows one
// concurrent writer, so writes are serialized under a mutex.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) WriteEvent(ctx context.Context, ev broadcast.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Second)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
