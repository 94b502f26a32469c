package websocket

import (
	"log"
	"net/http"
	"sync"

	"training-erp/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected costing dashboard.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans costing events (summary created/refreshed/deleted, special cases
// allocated or paid, approval decisions) out to connected dashboards. The
// Broadcast channel is buffered so services can fire events without waiting
// on slow consumers.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run is the dispatch loop; start it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Costing dashboard connected (%d active)", count)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("Costing dashboard disconnected (%d active)", len(h.clients))
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Drop clients that stopped draining their queue.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump drains the client's send queue onto the connection.
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump only watches for the close; dashboards never send anything the
// backend acts on.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// dashboardRoleAllowed gates the event stream: reviewers and coordinators
// watch costing changes, nobody else connects.
func dashboardRoleAllowed(role string) bool {
	return model.IsPrivilegedRole(role) || role == model.RoleCoordinator
}

// ServeWs authenticates the ?token= query parameter and upgrades the
// request to a websocket subscribed to costing events.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		log.Println("WebSocket connection rejected: invalid token:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("WebSocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	role, _ := claims["role"].(string)
	if !dashboardRoleAllowed(role) {
		log.Println("WebSocket connection rejected: inadequate permissions")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
