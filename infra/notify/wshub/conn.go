package wshub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API sits behind the station consoles; origin policy is enforced
	// at the reverse proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
// rooms lists the room names the connection joins, typically the station room
// of the authenticated admin.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, userID string, rooms []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade: %v", err)
		return
	}
	c := &client{
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]bool, len(rooms)),
	}
	for _, room := range rooms {
		c.rooms[room] = true
	}
	h.register(c)
	go h.writePump(c, conn)
	go h.readPump(c, conn)
}

// readPump drains inbound frames. Clients send nothing meaningful; the pump
// exists to process control frames and detect disconnects.
func (h *Hub) readPump(c *client, conn *websocket.Conn) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugf("websocket read: %v", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
