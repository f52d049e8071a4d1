package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleAdminWebSocket upgrades an already-authenticated admin request
// and keeps the connection registered until the peer goes away.
func HandleAdminWebSocket(c echo.Context, hub *Hub, adminID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		AdminID: adminID,
		Conn:    conn,
	}

	hub.register <- client

	conn.WriteJSON(Event{
		Type:    EventTypeConnected,
		Message: "WebSocket connection established",
	})

	go func() {
		defer func() {
			hub.unregister <- client
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
