package events

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"leadaudit/pkg/logger"
)

// CheckOrigin allows the listed origins, or any origin when the list
// contains "*".
func CheckOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// WSHandler upgrades the request and keeps the client registered until
// it disconnects. Incoming messages are ignored.
func WSHandler(hub *Hub, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     CheckOrigin(allowedOrigins),
	}

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		log := logger.WithContext(c.Request.Context())

		// Once added, only the hub writes to ws.
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`)); err != nil {
			_ = ws.Close()
			return
		}

		hub.Add(ws)
		log.Debug("ws client connected", zap.String("remote", c.ClientIP()))

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		log.Debug("ws client disconnected", zap.String("remote", c.ClientIP()))
	}
}
