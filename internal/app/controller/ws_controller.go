package controller

import (
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/anufa/anufa-backend/internal/middleware"
	"github.com/anufa/anufa-backend/internal/websocket"
)

type WSController struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
}

func NewWSController(hub *websocket.Hub, allowedOrigins []string) *WSController {
	return &WSController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Connect upgrades to a websocket that streams the caller's order events
// GET /ws?token=
func (ctrl *WSController) Connect(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// Upgrade writes its own error response on failure.
	if err := ctrl.hub.Serve(&ctrl.upgrader, c.Writer, c.Request, userID); err != nil {
		middleware.GetLoggerFromContext(c).Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
