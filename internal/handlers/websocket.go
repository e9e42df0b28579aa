package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/realtime"
	"github.com/chachabrian/carpool-backend/internal/services"
)

// WebSocketHandler streams the caller's own bus events as JSON frames.
func WebSocketHandler(bus realtime.Subscriber, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		services.HandleWebSocket(bus, c.Writer, c.Request, middleware.UserID(c), logger)
	}
}
