package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/appointments")

	// === Public Routes (consumed by the bot) ===
	group.POST("", h.Create)
	group.GET("/active", h.Active)
	group.POST("/:id/cancel-user", h.CancelUser)

	// === Administrative Routes ===
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.GET("/:id", h.GetActive)
		admin.POST("/:id/cancel-manager", h.CancelManager)
	}
}
