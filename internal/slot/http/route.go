package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/slots")

	// === Public Routes (consumed by the bot) ===
	group.GET("", h.ListForDate)
	group.GET("/free-dates", h.FreeDates)

	// === Administrative Routes ===
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.POST("", h.Provision)
		admin.POST("/:id/mark-free", h.MarkFree)
		admin.POST("/:id/mark-busy", h.MarkBusy)
	}
}
