package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/drivers")

	// === Public Routes (consumed by the bot) ===
	group.GET("/by-phone", h.GetByPhone)
	group.PATCH("/:id", h.BindChat)

	// === Administrative Routes ===
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.POST("", h.Create)
		admin.POST("/:id/assign-car", h.AssignCar)
	}
}
