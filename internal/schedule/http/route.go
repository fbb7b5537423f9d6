package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers weekly schedule routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// Public read of a field's weekly windows.
	g.GET("/fields/:id/schedules", h.ListByField)

	group := g.Group("/schedules")
	group.GET("/:id", h.Get)

	admin := group.Group("", authMiddleware, adminMiddleware)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
