package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers field photo routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	g.GET("/fields/:id/photos", h.ListByField)
	g.GET("/files/:id", h.Serve)
	g.GET("/files/:id/thumbnail", h.ServeThumbnail)

	// === Admin Routes ===
	admin := g.Group("", authMiddleware, adminMiddleware)
	{
		admin.POST("/fields/:id/photos", h.Upload)
		admin.DELETE("/files/:id", h.Delete)
	}
}
