package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/internal/handlers"
	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/service"
)

func RegisterLinkRoutes(r gin.IRouter, h *handlers.LinkHandler, auth *service.AuthService) {
	links := r.Group("/links")
	links.POST("/shorten", middleware.OptionalAuth(auth), h.Shorten)
	links.PUT("/:shortCode", middleware.RequireAuth(auth), h.Update)
	links.DELETE("/:shortCode", middleware.RequireAuth(auth), h.Delete)
	links.GET("/:shortCode/stats", h.Stats)
	links.GET("/search/", h.Search)

	// Redirect route sits at the root so short URLs stay short.
	r.GET("/:shortCode", h.Redirect)
}
