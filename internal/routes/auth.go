package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/internal/handlers"
	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/service"
)

func RegisterAuthRoutes(r gin.IRouter, h *handlers.AuthHandler, auth *service.AuthService) {
	r.POST("/register", middleware.AuthRateLimit(), h.Register)
	r.POST("/token", middleware.AuthRateLimit(), h.Token)
	r.POST("/logout", middleware.RequireAuth(auth), h.Logout)
	r.GET("/users/me", middleware.RequireAuth(auth), h.Me)
}
