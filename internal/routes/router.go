package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pushp314/shortlink-backend/internal/handlers"
	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/service"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Auth        *service.AuthService
	Links       *service.LinkService
	DB          *gorm.DB
	Redis       *redis.Client
	FrontendURL string
}

// New assembles the gin engine with the full middleware chain and all routes.
func New(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Logging())
	r.Use(middleware.ErrorHandler())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(d.FrontendURL))
	r.Use(middleware.GeneralRateLimit())

	authH := handlers.NewAuthHandler(d.Auth)
	linkH := handlers.NewLinkHandler(d.Links)
	healthH := handlers.NewHealthHandler(d.DB, d.Redis)

	RegisterAuthRoutes(r, authH, d.Auth)
	RegisterLinkRoutes(r, linkH, d.Auth)
	r.GET("/health", healthH.Health)

	return r
}
