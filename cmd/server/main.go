package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pushp314/shortlink-backend/internal/config"
	"github.com/pushp314/shortlink-backend/internal/database"
	"github.com/pushp314/shortlink-backend/internal/repository"
	"github.com/pushp314/shortlink-backend/internal/routes"
	"github.com/pushp314/shortlink-backend/internal/service"
	"github.com/pushp314/shortlink-backend/internal/sweeper"
	"github.com/pushp314/shortlink-backend/internal/token"
	"github.com/pushp314/shortlink-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting shortlink backend")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	redisClient := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewLinkRepository(db)

	tokens := token.NewManager(cfg.JWTSecret)
	blacklist := database.NewBlacklist(redisClient)

	authSvc := service.NewAuthService(userRepo, tokens, blacklist)
	linkSvc := service.NewLinkService(linkRepo)

	r := routes.New(routes.Deps{
		Auth:        authSvc,
		Links:       linkSvc,
		DB:          db,
		Redis:       redisClient,
		FrontendURL: cfg.FrontendURL,
	})

	// Expired links are swept at startup and then on an interval.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweeper.New(linkSvc, cfg.SweepInterval).Run(sweepCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
