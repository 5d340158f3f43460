package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"tap_miniapp/internal/api"
	"tap_miniapp/internal/middleware"
	"tap_miniapp/internal/repository"
	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/auth"
	"tap_miniapp/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	catalogService := service.NewCatalogService(repo)
	boosts, tasks, err := cfg.Catalog.Models()
	if err != nil {
		zapLogger.Fatal("Invalid catalog configuration", zap.Error(err))
	}
	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = catalogService.Seed(seedCtx, boosts, tasks)
	cancel()
	if err != nil {
		zapLogger.Fatal("Failed to seed catalog", zap.Error(err))
	}
	zapLogger.Info("Catalog seeded", zap.Int("boosts", len(boosts)), zap.Int("tasks", len(tasks)))

	userService := service.NewUserService(repo)
	ledgerService := service.NewLedgerService(repo, cfg.Ledger)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.Auth())
	authz := middleware.NewAuthorization(middleware.Config{
		EnforceOwnership: cfg.TelegramAuth.EnforceOwnership,
		AdminIDs:         cfg.TelegramAuth.AdminIDs,
	})

	var avatars api.AvatarFetcher
	if cfg.Avatars.Enabled {
		avatars = api.NewTelegramAvatars(telegramAuth.GetBotToken())
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger())

	config := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		config.AllowOrigins = cfg.Server.AllowOrigins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
	config.AllowHeaders = []string{"*"}
	config.ExposeHeaders = []string{api.RequestIDHeader}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, catalogService, avatars, telegramAuth, authz)
	api.NewLedgerRoutes(a, ledgerService, telegramAuth, authz)
	api.NewCatalogRoutes(a, catalogService, telegramAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
