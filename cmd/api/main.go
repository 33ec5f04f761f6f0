// cmd/api/main.go
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"smartmoney/internal/assistant"
	"smartmoney/internal/auth"
	"smartmoney/internal/banksim"
	"smartmoney/internal/config"
	"smartmoney/internal/handler"
	"smartmoney/internal/middleware"
	"smartmoney/internal/storage/postgres"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	pool, err := pgxpool.New(context.Background(), cfg.DBConn)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("Database ping failed", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to PostgreSQL")

	store := postgres.NewStorage(pool)
	tokenService := auth.NewTokenService(cfg)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Production randomness is wall-clock seeded and non-reproducible;
	// tests inject their own source.
	sim := banksim.New(rand.New(rand.NewSource(time.Now().UnixNano())))

	var gateway handler.Gateway
	if cfg.GeminiAPIKey != "" {
		gw, err := assistant.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("Failed to init Gemini client", "error", err)
			os.Exit(1)
		}
		gateway = gw
	} else {
		slog.Warn("GEMINI_API_KEY not set, assistant disabled")
	}

	authHandler := handler.NewAuthHandler(store, tokenService)
	ledgerHandler := handler.NewLedgerHandler(store, sim)
	assistantHandler := handler.NewAssistantHandler(store, gateway)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "SmartMoney API is running! 🚀"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/profile", authMiddleware.RequireAuth(), authHandler.Profile)

	router.GET("/dashboard/:user_id", ledgerHandler.Dashboard)
	router.GET("/subscriptions/:user_id", ledgerHandler.Subscriptions)
	router.GET("/achievements/:user_id", ledgerHandler.Achievements)
	router.POST("/transactions/:user_id", ledgerHandler.AddTransaction)
	router.POST("/bank/sync/:user_id", ledgerHandler.BankSync)

	router.POST("/chat/:user_id", assistantHandler.Chat)
	router.POST("/scan-receipt", assistantHandler.ScanReceipt)

	slog.Info("🚀 Server started", "port", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}
}
