package main

import (
	"log"
	"log/slog"
	"net/http"

	"scanmap-server/internal/middleware"
	"scanmap-server/internal/scan"
	"scanmap-server/internal/server"
	"scanmap-server/internal/shared/cache"
	"scanmap-server/internal/shared/config"
	"scanmap-server/internal/shared/database"
	"scanmap-server/internal/shared/logger"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatal("Failed to initialize configuration:", err)
	}

	logger.Init()

	slog.Info("Starting scanmap server",
		"environment", config.GlobalConfig.Server.Environment,
		"port", config.GlobalConfig.Server.Port,
	)

	db, err := database.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()

	if err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	queryCache, err := cache.Connect()
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer func() {
		if err := queryCache.Close(); err != nil {
			slog.Error("Failed to close Redis connection", "error", err)
		}
	}()

	scanRepo := scan.NewRepository(db, config.GlobalConfig.Ingest.BatchSize, slog.With("component", "scan_repository"))
	scanService := scan.NewService(scanRepo, queryCache, config.GlobalConfig.Cache.ScanListTTL, slog.With("component", "scan_service"))

	routes := server.NewRoutes(db, queryCache, scanService, slog.Default())
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Enabled:           config.GlobalConfig.RateLimit.Enabled,
		RequestsPerSecond: config.GlobalConfig.RateLimit.RequestsPerSecond,
		BurstSize:         config.GlobalConfig.RateLimit.BurstSize,
		TrustProxy:        config.GlobalConfig.RateLimit.TrustProxy,
	})
	corsMiddleware := middleware.NewCORS()

	handler := corsMiddleware.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + config.GlobalConfig.Server.Port,
		Handler:      handler,
		ReadTimeout:  config.GlobalConfig.Server.ReadTimeout,
		WriteTimeout: config.GlobalConfig.Server.WriteTimeout,
		IdleTimeout:  config.GlobalConfig.Server.IdleTimeout,
	}

	slog.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
