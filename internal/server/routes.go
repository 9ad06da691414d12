package server

import (
	"log/slog"
	"net/http"

	"scanmap-server/internal/scan"
	scanHandlers "scanmap-server/internal/scan/handlers"
	serverHandlers "scanmap-server/internal/server/handlers"
	"scanmap-server/internal/shared/cache"
	"scanmap-server/internal/shared/config"
	"scanmap-server/internal/shared/database"
)

type Routes struct {
	db          *database.DB
	cache       *cache.Cache
	scanService *scan.Service
	logger      *slog.Logger
}

func NewRoutes(db *database.DB, cache *cache.Cache, scanService *scan.Service, logger *slog.Logger) *Routes {
	return &Routes{
		db:          db,
		cache:       cache,
		scanService: scanService,
		logger:      logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.cache)
	scanHandler := scanHandlers.NewScanHandler(r.scanService, config.GlobalConfig.Ingest.MaxUploadBytes)

	mux.Handle("/api/server/health", healthHandler)

	// The scan surface multiplexes on form fields and query parameters, so
	// everything else lands on the root handler.
	mux.HandleFunc("/", scanHandler.Root)

	logger.Info("Routes configured successfully",
		"endpoints", []string{"/", "/api/server/health"},
	)

	return mux
}
