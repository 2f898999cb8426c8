package api

import (
	"context"
	"encoding/json"
	"net/http"

	"linisco-sync-layer/internal/application"
	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SyncRunner runs store and fleet synchronizations
type SyncRunner interface {
	SyncStore(ctx context.Context, storeID string, r domain.Range) (*domain.SyncResult, error)
	SyncFleet(ctx context.Context, r domain.Range, storeIDs ...string) (*domain.FleetResult, error)
}

// StatsReader answers the read-side operations
type StatsReader interface {
	GetStats(ctx context.Context, q application.StatsQuery) (*domain.Stats, error)
	GetSyncStatus(ctx context.Context) (*domain.SyncStatus, error)
	Cleanup(ctx context.Context, retentionDays int) (*domain.CleanupResult, error)
}

// AuthManager warms and reports store tokens
type AuthManager interface {
	AuthenticateAll(ctx context.Context, force bool) []application.AuthOutcome
	AuthStatus(ctx context.Context) ([]domain.TokenStatusReport, error)
}

// Dependencies are the services the router exposes
type Dependencies struct {
	Stores  *domain.StoreDirectory
	Sync    SyncRunner
	Stats   StatsReader
	Auth    AuthManager
	Events  *pubsub.SyncPubSub
	Metrics http.Handler // optional /metrics handler
	DocPath string       // swagger.json served at /swagger/doc.json
}

// NewRouter builds the HTTP API
func NewRouter(deps Dependencies, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	docPath := deps.DocPath
	if docPath == "" {
		docPath = "./docs/swagger.json"
	}
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, docPath)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stores", storesHandler(deps.Stores))

		r.Post("/sync", syncFleetHandler(deps.Sync, logger))
		r.Get("/sync/status", syncStatusHandler(deps.Stats, logger))
		r.Get("/sync/events", syncEventsHandler(deps.Events, logger))
		r.Post("/sync/{storeId}", syncStoreHandler(deps.Sync, logger))

		r.Get("/stats", statsHandler(deps.Stats, logger))
		r.Post("/cleanup", cleanupHandler(deps.Stats, logger))

		r.Post("/auth/refresh", authRefreshHandler(deps.Auth, logger))
		r.Get("/auth/status", authStatusHandler(deps.Auth, logger))
	})

	return r
}
