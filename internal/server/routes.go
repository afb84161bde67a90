package server

import (
	"log/slog"
	"net/http"
)

// Config holds server configuration options.
type Config struct {
	// AllowedOrigins for CORS. Empty disables cross-origin access.
	AllowedOrigins []string
}

// DefaultConfig returns a permissive default configuration.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates the HTTP router with all routes and middleware configured.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /generations", h.CreateGeneration)
	mux.HandleFunc("POST /generations/refresh", h.RefreshGenerations)
	mux.HandleFunc("GET /generations/{id}", h.GetGeneration)
	mux.HandleFunc("POST /generations/{id}/archive", h.ArchiveGeneration)
	mux.HandleFunc("GET /providers", h.ListProviders)
	mux.HandleFunc("GET /events", h.Events)

	return ChainMiddleware(mux,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)
}
