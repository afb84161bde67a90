package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nvega/genbridge/internal/archive"
	"github.com/nvega/genbridge/internal/catalog"
	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/notify"
	"github.com/nvega/genbridge/internal/provider"
	"github.com/nvega/genbridge/internal/track"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *track.Service
	archiver  *archive.Archiver
	hub       *notify.Hub
	registry  *provider.Registry
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *track.Service, archiver *archive.Archiver, hub *notify.Hub, registry *provider.Registry, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		archiver:  archiver,
		hub:       hub,
		registry:  registry,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateGeneration handles POST /generations requests.
func (h *Handlers) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req CreateGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	record, err := h.service.Submit(r.Context(), track.SubmitInput{
		Category:          notify.Category(req.Category),
		Model:             req.Model,
		Prompt:            req.Prompt,
		ReferenceImageURL: req.ReferenceImageURL,
		Config: gen.Config{
			AspectRatio: gen.AspectRatio(req.AspectRatio),
			Duration:    req.Duration,
			HD:          req.HD,
		},
	})
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	h.logger.Info("generation created",
		slog.String("record_id", record.ID),
		slog.String("category", req.Category),
		slog.String("model", record.Model),
		slog.String("provider", record.Provider),
	)

	writeJSON(w, http.StatusAccepted, CreateGenerationResponse{
		ID:               record.ID,
		Model:            record.Model,
		Status:           string(record.Status),
		EstimatedSeconds: record.EstimatedSeconds,
		FellBackFrom:     record.FellBackFrom,
	})
}

// GetGeneration handles GET /generations/{id} requests. Each call polls the
// upstream once for non-terminal records; the HTTP client owns the cadence.
func (h *Handlers) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "generation ID is required", "MISSING_ID")
		return
	}

	record, err := h.service.Refresh(r.Context(), id)
	if err != nil {
		if errors.Is(err, track.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to refresh generation",
			slog.String("record_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "upstream poll failed", "UPSTREAM_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, generationResponseFrom(record))
}

// RefreshGenerations handles POST /generations/refresh requests, sweeping
// every pending record once.
func (h *Handlers) RefreshGenerations(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshPending(r.Context()); err != nil {
		h.logger.Error("refresh sweep failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "refresh sweep failed", "REFRESH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListProviders handles GET /providers requests.
func (h *Handlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProvidersResponse{Providers: h.registry.Names()})
}

// ArchiveGeneration handles POST /generations/{id}/archive requests. Only a
// completed generation with resolved output can be archived.
func (h *Handlers) ArchiveGeneration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, track.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load generation", "FETCH_FAILED")
		return
	}

	sourceURL := record.VideoURL
	if sourceURL == "" && len(record.ImageURLs) > 0 {
		sourceURL = record.ImageURLs[0]
	}
	if record.Status != gen.StatusCompleted || sourceURL == "" {
		writeError(w, http.StatusConflict, "generation has no archivable output", "NOT_ARCHIVABLE")
		return
	}

	archiveURL, err := h.archiver.ArchiveURL(r.Context(), record.ID, sourceURL)
	if err != nil {
		h.logger.Error("archive failed",
			slog.String("record_id", record.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "archive failed", "ARCHIVE_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, ArchiveResponse{ArchiveURL: archiveURL})
}

// Events handles GET /events requests, streaming fallback notifications as
// server-sent events until the client disconnects.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "STREAMING_UNSUPPORTED")
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode event",
					slog.String("error", err.Error()),
				)
				continue
			}
			fmt.Fprintf(w, "event: fallback\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// writeSubmitError maps submission failures onto HTTP statuses.
func (h *Handlers) writeSubmitError(w http.ResponseWriter, err error) {
	var verr *gen.ValidationError
	var cerr *gen.ConfigurationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, catalog.ErrModelNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "MODEL_NOT_FOUND")
	case errors.As(err, &cerr):
		h.logger.Error("submission misconfigured", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error(), "CONFIGURATION_ERROR")
	case errors.Is(err, provider.ErrUnknownProvider):
		h.logger.Error("catalog names unknown provider", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error(), "CONFIGURATION_ERROR")
	default:
		h.logger.Error("submission failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, err.Error(), "UPSTREAM_ERROR")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
