// Package server provides the HTTP surface of the generation bridge.
// It includes handlers, middleware, routes, and DTOs separated from domain
// types.
package server

import (
	"time"

	"github.com/nvega/genbridge/internal/track"
)

// CreateGenerationRequest is the HTTP request body for starting a generation.
type CreateGenerationRequest struct {
	// Category is the generation domain: image, video or text.
	Category string `json:"category" validate:"required,oneof=image video text"`
	// Model is the catalog model name to generate with.
	Model string `json:"model" validate:"required"`
	// Prompt is the generation prompt.
	Prompt string `json:"prompt" validate:"required"`
	// ReferenceImageURL optionally seeds the generation with an image.
	ReferenceImageURL string `json:"reference_image_url,omitempty" validate:"omitempty,url"`
	// AspectRatio is the canonical orientation, 16:9 or 9:16.
	AspectRatio string `json:"aspect_ratio" validate:"required,oneof=16:9 9:16"`
	// Duration is the clip length in seconds. Video generations require it;
	// the permitted values depend on the serving provider.
	Duration string `json:"duration,omitempty" validate:"required_if=Category video"`
	// HD requests the high-definition tier.
	HD bool `json:"hd"`
}

// CreateGenerationResponse is the HTTP response after starting a generation.
type CreateGenerationResponse struct {
	// ID is the local identifier for polling.
	ID string `json:"id"`
	// Model is the model that actually serves the request, after any
	// fallback substitution.
	Model string `json:"model"`
	// Status is the initial status.
	Status string `json:"status"`
	// EstimatedSeconds is a rough completion estimate, when available.
	EstimatedSeconds int `json:"estimated_seconds,omitempty"`
	// FellBackFrom names the originally requested model when a fallback
	// substitution occurred.
	FellBackFrom string `json:"fell_back_from,omitempty"`
}

// GenerationResponse is the HTTP response for generation details.
type GenerationResponse struct {
	ID                  string    `json:"id"`
	Category            string    `json:"category"`
	Model               string    `json:"model"`
	Provider            string    `json:"provider"`
	Status              string    `json:"status"`
	Progress            int       `json:"progress"`
	EstimatedSeconds    int       `json:"estimated_seconds,omitempty"`
	VideoURL            string    `json:"video_url,omitempty"`
	WatermarkedVideoURL string    `json:"watermarked_video_url,omitempty"`
	ImageURLs           []string  `json:"image_urls,omitempty"`
	VideoResolution     string    `json:"video_resolution,omitempty"`
	Duration            int       `json:"duration,omitempty"`
	Quality             string    `json:"quality,omitempty"`
	IsCompliant         bool      `json:"is_compliant"`
	ViolationReason     string    `json:"violation_reason,omitempty"`
	FellBackFrom        string    `json:"fell_back_from,omitempty"`
	Error               string    `json:"error,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// generationResponseFrom maps a tracking record onto the wire shape.
func generationResponseFrom(record *track.Record) GenerationResponse {
	return GenerationResponse{
		ID:                  record.ID,
		Category:            string(record.Category),
		Model:               record.Model,
		Provider:            record.Provider,
		Status:              string(record.Status),
		Progress:            record.Progress,
		EstimatedSeconds:    record.EstimatedSeconds,
		VideoURL:            record.VideoURL,
		WatermarkedVideoURL: record.WatermarkedVideoURL,
		ImageURLs:           record.ImageURLs,
		VideoResolution:     record.VideoResolution,
		Duration:            record.Duration,
		Quality:             record.Quality,
		IsCompliant:         record.IsCompliant,
		ViolationReason:     record.ViolationReason,
		FellBackFrom:        record.FellBackFrom,
		Error:               record.Error,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}

// ProvidersResponse lists the registered provider names.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// ArchiveResponse is the HTTP response after archiving a generation.
type ArchiveResponse struct {
	// ArchiveURL addresses the stored copy.
	ArchiveURL string `json:"archive_url"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
