// Package track keeps local records of generation tasks across providers.
// A record ties a locally issued id to the upstream task it maps to, and
// accumulates the normalized status snapshots produced by polling.
package track

import (
	"time"

	"github.com/google/uuid"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/notify"
)

// Record is a locally tracked generation task.
type Record struct {
	// ID is the locally issued identifier handed to callers.
	ID string
	// Category is the generation domain of the request.
	Category notify.Category
	// Model is the catalog model the caller asked for.
	Model string
	// Provider is the adapter that actually serves the task.
	Provider string
	// Submodel is the provider-side model identifier, when the catalog
	// declares one.
	Submodel string
	// UpstreamTaskID is the provider-assigned task id, opaque here.
	UpstreamTaskID string
	// FellBackFrom names the model originally requested when a fallback
	// substitution occurred; empty otherwise.
	FellBackFrom string

	// Prompt and Config are retained so a record is self-describing.
	Prompt string
	Config gen.Config

	Status   gen.Status
	Progress int
	// EstimatedSeconds is the rough completion estimate reported at
	// submission, when the adapter computes one.
	EstimatedSeconds int

	VideoURL            string
	WatermarkedVideoURL string
	ImageURLs           []string
	VideoResolution     string
	Duration            int
	Quality             string
	IsCompliant         bool
	ViolationReason     string
	Error               string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord creates a record for a freshly requested generation.
func NewRecord(category notify.Category, model string, req gen.Request) *Record {
	now := time.Now()
	return &Record{
		ID:          uuid.NewString(),
		Category:    category,
		Model:       model,
		Prompt:      req.Prompt,
		Config:      req.Config,
		Status:      gen.StatusQueued,
		IsCompliant: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsTerminal returns true if the record reached a final state. Terminal
// records are never polled again.
func (r *Record) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// ApplyHandle records the outcome of a successful submission.
func (r *Record) ApplyHandle(provider, submodel string, handle gen.TaskHandle) {
	r.Provider = provider
	r.Submodel = submodel
	r.UpstreamTaskID = handle.ID
	r.Status = handle.Status
	r.Progress = handle.Progress
	r.EstimatedSeconds = handle.EstimatedSeconds
	r.UpdatedAt = time.Now()
}

// ApplyResult folds a polled status snapshot into the record.
func (r *Record) ApplyResult(result gen.Result) {
	r.Status = result.Status
	r.Progress = result.Progress
	if result.VideoURL != "" {
		r.VideoURL = result.VideoURL
	}
	if result.WatermarkedVideoURL != "" {
		r.WatermarkedVideoURL = result.WatermarkedVideoURL
	}
	if len(result.ImageURLs) > 0 {
		r.ImageURLs = append([]string(nil), result.ImageURLs...)
	}
	if result.VideoResolution != "" {
		r.VideoResolution = result.VideoResolution
	}
	if result.Duration != 0 {
		r.Duration = result.Duration
	}
	if result.Quality != "" {
		r.Quality = result.Quality
	}
	r.IsCompliant = result.IsCompliant
	r.ViolationReason = result.ViolationReason
	r.Error = result.Error
	r.UpdatedAt = time.Now()
}

// Clone creates a deep copy of the record for safe reads.
func (r *Record) Clone() *Record {
	clone := *r
	clone.ImageURLs = append([]string(nil), r.ImageURLs...)
	return &clone
}
