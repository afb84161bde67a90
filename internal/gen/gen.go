// Package gen defines the canonical request/result vocabulary shared by all
// generation providers, plus the capability contract every adapter implements.
package gen

import (
	"context"
	"time"
)

// AspectRatio is the canonical orientation of generated media.
type AspectRatio string

// Supported aspect ratios.
const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// IsValid returns true if the aspect ratio is one of the supported values.
func (a AspectRatio) IsValid() bool {
	return a == AspectLandscape || a == AspectPortrait
}

// Config carries the canonical generation parameters. It is constructed by
// the caller and never mutated by an adapter. Duration is kept as a string
// because upstream services disagree on its encoding: some expect numeric
// seconds, others a string enum.
type Config struct {
	AspectRatio AspectRatio
	Duration    string
	HD          bool
}

// Request is a single generation request. One Request corresponds to exactly
// one submission attempt.
type Request struct {
	Prompt            string
	ReferenceImageURL string
	Config            Config
}

// Params holds provider-specific parameters produced by TransformConfig.
// The shape is defined by the owning adapter and never inspected elsewhere.
type Params map[string]any

// Status is the canonical task status every adapter maps its upstream
// vocabulary onto.
type Status string

// Canonical statuses. Upstream values absent from an adapter's mapping table
// default to StatusProcessing; a genuinely terminal upstream failure can
// therefore surface as indefinite processing. Known risk, kept deliberately.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TaskHandle is returned by SubmitTask and identifies an upstream task for
// subsequent polling. Handles are immutable snapshots; polling produces fresh
// Result values rather than mutating the handle.
type TaskHandle struct {
	// ID is the upstream-assigned task identifier, opaque to callers.
	ID string
	// Status is the status observed at submission time.
	Status Status
	// Progress is the completion percentage (0-100).
	Progress int
	// EstimatedSeconds is a rough completion estimate. Only the delegating
	// video adapter computes it; concrete adapters leave it zero.
	EstimatedSeconds int
	// CreatedAt is when the handle was created.
	CreatedAt time.Time
}

// Result is a fully normalized status snapshot for a task.
//
// A Result with StatusCompleted always carries a non-empty VideoURL (or
// ImageURLs for image providers): adapters that cannot resolve a URL must
// report StatusError instead. Business-level failures such as content-policy
// rejections are expressed as StatusError with ViolationReason populated,
// never as a returned Go error.
type Result struct {
	TaskID   string
	Status   Status
	Progress int
	// VideoURL is the primary output location for video providers.
	VideoURL string
	// WatermarkedVideoURL is the watermarked variant, when the upstream
	// provides one.
	WatermarkedVideoURL string
	// ImageURLs holds the outputs of image providers.
	ImageURLs []string
	// Duration is the output duration in seconds, when reported.
	Duration int
	// Quality is the normalized quality tier reported by the upstream.
	Quality string
	// VideoResolution is a coarse resolution string derived from Quality.
	// Only the delegating video adapter populates it.
	VideoResolution string
	// IsCompliant is false when the upstream rejected the task for a
	// content-policy reason.
	IsCompliant bool
	// ViolationReason describes a content-policy rejection.
	ViolationReason string
	// Error carries the upstream failure message for StatusError results.
	Error string
}

// ProgressFunc receives the numeric progress of a task during CheckStatus.
type ProgressFunc func(progress int)

// Provider is the capability contract implemented by every generation
// adapter, for the image/text family and the video family alike.
//
// Adapters are stateless: every SubmitTask and CheckStatus invocation is an
// independent unit of work, safe to run concurrently across task ids and
// across adapters. Adapters never retry internally; retry policy belongs to
// the caller.
type Provider interface {
	// Name returns the registry identifier of the adapter.
	Name() string

	// TransformConfig translates the canonical config into provider-specific
	// parameters. It is pure: deterministic, no I/O, and never mutates its
	// input. A missing or uncoercible canonical field yields a
	// *ValidationError.
	TransformConfig(cfg Config) (Params, error)

	// SubmitTask builds the provider payload, issues one outbound call and
	// returns a handle for polling. If no task identifier can be located in
	// the response it fails with a *ExtractionError embedding the raw
	// response.
	SubmitTask(ctx context.Context, req Request, credential string) (TaskHandle, error)

	// CheckStatus issues one outbound call and returns a normalized Result.
	// When onProgress is non-nil it is invoked at most once with the numeric
	// progress. Only transport or response-shape failures return an error.
	CheckStatus(ctx context.Context, taskID, credential string, onProgress ProgressFunc) (Result, error)
}
