package vector

import (
	"strings"

	"github.com/nvega/genbridge/internal/gen"
)

// submitRequest is the creation payload for the generations endpoint.
type submitRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url,omitempty"`
}

// wireError is the upstream error envelope, present on business failures.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// submitResponse covers the task-id locations observed across upstream
// deployments. Order of preference lives in SubmitTask, not here.
type submitResponse struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Data   *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
	Result *struct {
		ID string `json:"id"`
	} `json:"result"`
	Error *wireError `json:"error"`
}

// statusResponse is the poll payload. Video URL locations mirror the task-id
// situation: deployments disagree, so every known spot is declared.
type statusResponse struct {
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	VideoURL   string `json:"video_url"`
	Watermark  string `json:"watermarked_video_url"`
	Duration   int    `json:"duration"`
	Quality    string `json:"quality"`
	FailReason string `json:"fail_reason"`
	Data       *struct {
		Status     string `json:"status"`
		Progress   int    `json:"progress"`
		VideoURL   string `json:"video_url"`
		FailReason string `json:"fail_reason"`
		Detail     *struct {
			URL string `json:"url"`
		} `json:"detail"`
	} `json:"data"`
	Error *wireError `json:"error"`
}

// contentResponse is the payload of the content endpoint, used as a last
// resort when a completed task reports no video URL.
type contentResponse struct {
	URL  string `json:"url"`
	Data *struct {
		URL string `json:"url"`
	} `json:"data"`
}

// statusTable maps upstream status strings onto the canonical vocabulary.
var statusTable = map[string]gen.Status{
	"pending":    gen.StatusQueued,
	"queued":     gen.StatusQueued,
	"running":    gen.StatusProcessing,
	"processing": gen.StatusProcessing,
	"completed":  gen.StatusCompleted,
	"succeeded":  gen.StatusCompleted,
	"failed":     gen.StatusError,
	"error":      gen.StatusError,
}

// mapStatus normalizes an upstream status. Unknown values fail open to
// processing so a renamed upstream state never strands a task as an error.
func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return gen.StatusProcessing
}

// policyMarkers are substrings of fail reasons that indicate a content
// moderation rejection rather than a technical failure.
var policyMarkers = []string{"policy", "moderation", "content", "violation"}

func isPolicyViolation(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, marker := range policyMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
