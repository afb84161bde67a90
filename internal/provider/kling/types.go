package kling

import "github.com/nvega/genbridge/internal/gen"

// submitRequest is the creation payload. The upstream speaks its own field
// dialect: orientation instead of an aspect ratio, n_frames as a string
// duration, and remove_watermark standing in for the HD flag.
type submitRequest struct {
	Prompt          string `json:"prompt"`
	Image           string `json:"image,omitempty"`
	Orientation     string `json:"orientation"`
	NFrames         string `json:"n_frames"`
	RemoveWatermark bool   `json:"remove_watermark"`
}

// envelope is the common response wrapper. A non-zero code is a business
// failure regardless of HTTP status.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		TaskMsg    string `json:"task_status_msg"`
		TaskResult *struct {
			Videos []struct {
				URL            string `json:"url"`
				WatermarkedURL string `json:"watermarked_url"`
				Duration       string `json:"duration"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
	TaskID string `json:"task_id"`
}

// quotaCode is the upstream account-balance exhaustion code.
const quotaCode = 1102

var statusTable = map[string]gen.Status{
	"submitted":  gen.StatusQueued,
	"processing": gen.StatusProcessing,
	"succeed":    gen.StatusCompleted,
	"failed":     gen.StatusError,
}

// mapStatus normalizes an upstream status, failing open to processing for
// values outside the table.
func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[s]; ok {
		return canonical
	}
	return gen.StatusProcessing
}
