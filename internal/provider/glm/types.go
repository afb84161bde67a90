package glm

import (
	"strings"

	"github.com/nvega/genbridge/internal/gen"
)

// submitRequest is the async image generation payload.
type submitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

// wireError is the embedded upstream error object.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// taskResponse covers both the submit acknowledgement and the async-result
// payload.
type taskResponse struct {
	ID          string `json:"id"`
	RequestID   string `json:"request_id"`
	TaskStatus  string `json:"task_status"`
	ImageResult []struct {
		URL string `json:"url"`
	} `json:"image_result"`
	Error *wireError `json:"error"`
}

// quotaCode is the upstream code for an exhausted account balance.
const quotaCode = "1113"

var statusTable = map[string]gen.Status{
	"processing": gen.StatusProcessing,
	"success":    gen.StatusCompleted,
	"fail":       gen.StatusError,
}

// mapStatus normalizes an upstream status, failing open to processing for
// values outside the table.
func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return gen.StatusProcessing
}
