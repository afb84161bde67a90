package qwen

import (
	"strings"

	"github.com/nvega/genbridge/internal/gen"
)

// submitRequest is the async image synthesis payload.
type submitRequest struct {
	Model string `json:"model"`
	Input struct {
		Prompt string `json:"prompt"`
	} `json:"input"`
	Parameters struct {
		Size      string `json:"size"`
		N         int    `json:"n"`
		Watermark bool   `json:"watermark"`
	} `json:"parameters"`
}

// taskResponse covers both the submit acknowledgement and the poll payload.
// Business failures surface as a top-level code/message pair.
type taskResponse struct {
	Output *struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Results    []struct {
			URL string `json:"url"`
		} `json:"results"`
		Message string `json:"message"`
	} `json:"output"`
	TaskID  string `json:"task_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// quotaCode is the upstream throttling code for an exhausted allocation.
const quotaCode = "Throttling.AllocationQuota"

var statusTable = map[string]gen.Status{
	"pending":   gen.StatusQueued,
	"running":   gen.StatusProcessing,
	"succeeded": gen.StatusCompleted,
	"failed":    gen.StatusError,
	"canceled":  gen.StatusError,
}

// mapStatus normalizes an upstream status, failing open to processing for
// values outside the table.
func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return gen.StatusProcessing
}
