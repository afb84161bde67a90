package minimax

import (
	"strings"

	"github.com/nvega/genbridge/internal/gen"
)

// submitRequest is the async image generation payload.
type submitRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Quality     string `json:"quality"`
}

// baseResp is the upstream status envelope present on every response.
// A non-zero status code is a business failure.
type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type submitResponse struct {
	TaskID   string    `json:"task_id"`
	BaseResp *baseResp `json:"base_resp"`
}

type statusResponse struct {
	TaskID    string   `json:"task_id"`
	Status    string   `json:"status"`
	ImageURLs []string `json:"image_urls"`
	Data      *struct {
		ImageURLs []string `json:"image_urls"`
	} `json:"data"`
	BaseResp *baseResp `json:"base_resp"`
}

// quotaStatusCode signals insufficient account balance.
const quotaStatusCode = 1008

var statusTable = map[string]gen.Status{
	"queueing":   gen.StatusQueued,
	"processing": gen.StatusProcessing,
	"success":    gen.StatusCompleted,
	"failed":     gen.StatusError,
}

// mapStatus normalizes an upstream status, failing open to processing for
// values outside the table.
func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return gen.StatusProcessing
}
