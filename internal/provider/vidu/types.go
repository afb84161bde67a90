package vidu

import (
	"strings"

	"github.com/nvega/genbridge/internal/gen"
)

// submitRequest is the creation payload. Duration travels as a real integer
// and the HD flag selects the render size.
type submitRequest struct {
	Prompt      string `json:"prompt"`
	Image       string `json:"image,omitempty"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    int    `json:"duration"`
	Size        string `json:"size"`
}

// baseResp is the upstream status envelope present on every response.
// A non-zero status code is a business failure.
type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type submitResponse struct {
	TaskID   string    `json:"task_id"`
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	BaseResp *baseResp `json:"base_resp"`
}

type statusResponse struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	VideoURL  string `json:"video_url"`
	CoverURL  string `json:"cover_url"`
	Duration  int    `json:"duration"`
	FailMsg   string `json:"fail_msg"`
	Creations []struct {
		URL string `json:"url"`
	} `json:"creations"`
	BaseResp *baseResp `json:"base_resp"`
}

// quotaStatusCode signals insufficient account balance.
const quotaStatusCode = 1008

var statusTable = map[string]gen.Status{
	"queueing":   gen.StatusQueued,
	"preparing":  gen.StatusQueued,
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
