// Package kling adapts the kling video generation service, whose request
// dialect renames every canonical field.
package kling

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/provider/transport"
)

const (
	name = "kling"

	defaultTimeout = 60 * time.Second
)

// Adapter implements gen.Provider for the kling service.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// New creates a kling adapter targeting baseURL.
func New(baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ gen.Provider = (*Adapter)(nil)

// Name returns the registry identifier.
func (a *Adapter) Name() string {
	return name
}

// TransformConfig renames canonical fields into the upstream dialect:
// aspect ratio becomes orientation, duration becomes the string n_frames,
// and the HD flag becomes remove_watermark.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	var orientation string
	switch cfg.AspectRatio {
	case gen.AspectLandscape:
		orientation = "landscape"
	case gen.AspectPortrait:
		orientation = "portrait"
	case "":
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
	default:
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	switch cfg.Duration {
	case "5", "10", "15":
	case "":
		return nil, &gen.ValidationError{Field: "duration", Reason: "duration is required"}
	default:
		return nil, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("unsupported duration %q", cfg.Duration)}
	}

	return gen.Params{
		"orientation":      orientation,
		"n_frames":         cfg.Duration,
		"remove_watermark": cfg.HD,
	}, nil
}

// SubmitTask creates a generation task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	payload := submitRequest{
		Prompt:          req.Prompt,
		Image:           req.ReferenceImageURL,
		Orientation:     params["orientation"].(string),
		NFrames:         params["n_frames"].(string),
		RemoveWatermark: params["remove_watermark"].(bool),
	}

	var resp envelope
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/v1/videos/text2video", credential, nil, payload, &resp)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	if resp.Code != 0 {
		return gen.TaskHandle{}, &gen.ProviderError{
			Provider: name,
			Code:     strconv.Itoa(resp.Code),
			Message:  resp.Message,
			Quota:    resp.Code == quotaCode,
			Raw:      raw,
		}
	}

	var dataID string
	if resp.Data != nil {
		dataID = resp.Data.TaskID
	}
	id, ok := gen.FirstField(
		gen.Field{Location: "task_id", Value: resp.TaskID},
		gen.Field{Location: "data.task_id", Value: dataID},
	)
	if !ok {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	handle := gen.TaskHandle{
		ID:        id.Value,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}
	if resp.Data != nil && resp.Data.TaskStatus != "" {
		handle.Status = mapStatus(resp.Data.TaskStatus)
	}
	return handle, nil
}

// CheckStatus polls the task once and normalizes the response. A succeeded
// task whose result carries no videos is downgraded to an error.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	var resp envelope
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/v1/videos/text2video/"+taskID, credential, nil, nil, &resp)
	if err != nil {
		return gen.Result{}, err
	}
	if resp.Code != 0 {
		return gen.Result{}, &gen.ProviderError{
			Provider: name,
			Code:     strconv.Itoa(resp.Code),
			Message:  resp.Message,
			Quota:    resp.Code == quotaCode,
			Raw:      raw,
		}
	}
	if resp.Data == nil {
		return gen.Result{}, &gen.ExtractionError{Provider: name, Field: "task data", Raw: raw}
	}

	canonical := mapStatus(resp.Data.TaskStatus)

	// The upstream reports no numeric progress. Terminal states are 100,
	// anything in flight is reported as 0.
	progress := 0
	if canonical == gen.StatusCompleted {
		progress = 100
	}
	if onProgress != nil {
		onProgress(progress)
	}

	result := gen.Result{
		TaskID:      taskID,
		Status:      canonical,
		Progress:    progress,
		IsCompliant: true,
	}

	switch canonical {
	case gen.StatusCompleted:
		if resp.Data.TaskResult == nil || len(resp.Data.TaskResult.Videos) == 0 {
			result.Status = gen.StatusError
			result.Error = "completed task has no video url"
			return result, nil
		}
		video := resp.Data.TaskResult.Videos[0]
		if video.URL == "" {
			result.Status = gen.StatusError
			result.Error = "completed task has no video url"
			return result, nil
		}
		result.VideoURL = video.URL
		result.WatermarkedVideoURL = video.WatermarkedURL
		if secs, convErr := strconv.Atoi(video.Duration); convErr == nil {
			result.Duration = secs
		}
		return result, nil

	case gen.StatusError:
		result.Error = resp.Data.TaskMsg
		return result, nil

	default:
		return result, nil
	}
}
