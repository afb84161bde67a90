// Package vidu adapts the vidu video generation service, which expects the
// duration as a real integer and selects output quality through a size field.
package vidu

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
	name = "vidu"

	defaultTimeout = 60 * time.Second
)

// Adapter implements gen.Provider for the vidu service.
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

// New creates a vidu adapter targeting baseURL.
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

// TransformConfig coerces the string duration into the integer the upstream
// expects and folds the HD flag into the size field. The aspect ratio passes
// through unchanged.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	if !cfg.AspectRatio.IsValid() {
		if cfg.AspectRatio == "" {
			return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
		}
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	if cfg.Duration == "" {
		return nil, &gen.ValidationError{Field: "duration", Reason: "duration is required"}
	}
	secs, err := strconv.Atoi(cfg.Duration)
	if err != nil {
		return nil, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("duration %q is not numeric", cfg.Duration)}
	}
	if secs <= 0 {
		return nil, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("duration must be positive, got %d", secs)}
	}

	size := "medium"
	if cfg.HD {
		size = "large"
	}

	return gen.Params{
		"aspect_ratio": string(cfg.AspectRatio),
		"duration":     secs,
		"size":         size,
	}, nil
}

// SubmitTask creates a generation task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	payload := submitRequest{
		Prompt:      req.Prompt,
		Image:       req.ReferenceImageURL,
		AspectRatio: params["aspect_ratio"].(string),
		Duration:    params["duration"].(int),
		Size:        params["size"].(string),
	}

	var resp submitResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/v2/videos", credential, nil, payload, &resp)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	if perr := baseRespError(resp.BaseResp, raw); perr != nil {
		return gen.TaskHandle{}, perr
	}

	id, ok := gen.FirstField(
		gen.Field{Location: "task_id", Value: resp.TaskID},
		gen.Field{Location: "id", Value: resp.ID},
	)
	if !ok {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	handle := gen.TaskHandle{
		ID:        id.Value,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}
	if resp.Status != "" {
		handle.Status = mapStatus(resp.Status)
	}
	return handle, nil
}

// CheckStatus polls the task once and normalizes the response.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	var resp statusResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/v2/videos/"+taskID, credential, nil, nil, &resp)
	if err != nil {
		return gen.Result{}, err
	}
	if perr := baseRespError(resp.BaseResp, raw); perr != nil {
		return gen.Result{}, perr
	}

	canonical := mapStatus(resp.Status)
	progress := resp.Progress
	if canonical == gen.StatusCompleted {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if onProgress != nil {
		onProgress(progress)
	}

	result := gen.Result{
		TaskID:      taskID,
		Status:      canonical,
		Progress:    progress,
		Duration:    resp.Duration,
		IsCompliant: true,
	}

	switch canonical {
	case gen.StatusCompleted:
		var creationURL string
		if len(resp.Creations) > 0 {
			creationURL = resp.Creations[0].URL
		}
		url, ok := gen.FirstField(
			gen.Field{Location: "video_url", Value: resp.VideoURL},
			gen.Field{Location: "creations[0].url", Value: creationURL},
		)
		if !ok {
			result.Status = gen.StatusError
			result.Error = "completed task has no video url"
			return result, nil
		}
		result.VideoURL = url.Value
		return result, nil

	case gen.StatusError:
		result.Error = resp.FailMsg
		return result, nil

	default:
		return result, nil
	}
}

// baseRespError converts a non-zero base_resp into a ProviderError, flagging
// code 1008 as quota exhaustion.
func baseRespError(br *baseResp, raw []byte) error {
	if br == nil || br.StatusCode == 0 {
		return nil
	}
	return &gen.ProviderError{
		Provider: name,
		Code:     strconv.Itoa(br.StatusCode),
		Message:  br.StatusMsg,
		Quota:    br.StatusCode == quotaStatusCode,
		Raw:      raw,
	}
}
