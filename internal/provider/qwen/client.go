// Package qwen adapts the DashScope asynchronous image synthesis service.
package qwen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/provider/transport"
)

const (
	name = "qwen"

	defaultModel   = "wanx2.1-t2i-turbo"
	defaultTimeout = 60 * time.Second
)

// asyncHeaders marks the submission as an asynchronous task.
var asyncHeaders = map[string]string{"X-DashScope-Async": "enable"}

// Adapter implements gen.Provider for the qwen image service.
type Adapter struct {
	baseURL    string
	modelID    string
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

// WithModel overrides the upstream model identifier.
func WithModel(modelID string) Option {
	return func(a *Adapter) {
		a.modelID = modelID
	}
}

// New creates a qwen adapter targeting baseURL.
func New(baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:    baseURL,
		modelID:    defaultModel,
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

// TransformConfig maps the aspect ratio to the upstream size token and folds
// the HD flag into the watermark switch. Duration has no meaning for still
// images and is ignored.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	var size string
	switch cfg.AspectRatio {
	case gen.AspectLandscape:
		size = "1280*720"
	case gen.AspectPortrait:
		size = "720*1280"
	case "":
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
	default:
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	return gen.Params{
		"model":     a.modelID,
		"size":      size,
		"watermark": !cfg.HD,
	}, nil
}

// SubmitTask creates an asynchronous image task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	var payload submitRequest
	payload.Model = params["model"].(string)
	payload.Input.Prompt = req.Prompt
	payload.Parameters.Size = params["size"].(string)
	payload.Parameters.N = 1
	payload.Parameters.Watermark = params["watermark"].(bool)

	var resp taskResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/services/aigc/text2image/image-synthesis", credential, asyncHeaders, payload, &resp)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	if resp.Code != "" {
		return gen.TaskHandle{}, &gen.ProviderError{
			Provider: name,
			Code:     resp.Code,
			Message:  resp.Message,
			Quota:    resp.Code == quotaCode,
			Raw:      raw,
		}
	}

	var outputID, outputStatus string
	if resp.Output != nil {
		outputID = resp.Output.TaskID
		outputStatus = resp.Output.TaskStatus
	}
	id, ok := gen.FirstField(
		gen.Field{Location: "output.task_id", Value: outputID},
		gen.Field{Location: "task_id", Value: resp.TaskID},
	)
	if !ok {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	handle := gen.TaskHandle{
		ID:        id.Value,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}
	if outputStatus != "" {
		handle.Status = mapStatus(outputStatus)
	}
	return handle, nil
}

// CheckStatus polls the task once and normalizes the response. A succeeded
// task without result URLs is downgraded to an error.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	var resp taskResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/tasks/"+taskID, credential, nil, nil, &resp)
	if err != nil {
		return gen.Result{}, err
	}
	if resp.Code != "" {
		return gen.Result{}, &gen.ProviderError{
			Provider: name,
			Code:     resp.Code,
			Message:  resp.Message,
			Quota:    resp.Code == quotaCode,
			Raw:      raw,
		}
	}
	if resp.Output == nil {
		return gen.Result{}, &gen.ExtractionError{Provider: name, Field: "task output", Raw: raw}
	}

	canonical := mapStatus(resp.Output.TaskStatus)
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
		for _, r := range resp.Output.Results {
			if r.URL != "" {
				result.ImageURLs = append(result.ImageURLs, r.URL)
			}
		}
		if len(result.ImageURLs) == 0 {
			result.Status = gen.StatusError
			result.Error = "completed task has no image urls"
		}
		return result, nil

	case gen.StatusError:
		result.Error = resp.Output.Message
		return result, nil

	default:
		return result, nil
	}
}
