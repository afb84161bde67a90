// Package glm adapts the Zhipu asynchronous image generation service.
package glm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/provider/transport"
)

const (
	name = "glm"

	defaultModel   = "cogview-3-plus"
	defaultTimeout = 60 * time.Second
)

// Adapter implements gen.Provider for the glm image service.
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

// New creates a glm adapter targeting baseURL.
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

// TransformConfig maps the aspect ratio onto the upstream size tokens; the
// HD flag picks the larger variant. Duration has no meaning for still images
// and is ignored.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	var size string
	switch cfg.AspectRatio {
	case gen.AspectLandscape:
		size = "1344x768"
		if cfg.HD {
			size = "1568x896"
		}
	case gen.AspectPortrait:
		size = "768x1344"
		if cfg.HD {
			size = "896x1568"
		}
	case "":
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
	default:
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	return gen.Params{
		"model": a.modelID,
		"size":  size,
	}, nil
}

// SubmitTask creates an asynchronous image task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	payload := submitRequest{
		Model:  params["model"].(string),
		Prompt: req.Prompt,
		Size:   params["size"].(string),
	}

	var resp taskResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/api/paas/v4/async/images/generations", credential, nil, payload, &resp)
	if err != nil {
		if perr := embeddedError(raw, err); perr != nil {
			return gen.TaskHandle{}, perr
		}
		return gen.TaskHandle{}, err
	}
	if resp.Error != nil {
		return gen.TaskHandle{}, providerError(resp.Error, raw)
	}

	id, ok := gen.FirstField(
		gen.Field{Location: "id", Value: resp.ID},
		gen.Field{Location: "request_id", Value: resp.RequestID},
	)
	if !ok {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	handle := gen.TaskHandle{
		ID:        id.Value,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}
	// The upstream acknowledges submissions as PROCESSING; a freshly accepted
	// task is still queued from the caller's point of view, so only a terminal
	// acknowledgement overrides it.
	if s := mapStatus(resp.TaskStatus); resp.TaskStatus != "" && s.IsTerminal() {
		handle.Status = s
	}
	return handle, nil
}

// CheckStatus polls the async result endpoint once and normalizes the
// response. A successful task without image URLs is downgraded to an error.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	var resp taskResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/api/paas/v4/async-result/"+taskID, credential, nil, nil, &resp)
	if err != nil {
		if perr := embeddedError(raw, err); perr != nil {
			return gen.Result{}, perr
		}
		return gen.Result{}, err
	}
	if resp.Error != nil {
		return gen.Result{}, providerError(resp.Error, raw)
	}

	canonical := mapStatus(resp.TaskStatus)
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
		for _, r := range resp.ImageResult {
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
		result.Error = "task failed upstream"
		return result, nil

	default:
		return result, nil
	}
}

func providerError(we *wireError, raw []byte) error {
	return &gen.ProviderError{
		Provider: name,
		Code:     we.Code,
		Message:  we.Message,
		Quota:    we.Code == quotaCode,
		Raw:      raw,
	}
}

// embeddedError upgrades a non-2xx call result to the richer embedded error
// object when the body carries one. The upstream reports business failures
// with HTTP 4xx plus an error payload.
func embeddedError(raw []byte, callErr error) error {
	var pe *gen.ProviderError
	if !errors.As(callErr, &pe) || len(raw) == 0 {
		return nil
	}
	var resp taskResponse
	if json.Unmarshal(raw, &resp) != nil || resp.Error == nil {
		return nil
	}
	return providerError(resp.Error, raw)
}
