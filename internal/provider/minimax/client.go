// Package minimax adapts the minimax asynchronous image generation service.
package minimax

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nvega/genbridge/internal/gen"
	"github.com/nvega/genbridge/internal/provider/transport"
)

const (
	name = "minimax"

	defaultModel   = "image-01"
	defaultTimeout = 60 * time.Second
)

// Adapter implements gen.Provider for the minimax image service.
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

// New creates a minimax adapter targeting baseURL.
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

// TransformConfig passes the aspect ratio through and folds the HD flag into
// the quality field. Duration has no meaning for still images and is ignored.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	if !cfg.AspectRatio.IsValid() {
		if cfg.AspectRatio == "" {
			return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
		}
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	quality := "standard"
	if cfg.HD {
		quality = "hd"
	}

	return gen.Params{
		"model":        a.modelID,
		"aspect_ratio": string(cfg.AspectRatio),
		"quality":      quality,
	}, nil
}

// SubmitTask creates an asynchronous image task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	payload := submitRequest{
		Model:       params["model"].(string),
		Prompt:      req.Prompt,
		AspectRatio: params["aspect_ratio"].(string),
		Quality:     params["quality"].(string),
	}

	var resp submitResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/v1/image_generation_async", credential, nil, payload, &resp)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	if perr := baseRespError(resp.BaseResp, raw); perr != nil {
		return gen.TaskHandle{}, perr
	}
	if resp.TaskID == "" {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	return gen.TaskHandle{
		ID:        resp.TaskID,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}, nil
}

// CheckStatus polls the query endpoint once and normalizes the response.
// A successful task without image URLs is downgraded to an error.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	endpoint := a.baseURL + "/v1/query/image_generation?task_id=" + url.QueryEscape(taskID)

	var resp statusResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, endpoint, credential, nil, nil, &resp)
	if err != nil {
		return gen.Result{}, err
	}
	if perr := baseRespError(resp.BaseResp, raw); perr != nil {
		return gen.Result{}, perr
	}

	canonical := mapStatus(resp.Status)
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
		urls := resp.ImageURLs
		if len(urls) == 0 && resp.Data != nil {
			urls = resp.Data.ImageURLs
		}
		for _, u := range urls {
			if u != "" {
				result.ImageURLs = append(result.ImageURLs, u)
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
