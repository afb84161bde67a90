// Package ark adapts the Ark content generation service through the official
// volcengine SDK. Generation parameters travel as text commands appended to
// the prompt, which is the dialect the upstream model expects.
package ark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"

	"github.com/nvega/genbridge/internal/gen"
)

const (
	name = "ark"

	// defaultModel is the video generation endpoint model identifier.
	defaultModel = "doubao-seedance-1-0-pro-250528"
)

// caller is the slice of the SDK client the adapter uses. A fresh caller is
// built per submission so the credential is never captured in adapter state.
type caller interface {
	Create(ctx context.Context, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error)
	Get(ctx context.Context, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error)
}

type sdkCaller struct {
	client *arkruntime.Client
}

func (s sdkCaller) Create(ctx context.Context, req model.CreateContentGenerationTaskRequest) (model.CreateContentGenerationTaskResponse, error) {
	return s.client.CreateContentGenerationTask(ctx, req)
}

func (s sdkCaller) Get(ctx context.Context, req model.GetContentGenerationTaskRequest) (model.GetContentGenerationTaskResponse, error) {
	return s.client.GetContentGenerationTask(ctx, req)
}

// Adapter implements gen.Provider for the Ark service.
type Adapter struct {
	baseURL   string
	modelID   string
	newCaller func(credential string) caller
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithModel overrides the upstream model identifier.
func WithModel(modelID string) Option {
	return func(a *Adapter) {
		a.modelID = modelID
	}
}

// New creates an Ark adapter. baseURL addresses the Ark API endpoint.
func New(baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		baseURL: baseURL,
		modelID: defaultModel,
	}
	a.newCaller = func(credential string) caller {
		return sdkCaller{client: arkruntime.NewClientWithApiKey(
			credential,
			arkruntime.WithBaseUrl(a.baseURL),
		)}
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

// TransformConfig encodes the canonical config as the text command suffix the
// upstream parses out of the prompt.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	if !cfg.AspectRatio.IsValid() {
		if cfg.AspectRatio == "" {
			return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
		}
		return nil, &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", cfg.AspectRatio)}
	}

	switch cfg.Duration {
	case "5", "10":
	case "":
		return nil, &gen.ValidationError{Field: "duration", Reason: "duration is required"}
	default:
		return nil, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("unsupported duration %q", cfg.Duration)}
	}

	resolution := "720p"
	if cfg.HD {
		resolution = "1080p"
	}

	command := fmt.Sprintf(" --ratio %s --dur %s --resolution %s", cfg.AspectRatio, cfg.Duration, resolution)
	return gen.Params{
		"model":   a.modelID,
		"command": command,
	}, nil
}

// SubmitTask creates a content generation task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	content := []*model.CreateContentGenerationContentItem{
		{
			Type: model.ContentGenerationContentItemTypeText,
			Text: volcengine.String(req.Prompt + params["command"].(string)),
		},
	}
	if req.ReferenceImageURL != "" {
		content = append(content, &model.CreateContentGenerationContentItem{
			Type: model.ContentGenerationContentItemTypeImage,
			ImageURL: &model.ImageURL{
				URL: req.ReferenceImageURL,
			},
		})
	}

	resp, err := a.newCaller(credential).Create(ctx, model.CreateContentGenerationTaskRequest{
		Model:   params["model"].(string),
		Content: content,
	})
	if err != nil {
		return gen.TaskHandle{}, &gen.TransportError{Provider: name, Err: err}
	}
	if resp.ID == "" {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: nil}
	}

	return gen.TaskHandle{
		ID:        resp.ID,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}, nil
}

// CheckStatus polls the task once and normalizes the response. The upstream
// reports no numeric progress, so terminal states are 100 and everything else
// is 0. A succeeded task without a video URL is downgraded to an error; the
// service has no separate content endpoint to recover it from.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	getReq := model.GetContentGenerationTaskRequest{}
	getReq.ID = taskID

	resp, err := a.newCaller(credential).Get(ctx, getReq)
	if err != nil {
		return gen.Result{}, &gen.TransportError{Provider: name, Err: err}
	}

	canonical := mapStatus(resp.Status)
	progress := 0
	if canonical.IsTerminal() {
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
		if resp.Content.VideoURL == "" {
			result.Status = gen.StatusError
			result.Error = "completed task has no video url"
			return result, nil
		}
		result.VideoURL = resp.Content.VideoURL
		return result, nil

	case gen.StatusError:
		result.Error = fmt.Sprintf("task ended in status %q", resp.Status)
		return result, nil

	default:
		return result, nil
	}
}

var statusTable = map[string]gen.Status{
	"queued":    gen.StatusQueued,
	"running":   gen.StatusProcessing,
	"succeeded": gen.StatusCompleted,
	"failed":    gen.StatusError,
	"cancelled": gen.StatusError,
}

func mapStatus(s string) gen.Status {
	if canonical, ok := statusTable[strings.ToLower(s)]; ok {
		return canonical
	}
	return gen.StatusProcessing
}
