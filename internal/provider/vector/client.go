// Package vector adapts the vector video generation service. The service
// encodes every generation parameter into the model name itself, so the bulk
// of the adapter is the composition of that name.
package vector

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
	name = "vector"

	defaultTimeout = 60 * time.Second
)

// Durations accepted by the upstream, in seconds.
const (
	duration10 = 10
	duration15 = 15
	duration25 = 25
)

// Adapter implements gen.Provider for the vector service.
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

// New creates a vector adapter targeting baseURL.
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

// TransformConfig composes the upstream model name from the canonical config.
// The name has the shape sora-<orientation>-<tier>[-hd]-<N>s. Two quirks are
// upstream contract, not preference: a 25 second run only exists in the pro
// tier, and the 10 second HD variant does not exist at all and is served as
// the 15 second HD pro model.
func (a *Adapter) TransformConfig(cfg gen.Config) (gen.Params, error) {
	orientation, err := orientationFor(cfg.AspectRatio)
	if err != nil {
		return nil, err
	}

	secs, err := secondsFor(cfg.Duration)
	if err != nil {
		return nil, err
	}

	tier := "std"
	if cfg.HD || secs == duration25 {
		tier = "pro"
	}
	hd := cfg.HD
	if secs == duration10 && hd {
		secs = duration15
	}

	model := fmt.Sprintf("sora-%s-%s-%ds", orientation, tier, secs)
	if hd {
		model = fmt.Sprintf("sora-%s-%s-hd-%ds", orientation, tier, secs)
	}

	return gen.Params{"model": model}, nil
}

func orientationFor(ratio gen.AspectRatio) (string, error) {
	switch ratio {
	case gen.AspectLandscape:
		return "landscape", nil
	case gen.AspectPortrait:
		return "portrait", nil
	case "":
		return "", &gen.ValidationError{Field: "aspect_ratio", Reason: "aspect ratio is required"}
	default:
		return "", &gen.ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", ratio)}
	}
}

func secondsFor(duration string) (int, error) {
	if duration == "" {
		return 0, &gen.ValidationError{Field: "duration", Reason: "duration is required"}
	}
	secs, err := strconv.Atoi(duration)
	if err != nil {
		return 0, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("duration %q is not numeric", duration)}
	}
	switch secs {
	case duration10, duration15, duration25:
		return secs, nil
	default:
		return 0, &gen.ValidationError{Field: "duration", Reason: fmt.Sprintf("unsupported duration %d", secs)}
	}
}

// SubmitTask creates a generation task and returns its handle.
func (a *Adapter) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	params, err := a.TransformConfig(req.Config)
	if err != nil {
		return gen.TaskHandle{}, err
	}

	payload := submitRequest{
		Model:    params["model"].(string),
		Prompt:   req.Prompt,
		ImageURL: req.ReferenceImageURL,
	}

	var resp submitResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodPost, a.baseURL+"/v1/video/generations", credential, nil, payload, &resp)
	if err != nil {
		return gen.TaskHandle{}, err
	}
	if resp.Error != nil {
		return gen.TaskHandle{}, &gen.ProviderError{
			Provider: name,
			Code:     resp.Error.Code,
			Message:  resp.Error.Message,
			Quota:    resp.Error.Code == "quota_exceeded",
			Raw:      raw,
		}
	}

	var dataID string
	if resp.Data != nil {
		dataID = resp.Data.ID
	}
	var resultID string
	if resp.Result != nil {
		resultID = resp.Result.ID
	}
	id, ok := gen.FirstField(
		gen.Field{Location: "id", Value: resp.ID},
		gen.Field{Location: "task_id", Value: resp.TaskID},
		gen.Field{Location: "data.id", Value: dataID},
		gen.Field{Location: "result.id", Value: resultID},
	)
	if !ok {
		return gen.TaskHandle{}, &gen.ExtractionError{Provider: name, Field: "task id", Raw: raw}
	}

	status := resp.Status
	if status == "" && resp.Data != nil {
		status = resp.Data.Status
	}
	handle := gen.TaskHandle{
		ID:        id.Value,
		Status:    gen.StatusQueued,
		CreatedAt: time.Now(),
	}
	if status != "" {
		handle.Status = mapStatus(status)
	}
	return handle, nil
}

// CheckStatus polls the task once and normalizes the response. A completed
// task that carries no video URL is given one chance through the content
// endpoint; if that also fails the result is downgraded to an error, because
// a completed result must always be resolvable to output.
func (a *Adapter) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	var resp statusResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/v1/video/generations/"+taskID, credential, nil, nil, &resp)
	if err != nil {
		return gen.Result{}, err
	}
	if resp.Error != nil {
		return gen.Result{}, &gen.ProviderError{
			Provider: name,
			Code:     resp.Error.Code,
			Message:  resp.Error.Message,
			Quota:    resp.Error.Code == "quota_exceeded",
			Raw:      raw,
		}
	}

	status := resp.Status
	progress := resp.Progress
	failReason := resp.FailReason
	if resp.Data != nil {
		if status == "" {
			status = resp.Data.Status
		}
		if progress == 0 {
			progress = resp.Data.Progress
		}
		if failReason == "" {
			failReason = resp.Data.FailReason
		}
	}

	canonical := mapStatus(status)
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
		TaskID:              taskID,
		Status:              canonical,
		Progress:            progress,
		WatermarkedVideoURL: resp.Watermark,
		Duration:            resp.Duration,
		Quality:             resp.Quality,
		IsCompliant:         true,
	}

	switch canonical {
	case gen.StatusCompleted:
		var dataURL, detailURL string
		if resp.Data != nil {
			dataURL = resp.Data.VideoURL
			if resp.Data.Detail != nil {
				detailURL = resp.Data.Detail.URL
			}
		}
		url, ok := gen.FirstField(
			gen.Field{Location: "video_url", Value: resp.VideoURL},
			gen.Field{Location: "data.video_url", Value: dataURL},
			gen.Field{Location: "data.detail.url", Value: detailURL},
		)
		if ok {
			result.VideoURL = url.Value
			return result, nil
		}
		contentURL, cerr := a.fetchContent(ctx, taskID, credential)
		if cerr != nil {
			result.Status = gen.StatusError
			result.Error = "completed task has no video url"
			return result, nil
		}
		result.VideoURL = contentURL
		return result, nil

	case gen.StatusError:
		result.Error = failReason
		if isPolicyViolation(failReason) {
			result.IsCompliant = false
			result.ViolationReason = failReason
		}
		return result, nil

	default:
		return result, nil
	}
}

// fetchContent asks the content endpoint for the output location of a task
// whose status payload omitted it.
func (a *Adapter) fetchContent(ctx context.Context, taskID, credential string) (string, error) {
	var resp contentResponse
	raw, err := transport.DoJSON(ctx, a.httpClient, name, http.MethodGet, a.baseURL+"/v1/video/generations/"+taskID+"/content", credential, nil, nil, &resp)
	if err != nil {
		return "", err
	}

	var dataURL string
	if resp.Data != nil {
		dataURL = resp.Data.URL
	}
	url, ok := gen.FirstField(
		gen.Field{Location: "url", Value: resp.URL},
		gen.Field{Location: "data.url", Value: dataURL},
	)
	if !ok {
		return "", &gen.ExtractionError{Provider: name, Field: "content url", Raw: raw}
	}
	return url.Value, nil
}
