package sora

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvega/genbridge/internal/gen"
)

// fakeBackend records delegated calls and replays canned responses.
type fakeBackend struct {
	name         string
	params       gen.Params
	handle       gen.TaskHandle
	result       gen.Result
	submitCalls  int
	checkCalls   int
	lastTaskID   string
	lastCredName string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) TransformConfig(cfg gen.Config) (gen.Params, error) {
	return f.params, nil
}

func (f *fakeBackend) SubmitTask(ctx context.Context, req gen.Request, credential string) (gen.TaskHandle, error) {
	f.submitCalls++
	f.lastCredName = credential
	return f.handle, nil
}

func (f *fakeBackend) CheckStatus(ctx context.Context, taskID, credential string, onProgress gen.ProgressFunc) (gen.Result, error) {
	f.checkCalls++
	f.lastTaskID = taskID
	if onProgress != nil {
		onProgress(f.result.Progress)
	}
	return f.result, nil
}

func lookupFor(backends ...*fakeBackend) Lookup {
	return func(name string) (gen.Provider, error) {
		for _, b := range backends {
			if b.name == name {
				return b, nil
			}
		}
		return nil, errors.New("unknown provider")
	}
}

func TestName(t *testing.T) {
	adapter := New(func() string { return "vector" }, lookupFor())
	assert.Equal(t, "sora", adapter.Name())
}

func TestSubmitTask_DelegatesAndEstimates(t *testing.T) {
	backend := &fakeBackend{
		name:   "vector",
		handle: gen.TaskHandle{ID: "task-1", Status: gen.StatusQueued},
	}
	adapter := New(func() string { return "vector" }, lookupFor(backend))

	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Prompt: "drone shot of a coastline",
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "15"},
	}, "secret")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.submitCalls)
	assert.Equal(t, "secret", backend.lastCredName)
	assert.Equal(t, "task-1", handle.ID)
	assert.Equal(t, 30+6*15, handle.EstimatedSeconds)
}

func TestSubmitTask_NoEstimateForNonNumericDuration(t *testing.T) {
	backend := &fakeBackend{name: "vector", handle: gen.TaskHandle{ID: "task-1"}}
	adapter := New(func() string { return "vector" }, lookupFor(backend))

	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "auto"},
	}, "secret")
	require.NoError(t, err)
	assert.Zero(t, handle.EstimatedSeconds)
}

func TestCheckStatus_DerivesResolution(t *testing.T) {
	tests := []struct {
		name    string
		quality string
		want    string
	}{
		{"high quality is 1080p", "high", "1080p"},
		{"standard quality is 720p", "standard", "720p"},
		{"empty quality is 720p", "", "720p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{
				name: "vector",
				result: gen.Result{
					TaskID:   "task-1",
					Status:   gen.StatusCompleted,
					Progress: 100,
					VideoURL: "https://cdn.example/v.mp4",
					Quality:  tt.quality,
				},
			}
			adapter := New(func() string { return "vector" }, lookupFor(backend))

			result, err := adapter.CheckStatus(context.Background(), "task-1", "secret", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.VideoResolution)
		})
	}
}

func TestCheckStatus_NoResolutionWhileProcessing(t *testing.T) {
	backend := &fakeBackend{
		name:   "vector",
		result: gen.Result{TaskID: "task-1", Status: gen.StatusProcessing, Progress: 40},
	}
	adapter := New(func() string { return "vector" }, lookupFor(backend))

	var reported []int
	result, err := adapter.CheckStatus(context.Background(), "task-1", "secret", func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)

	assert.Empty(t, result.VideoResolution)
	assert.Equal(t, []int{40}, reported)
	assert.Equal(t, "task-1", backend.lastTaskID)
}

func TestResolverIsConsultedPerCall(t *testing.T) {
	first := &fakeBackend{name: "vector", handle: gen.TaskHandle{ID: "from-vector"}}
	second := &fakeBackend{name: "kling", handle: gen.TaskHandle{ID: "from-kling"}}

	current := "vector"
	adapter := New(func() string { return current }, lookupFor(first, second))

	handle, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "5"},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, "from-vector", handle.ID)

	current = "kling"
	handle, err = adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "5"},
	}, "secret")
	require.NoError(t, err)
	assert.Equal(t, "from-kling", handle.ID)

	assert.Equal(t, 1, first.submitCalls)
	assert.Equal(t, 1, second.submitCalls)
}

func TestBackendLookupFailure(t *testing.T) {
	adapter := New(func() string { return "missing" }, lookupFor())

	_, err := adapter.SubmitTask(context.Background(), gen.Request{
		Config: gen.Config{AspectRatio: gen.AspectLandscape, Duration: "5"},
	}, "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `resolve backend "missing"`)
}
